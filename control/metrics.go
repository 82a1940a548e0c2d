// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for relay monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"
)

// Well-known metric keys published by the event loop.
const (
	MetricActiveClients = "clients.active"
	MetricCapacity      = "clients.capacity"
	MetricAdmitted      = "clients.admitted"
	MetricRemoved       = "clients.removed"
	MetricIterations    = "loop.iterations"
	MetricMessages      = "relay.messages"
	MetricBytesIn       = "relay.bytes_in"
	MetricBytesOut      = "relay.bytes_out"
	MetricWriteFailures = "relay.write_failures"
	MetricStartedAt     = "loop.started_at"
	MetricPendingWrites = "relay.pending_writes"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Add increments a uint64 counter. A key holding a non-counter value is reset.
func (mr *MetricsRegistry) Add(key string, delta uint64) {
	if delta == 0 {
		return
	}
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(uint64)
	mr.metrics[key] = cur + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Uint64 returns a counter value, zero when absent.
func (mr *MetricsRegistry) Uint64(key string) uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	v, _ := mr.metrics[key].(uint64)
	return v
}

// Int returns a gauge value, zero when absent.
func (mr *MetricsRegistry) Int(key string) int {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	v, _ := mr.metrics[key].(int)
	return v
}

// Updated returns the time of the last write.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}
