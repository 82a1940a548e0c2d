package control

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry_Basic(t *testing.T) {
	reg := NewMetricsRegistry()
	reg.Set(MetricActiveClients, 3)
	reg.Add(MetricMessages, 2)
	reg.Add(MetricMessages, 5)
	reg.Add(MetricBytesIn, 0)

	assert.Equal(t, 3, reg.Int(MetricActiveClients))
	assert.EqualValues(t, 7, reg.Uint64(MetricMessages))
	assert.Zero(t, reg.Uint64(MetricBytesIn))
	assert.False(t, reg.Updated().IsZero())

	snap := reg.GetSnapshot()
	assert.Equal(t, uint64(7), snap[MetricMessages])
	_, ok := snap[MetricBytesIn]
	assert.False(t, ok)
}

func TestMetricsRegistry_ConcurrentAdd(t *testing.T) {
	reg := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Add(MetricIterations, 1)
				_ = reg.GetSnapshot()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 800, reg.Uint64(MetricIterations))
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	dp.RegisterProbe("answer", func() any { return 42 })

	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Contains(t, state, "platform.cpus")
	assert.Contains(t, state, "platform.os")
}
