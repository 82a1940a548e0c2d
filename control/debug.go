// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes evaluated on demand when relay stats are collected.

package control

import (
	"sync"

	"github.com/momentics/hioload-relay/api"
)

// DebugProbes maps probe names to functions sampled by Server.Stats. Probes
// run on the caller's goroutine and must only read state that is safe to
// read concurrently with the loop.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

var _ api.Debug = (*DebugProbes)(nil)

func NewDebugProbes() *DebugProbes {
	return &DebugProbes{probes: make(map[string]func() any)}
}

// RegisterProbe adds or replaces the probe called name.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState samples every probe once.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for name, fn := range dp.probes {
		out[name] = fn()
	}
	return out
}
