package adapters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-relay/adapters"
	"github.com/momentics/hioload-relay/control"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.Metrics().Add(control.MetricMessages, 3)
	ctrl.RegisterDebugProbe("pending", func() any { return true })

	stats := ctrl.Stats()
	assert.Equal(t, uint64(3), stats[control.MetricMessages])
	assert.Equal(t, true, stats["debug.pending"])
	assert.Contains(t, stats, "debug.platform.cpus")
}
