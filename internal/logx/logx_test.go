package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug").With(String("component", "relay"))

	log.Info("client admitted", Int("slot", 2), Uintptr("fd", 7), Err(errors.New("boom")))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "client admitted", got["message"])
	assert.Equal(t, "relay", got["component"])
	assert.EqualValues(t, 2, got["slot"])
	assert.EqualValues(t, 7, got["fd"])
	assert.Equal(t, "boom", got["err"])
	assert.Contains(t, got["caller"], "logx_test.go:")
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, log.Enabled(LevelInfo))
	assert.True(t, log.Enabled(LevelError))

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestZeroLoggerIsNop(t *testing.T) {
	var log Logger
	assert.NotPanics(t, func() { log.Error("nothing", Int("n", 1)) })
	assert.NotPanics(t, func() { Nop().Info("nothing") })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" debug ", zerolog.InfoLevel))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARNING", zerolog.InfoLevel))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus", zerolog.InfoLevel))
}
