package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-relay/reactor"
	"github.com/momentics/hioload-relay/transport/tcp"
)

func TestParseArgs(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseArgs([]string{"-backend", "epoll", "-stats-interval", "5s", "9000", "4"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 9000, opts.port)
	assert.Equal(t, 4, opts.maxClients)
	assert.Equal(t, reactor.KindEpoll, opts.backend)
	assert.Equal(t, tcp.DefaultBacklog, opts.backlog)
	assert.Equal(t, 1024, opts.readSize)
	assert.Equal(t, 5*time.Second, opts.statsInterval)
	assert.Empty(t, stderr.String())
}

func TestParseArgsRejectsInvalid(t *testing.T) {
	cases := [][]string{
		{},
		{"9000"},
		{"9000", "4", "extra"},
		{"0", "4"},
		{"-5", "4"},
		{"70000", "4"},
		{"abc", "4"},
		{"9000", "0"},
		{"9000", "many"},
		{"-backend", "kqueue", "9000", "4"},
		{"-buffer", "0", "9000", "4"},
		{"-nope", "9000", "4"},
	}
	for _, args := range cases {
		var stderr bytes.Buffer
		_, err := parseArgs(args, &stderr)
		assert.ErrorIs(t, err, errUsage, "args %v", args)
		assert.Contains(t, stderr.String(), "Usage: chatserver", "args %v", args)
	}
}

func TestRunInvalidArgumentsExitCode(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"x"}, &stderr))
	assert.Contains(t, stderr.String(), "Usage: chatserver")
}
