// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer used by the relay event
// loop, with a poll(2) backend for unix platforms and an epoll(7) backend for
// Linux. Both backends recompute interest from the handle sets passed to
// every Wait call and block without timeout.
package reactor
