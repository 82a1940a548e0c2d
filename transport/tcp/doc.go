// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides the listening socket collaborator of the relay: a
// non-blocking IPv4 TCP acceptor and connection handles backed by raw file
// descriptors, suitable for readiness multiplexing with poll or epoll.
package tcp
