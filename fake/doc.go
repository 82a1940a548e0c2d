// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable in-memory versions of api.NetConn,
// api.Acceptor and api.Multiplexer so that the event loop can be driven
// one iteration at a time without sockets.
package fake
