// File: api/reactor.go
// Package api defines the platform-neutral reactor contract.
// Author: momentics <momentics@gmail.com>

package api

import "net"

// Reactor multiplexes UDP datagram reception across many sockets and
// doubles as a task executor for its own loop thread.
type Reactor interface {
	// Start begins the loop thread. At-most-once effect; a second call
	// returns ErrAlreadyStarted.
	Start() error

	// Close requests shutdown. Idempotent with respect to observable
	// effects: a second call is a no-op.
	Close() error

	// Register binds reader to conn's readable events and returns a
	// cancellation capability. Callable from any thread.
	Register(conn *net.UDPConn, reader Reader) (Cancel, error)

	// Execute submits task to run on the loop thread. Silently dropped
	// if the reactor is not running.
	Execute(task Task)

	// Diagnostics returns a point-in-time snapshot of internal counters,
	// for observability only; it never feeds back into dispatch.
	Diagnostics() map[string]any
}
