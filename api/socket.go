// File: api/socket.go
// Package api
// Author: momentics <momentics@gmail.com>
//
// Socket-handle extraction for higher-level datagram socket objects. This is
// the external collaborator named but left out of scope by the core design;
// only the Unix raw-fd path is implemented, since the reactor itself is
// epoll-based and Unix-only.

package api

import (
	"fmt"
	"net"
)

// ExtractFD obtains the integer socket handle backing a *net.UDPConn so it
// can be handed to the reactor's Register call. Failure to extract is a
// fatal error at Register time, surfaced to the caller.
func ExtractFD(conn *net.UDPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrHandleExtraction, err)
	}

	var fd int
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrHandleExtraction, err)
	}
	return fd, nil
}
