//go:build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for platforms without epoll.

package reactor

import (
	"fmt"

	"github.com/momentics/udpreactor/api"
)

// NewReactor returns an error on platforms without epoll support.
func NewReactor(cfg *Config) (api.Reactor, error) {
	return nil, fmt.Errorf("%w: epoll reactor requires linux", api.ErrNotSupported)
}
