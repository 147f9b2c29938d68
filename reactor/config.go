// File: reactor/config.go
// Author: momentics <momentics@gmail.com>
//
// Constructor configuration for the UDP reactor.

package reactor

import (
	"fmt"
	"log"

	"github.com/momentics/udpreactor/api"
)

// Config holds all configurable parameters for a reactor. Batch limits are
// fixed at construction and cannot be resized afterwards.
type Config struct {
	// ThreadName is the debug label applied to the loop thread.
	ThreadName string

	// MaxSelectedEvents is the capacity of the epoll event-output array.
	MaxSelectedEvents int

	// MaxDatagramsPerRead is the batch size of one vectored receive and
	// therefore the size of the preallocated receive-buffer pool.
	MaxDatagramsPerRead int

	// ReadBufferBytes is the size of each pooled receive buffer. It must
	// be at least the largest expected datagram; longer datagrams are
	// truncated by the kernel.
	ReadBufferBytes int

	// Diagnostic receives transient errors absorbed by the loop (failed
	// receives, failed deregistrations, shutdown-path errors). Optional;
	// defaults to the standard logger.
	Diagnostic func(error)
}

// DefaultConfig returns a baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		ThreadName:          "udpreactor",
		MaxSelectedEvents:   64,
		MaxDatagramsPerRead: 16,
		ReadBufferBytes:     64 * 1024,
	}
}

// Validate reports the first constraint violation, if any.
func (c *Config) Validate() error {
	if c.ThreadName == "" {
		return fmt.Errorf("%w: ThreadName must be non-empty", api.ErrInvalidArgument)
	}
	if c.MaxSelectedEvents < 1 {
		return fmt.Errorf("%w: MaxSelectedEvents must be >= 1, got %d", api.ErrInvalidArgument, c.MaxSelectedEvents)
	}
	if c.MaxDatagramsPerRead < 1 {
		return fmt.Errorf("%w: MaxDatagramsPerRead must be >= 1, got %d", api.ErrInvalidArgument, c.MaxDatagramsPerRead)
	}
	if c.ReadBufferBytes < 1 {
		return fmt.Errorf("%w: ReadBufferBytes must be >= 1, got %d", api.ErrInvalidArgument, c.ReadBufferBytes)
	}
	return nil
}

// diagnostic returns the configured hook or the standard-logger default.
func (c *Config) diagnostic() func(error) {
	if c.Diagnostic != nil {
		return c.Diagnostic
	}
	return func(err error) {
		log.Printf("udpreactor[%s]: %v", c.ThreadName, err)
	}
}
