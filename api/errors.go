// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types shared across the reactor and its collaborators.

package api

import "fmt"

// Sentinel errors used across the library.
var (
	ErrInvalidArgument  = fmt.Errorf("udpreactor: invalid argument")
	ErrClosed           = fmt.Errorf("udpreactor: reactor is closed")
	ErrAlreadyStarted   = fmt.Errorf("udpreactor: reactor already started")
	ErrNotSupported     = fmt.Errorf("udpreactor: operation not supported on this platform")
	ErrHandleExtraction = fmt.Errorf("udpreactor: could not extract socket handle")
	ErrRegistration     = fmt.Errorf("udpreactor: kernel registration failed")
)
