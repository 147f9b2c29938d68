// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides a single-threaded epoll-based UDP reactor that
// multiplexes datagram reception across many sockets and doubles as a task
// executor for its loop thread.
//
// All internal state is mutated only on the loop thread. Foreign threads
// interact through Execute, which appends to a mutex-protected submission
// queue and raises an eventfd so the loop never polls with a timeout.
// Registration and unregistration are themselves submitted as tasks.
//
// A reader that returns Remove mid-batch discards any datagrams already
// pulled into the receive pool behind the current one. Callers that must
// not drop tail datagrams should keep returning Continue and schedule
// removal through the cancellation capability instead.
package reactor
