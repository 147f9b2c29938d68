// File: reactor/submission.go
// Author: momentics <momentics@gmail.com>
//
// Cross-thread task submission queue. One mutex guards both the pending
// buffer and the running flag; the first push onto an empty queue raises
// exactly one wake-up, so many submissions between two drains coalesce
// into a single notification.

package reactor

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/udpreactor/api"
)

// submissionQueue is the only structure shared between foreign threads and
// the loop thread. notify raises the wake-up handle; it is called with the
// mutex held, once per empty-to-non-empty transition.
type submissionQueue struct {
	mu      sync.Mutex
	running bool
	pending *queue.Queue
	scratch *queue.Queue
	notify  func()
}

func newSubmissionQueue(notify func()) *submissionQueue {
	return &submissionQueue{
		pending: queue.New(),
		scratch: queue.New(),
		notify:  notify,
	}
}

// start marks the queue as accepting submissions.
func (q *submissionQueue) start() {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
}

// stop marks the queue as closed. Subsequent pushes are dropped silently.
// Runs as a loop task; tasks swapped out in the same drain still run after
// it, and the loop observes the flag at the top of its next iteration and
// exits.
func (q *submissionQueue) stop() {
	q.mu.Lock()
	q.running = false
	q.mu.Unlock()
}

func (q *submissionQueue) isRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// push appends task for execution on the loop thread. Returns false if the
// queue is not running, in which case the task was dropped.
func (q *submissionQueue) push(task api.Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return false
	}
	wasEmpty := q.pending.Length() == 0
	q.pending.Add(task)
	if wasEmpty {
		q.notify()
	}
	return true
}

// drain swaps the pending buffer with the scratch buffer and calls clear
// (which consumes one wake-up notification) under the mutex, then runs the
// swapped-out tasks in insertion order with the mutex released. Tasks may
// therefore call push re-entrantly without deadlock; their submissions land
// in the fresh pending buffer and trigger a new wake-up.
//
// Loop-thread only. The scratch buffer is fully emptied before return, so
// the next drain reuses its storage.
func (q *submissionQueue) drain(clear func()) {
	q.mu.Lock()
	q.pending, q.scratch = q.scratch, q.pending
	clear()
	q.mu.Unlock()

	for q.scratch.Length() > 0 {
		task := q.scratch.Remove().(api.Task)
		task()
	}
}

// depth returns the number of tasks awaiting a drain.
func (q *submissionQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Length()
}
