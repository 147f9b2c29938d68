//go:build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) implementation of the UDP reactor. One dedicated OS
// thread owns the epoll instance, the slot table, and the registry; every
// mutation of that state happens as either an event dispatch or a drained
// submission on that thread.

package reactor

import (
	"encoding/binary"
	"fmt"
	"net"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/udpreactor/api"
	"github.com/momentics/udpreactor/control"
)

// nativeState holds the kernel handles and the preallocated I/O memory:
// the epoll fd, the eventfd used as the cross-thread wake-up handle, the
// event-output array, and the receive-buffer pool. It lives for the whole
// reactor lifetime and is freed exactly once.
type nativeState struct {
	epfd   int
	wakefd int
	events []unix.EpollEvent
	pool   *recvPool
	freed  bool
}

// recvPool wires maxDatagramsPerRead preallocated buffers into an
// equal-length msgvec for vectored receive. Buffer base addresses are
// stable for the life of the reactor; contents of buffer i are valid only
// between the return of recvmmsg and the reader's consumption.
type recvPool struct {
	bufs   [][]byte
	iovecs []unix.Iovec
	msgvec []mmsghdr
}

func newRecvPool(n, size int) *recvPool {
	p := &recvPool{
		bufs:   make([][]byte, n),
		iovecs: make([]unix.Iovec, n),
		msgvec: make([]mmsghdr, n),
	}
	for i := range p.bufs {
		p.bufs[i] = make([]byte, size)
		p.iovecs[i].Base = &p.bufs[i][0]
		p.iovecs[i].SetLen(size)
		p.msgvec[i].hdr.Iov = &p.iovecs[i]
		p.msgvec[i].hdr.SetIovlen(1)
	}
	return p
}

func newNativeState(cfg *Config) (*nativeState, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &nativeState{
		epfd:   epfd,
		wakefd: wakefd,
		events: make([]unix.EpollEvent, cfg.MaxSelectedEvents),
		pool:   newRecvPool(cfg.MaxDatagramsPerRead, cfg.ReadBufferBytes),
	}, nil
}

// free releases the kernel handles and drops the pooled memory. Errors on
// the shutdown path are reported but never stop the remaining steps.
func (ns *nativeState) free(diag func(error)) {
	if ns.freed {
		return
	}
	ns.freed = true
	if err := unix.Close(ns.epfd); err != nil {
		diag(fmt.Errorf("close epoll fd: %w", err))
	}
	if err := unix.Close(ns.wakefd); err != nil {
		diag(fmt.Errorf("close wake-up fd: %w", err))
	}
	ns.events = nil
	ns.pool = nil
}

// epollReactor is the Linux reactor. Foreign threads touch only subq and
// the wake-up eventfd; everything else is confined to the loop thread.
type epollReactor struct {
	cfg  *Config
	diag func(error)

	ns       *nativeState
	slots    *slotTable
	registry map[int]*slot
	wakeSlot *slot
	subq     *submissionQueue

	probes  *control.ProbeSet
	wakeups control.Counter

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewReactor constructs an inert reactor from cfg. The wake-up handle gets
// its own slot and kernel registration here, so dispatch later indexes the
// slot table uniformly with no control-descriptor special case.
func NewReactor(cfg *Config) (api.Reactor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ns, err := newNativeState(cfg)
	if err != nil {
		return nil, err
	}

	r := &epollReactor{
		cfg:      cfg,
		diag:     cfg.diagnostic(),
		ns:       ns,
		slots:    newSlotTable(),
		registry: make(map[int]*slot),
		probes:   control.NewProbeSet(),
		done:     make(chan struct{}),
	}
	r.subq = newSubmissionQueue(r.raiseWakeup)

	s := r.slots.claim()
	s.bindWakeup(ns.wakefd)
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(s.index)}
	if err := unix.EpollCtl(ns.epfd, unix.EPOLL_CTL_ADD, ns.wakefd, ev); err != nil {
		ns.free(r.diag)
		return nil, fmt.Errorf("register wake-up handle: %w", err)
	}
	s.ev = ev
	s.hasEv = true
	r.wakeSlot = s

	r.probes.Register("slots_total", func() any { return r.slots.liveGauge.Load() + r.slots.freeGauge.Load() })
	r.probes.Register("slots_free", r.slots.freeGauge.Probe)
	r.probes.Register("submissions_pending", func() any { return r.subq.depth() })
	r.probes.Register("wakeups", r.wakeups.Probe)
	r.probes.Register("batch_size", func() any { return cfg.MaxDatagramsPerRead })
	return r, nil
}

// raiseWakeup writes one notification to the eventfd. Called with the
// submission-queue mutex held, only on an empty-to-non-empty transition,
// so K submissions between two drains produce exactly one write.
func (r *epollReactor) raiseWakeup() {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(r.ns.wakefd, b[:]); err != nil {
		r.diag(fmt.Errorf("raise wake-up: %w", err))
		return
	}
	r.wakeups.Inc()
}

// clearWakeup consumes the accumulated eventfd counter in one read.
func (r *epollReactor) clearWakeup() {
	var b [8]byte
	if _, err := unix.Read(r.ns.wakefd, b[:]); err != nil && err != unix.EAGAIN {
		r.diag(fmt.Errorf("clear wake-up: %w", err))
	}
}

// Start spawns the loop thread. At-most-once effect.
func (r *epollReactor) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return api.ErrClosed
	}
	if r.started {
		return api.ErrAlreadyStarted
	}
	r.started = true
	r.subq.start()
	go r.loop()
	return nil
}

// Close requests shutdown. If the reactor was never started the native
// state is released inline; otherwise a stop task is submitted and Close
// blocks until the loop thread has finished cleanup and terminated. Must
// not be called from the loop thread itself. Idempotent.
func (r *epollReactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	r.mu.Unlock()

	if !started {
		r.cleanup()
		return nil
	}
	r.subq.push(r.subq.stop)
	<-r.done
	return nil
}

// Execute submits task to run on the loop thread. Callable from any
// thread; silently dropped if the reactor is not running.
func (r *epollReactor) Execute(task api.Task) {
	r.subq.push(task)
}

// Register binds reader to conn's readable events. The socket handle is
// extracted eagerly on the calling thread; the slot claim, the kernel
// registration, and the registry insert run as a loop-thread task. The
// returned cancellation capability schedules unregistration and is safe to
// invoke any number of times.
func (r *epollReactor) Register(conn *net.UDPConn, reader api.Reader) (api.Cancel, error) {
	if conn == nil || reader == nil {
		return nil, fmt.Errorf("%w: nil conn or reader", api.ErrInvalidArgument)
	}
	fd, err := api.ExtractFD(conn)
	if err != nil {
		return nil, err
	}
	if !r.subq.push(func() { r.registerFD(fd, reader) }) {
		return nil, api.ErrClosed
	}
	return func() {
		r.subq.push(func() { r.unregister(fd) })
	}, nil
}

// Diagnostics returns a point-in-time snapshot of internal counters, for
// observability only.
func (r *epollReactor) Diagnostics() map[string]any {
	return r.probes.Snapshot()
}

// loop is the reactor's dedicated thread: block on epoll, dispatch the
// returned batch by slot index, repeat until the running flag drops.
func (r *epollReactor) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	setThreadName(r.cfg.ThreadName)

	for r.subq.isRunning() {
		n, err := unix.EpollWait(r.ns.epfd, r.ns.events, -1)
		if err != nil {
			// EINTR is a zero-event batch.
			if err != unix.EINTR {
				r.diag(fmt.Errorf("epoll wait: %w", err))
			}
			continue
		}
		for i := 0; i < n; i++ {
			// The slot index lives in the 32-bit field right after
			// the event mask (epoll_data); see NewReactor and
			// registerFD, which store it there on registration.
			s := r.slots.at(int(r.ns.events[i].Fd))
			if r.dispatch(s) == api.Remove {
				r.unregister(s.fd)
			}
		}
	}
	r.cleanup()
	close(r.done)
}

// dispatch invokes the handler variant bound to s. A slot freed earlier in
// the current batch has kind handlerNone and is skipped, which is what
// keeps stale batch entries harmless.
func (r *epollReactor) dispatch(s *slot) api.Action {
	switch s.kind {
	case handlerWakeup:
		r.subq.drain(r.clearWakeup)
		return api.Continue
	case handlerDatagram:
		return r.readBatch(s)
	default:
		return api.Continue
	}
}

// readBatch performs one vectored receive on s's socket and feeds each
// datagram to the reader in kernel-reported order. The first Remove stops
// dispatch and discards the remainder of the batch. A failed receive is a
// zero-datagram batch.
func (r *epollReactor) readBatch(s *slot) api.Action {
	p := r.ns.pool
	n, errno := recvmmsg(s.fd, p.msgvec, unix.MSG_DONTWAIT)
	if errno != 0 {
		if errno != unix.EAGAIN && errno != unix.EINTR {
			r.diag(fmt.Errorf("recvmmsg fd=%d: %w", s.fd, errno))
		}
		return api.Continue
	}
	for i := 0; i < n; i++ {
		if s.reader.OnRead(p.bufs[i][:p.msgvec[i].len]) == api.Remove {
			return api.Remove
		}
	}
	return api.Continue
}

// registerFD claims a slot, issues the kernel registration with the slot
// index as user data, and inserts the registry entry. Loop-thread only. An
// add failure leaves the slot back on the free list and no registry entry;
// the reader's OnRemove is not called because the registration never took.
func (r *epollReactor) registerFD(fd int, reader api.Reader) {
	if _, dup := r.registry[fd]; dup {
		r.diag(fmt.Errorf("%w: fd=%d already registered", api.ErrRegistration, fd))
		return
	}
	s := r.slots.claim()
	s.bindDatagram(fd, reader)
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(s.index)}
	if err := unix.EpollCtl(r.ns.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		r.slots.release(s)
		r.diag(fmt.Errorf("%w: epoll ctl add fd=%d: %v", api.ErrRegistration, fd, err))
		return
	}
	s.ev = ev
	s.hasEv = true
	r.registry[fd] = s
}

// unregister tears a registration down: kernel deregistration, free-list
// return, native-structure release, then exactly one OnRemove. Loop-thread
// only. A missing registry entry makes this a no-op, which is what makes
// repeated cancellations idempotent.
func (r *epollReactor) unregister(fd int) {
	s, ok := r.registry[fd]
	if !ok {
		return
	}
	if err := unix.EpollCtl(r.ns.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		r.diag(fmt.Errorf("epoll ctl del fd=%d: %w", fd, err))
	}
	delete(r.registry, fd)
	reader := s.reader
	r.slots.release(s)
	reader.OnRemove()
}

// cleanup unregisters every live slot, releases the wake-up slot, and
// frees the native state. Runs on the loop thread after the running flag
// drops, or inline from Close when the reactor was never started.
func (r *epollReactor) cleanup() {
	fds := make([]int, 0, len(r.registry))
	for fd := range r.registry {
		fds = append(fds, fd)
	}
	for _, fd := range fds {
		r.unregister(fd)
	}
	if r.wakeSlot != nil {
		r.slots.release(r.wakeSlot)
		r.wakeSlot = nil
	}
	r.ns.free(r.diag)
}

// setThreadName applies the debug label to the loop thread. Kernel limit
// is 15 bytes plus the terminator; longer names are truncated.
func setThreadName(name string) {
	buf := make([]byte, 16)
	copy(buf[:15], name)
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}
