//go:build linux

// File: reactor/slot_linux.go
// Author: momentics <momentics@gmail.com>
//
// Per-registration slots and the append-only slot table. Slot indices are
// written into kernel memory as epoll user data, so the table never
// shrinks and a released slot keeps its index until it is reclaimed.

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/udpreactor/api"
	"github.com/momentics/udpreactor/control"
)

// handlerKind is the tagged variant of a slot's event handler.
type handlerKind uint8

const (
	// handlerNone marks a free slot; dispatching it is a no-op, which
	// keeps stale events in the current batch harmless after a removal.
	handlerNone handlerKind = iota
	// handlerDatagram performs one vectored receive and feeds the reader.
	handlerDatagram
	// handlerWakeup drains the submission queue.
	handlerWakeup
)

// slot is a per-registration record. index is assigned on first allocation
// and never changes, across any number of reuse cycles; it is the value
// stored in the kernel registration's user-data field.
type slot struct {
	index  int
	fd     int
	kind   handlerKind
	reader api.Reader

	// ev is the native per-registration structure handed to the kernel
	// registration call. Owned by the slot while live; released at
	// unregistration.
	ev    *unix.EpollEvent
	hasEv bool
}

// bindDatagram initialises the slot for a user registration.
func (s *slot) bindDatagram(fd int, reader api.Reader) {
	s.fd = fd
	s.kind = handlerDatagram
	s.reader = reader
}

// bindWakeup initialises the slot for the reactor's own wake-up handle.
func (s *slot) bindWakeup(fd int) {
	s.fd = fd
	s.kind = handlerWakeup
}

// slotTable is a dense append-only list of slots plus a free-index stack.
// Loop-thread only after construction; the gauges exist so probes can read
// table depth from foreign threads.
type slotTable struct {
	slots []*slot
	free  []int

	liveGauge control.Gauge
	freeGauge control.Gauge
}

func newSlotTable() *slotTable {
	return &slotTable{}
}

// claim pops a free slot if one exists, otherwise appends a fresh slot
// whose index equals the prior table length.
func (t *slotTable) claim() *slot {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.freeGauge.Set(int64(len(t.free)))
		t.liveGauge.Set(int64(len(t.slots) - len(t.free)))
		return t.slots[idx]
	}
	s := &slot{index: len(t.slots)}
	t.slots = append(t.slots, s)
	t.liveGauge.Set(int64(len(t.slots) - len(t.free)))
	return s
}

// release clears the slot's registration state, frees its native
// structure, and pushes its index onto the free list. The index itself is
// preserved for reuse.
func (t *slotTable) release(s *slot) {
	s.fd = -1
	s.kind = handlerNone
	s.reader = nil
	s.ev = nil
	s.hasEv = false
	t.free = append(t.free, s.index)
	t.freeGauge.Set(int64(len(t.free)))
	t.liveGauge.Set(int64(len(t.slots) - len(t.free)))
}

// at returns the slot with the given index. Indices come back from kernel
// event user data, so they are always valid subscripts (the table never
// shrinks); an out-of-range index is a programmer error.
func (t *slotTable) at(index int) *slot {
	return t.slots[index]
}

func (t *slotTable) len() int { return len(t.slots) }
