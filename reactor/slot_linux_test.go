//go:build linux

// File: reactor/slot_linux_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"

	"github.com/momentics/udpreactor/api"
)

type nopReader struct{}

func (nopReader) OnRead(buf []byte) api.Action { return api.Continue }
func (nopReader) OnRemove()                    {}

func TestSlotTableAppendAssignsDenseIndices(t *testing.T) {
	tab := newSlotTable()
	for i := 0; i < 8; i++ {
		s := tab.claim()
		if s.index != i {
			t.Fatalf("claim %d: index = %d", i, s.index)
		}
		if tab.at(s.index) != s {
			t.Fatalf("at(%d) does not return the claimed slot", s.index)
		}
	}
	if tab.len() != 8 {
		t.Errorf("table length = %d, want 8", tab.len())
	}
}

func TestSlotIndexPersistsAcrossReuse(t *testing.T) {
	tab := newSlotTable()
	a := tab.claim()
	b := tab.claim()
	b.bindDatagram(7, nopReader{})

	tab.release(b)
	if b.kind != handlerNone || b.reader != nil || b.hasEv {
		t.Error("release did not clear registration state")
	}

	// Reclaim pops the freed slot; its index never changed.
	c := tab.claim()
	if c != b || c.index != 1 {
		t.Errorf("expected freed slot 1 reused, got index %d", c.index)
	}
	if tab.len() != 2 {
		t.Errorf("table grew on reuse: length %d", tab.len())
	}

	// Many churn cycles never shift indices.
	for i := 0; i < 100; i++ {
		tab.release(c)
		c = tab.claim()
	}
	if c.index != 1 || a.index != 0 {
		t.Errorf("indices drifted after churn: a=%d c=%d", a.index, c.index)
	}
}

func TestSlotTableFreeListOrder(t *testing.T) {
	tab := newSlotTable()
	s0 := tab.claim()
	s1 := tab.claim()
	s2 := tab.claim()

	tab.release(s0)
	tab.release(s2)

	// LIFO reuse: most recently released comes back first.
	if got := tab.claim(); got != s2 {
		t.Errorf("expected slot %d, got %d", s2.index, got.index)
	}
	if got := tab.claim(); got != s0 {
		t.Errorf("expected slot %d, got %d", s0.index, got.index)
	}
	_ = s1
}
