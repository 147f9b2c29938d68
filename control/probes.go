// File: control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Observation-only probe registry. Subsystems register named hooks that
// return a point-in-time value; callers snapshot all of them at once.
// Nothing here feeds back into dispatch.

package control

import (
	"sync"
	"sync/atomic"
)

// Probe is a named observation hook returning a point-in-time value.
type Probe func() any

// ProbeSet holds registered probe functions.
type ProbeSet struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewProbeSet creates an empty probe registry.
func NewProbeSet() *ProbeSet {
	return &ProbeSet{
		probes: make(map[string]Probe),
	}
}

// Register inserts a named probe, replacing any previous one of that name.
func (ps *ProbeSet) Register(name string, p Probe) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.probes[name] = p
}

// Snapshot returns the output of all probes.
func (ps *ProbeSet) Snapshot() map[string]any {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make(map[string]any, len(ps.probes))
	for k, p := range ps.probes {
		out[k] = p()
	}
	return out
}

// Counter is a monotonic counter safe to read from any goroutine while a
// hot loop updates it.
type Counter struct {
	v atomic.Uint64
}

// Inc adds one.
func (c *Counter) Inc() { c.v.Add(1) }

// Load returns the current value.
func (c *Counter) Load() uint64 { return c.v.Load() }

// Probe adapts the counter for ProbeSet registration.
func (c *Counter) Probe() any { return c.v.Load() }

// Gauge is a settable level indicator safe to read from any goroutine.
type Gauge struct {
	v atomic.Int64
}

// Set replaces the current value.
func (g *Gauge) Set(n int64) { g.v.Store(n) }

// Load returns the current value.
func (g *Gauge) Load() int64 { return g.v.Load() }

// Probe adapts the gauge for ProbeSet registration.
func (g *Gauge) Probe() any { return g.v.Load() }
