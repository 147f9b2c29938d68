// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package control provides observation-only instrumentation primitives:
// a probe registry and the atomic counters and gauges that feed it.
package control
