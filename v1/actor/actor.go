// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package actor implements the supplemented actor/mailbox extension
// (SPEC_FULL.md "Actor/mailbox extension"): a minimal, single-threaded
// FIFO mailbox per heap handle, giving the send-safety lint of spec.md
// §4.7 a concrete runtime consumer without claiming true concurrency.
// Messages are queued by `send` and drained by `receive`, both ordinary
// synchronous calls on the evaluator's own goroutine — there is no
// background delivery loop, matching spec.md §5's limit of concurrency
// to the Atomic/Mutex primitives.
package actor

import (
	"sync"

	"github.com/artlang/art/v1/value"
)

// Mailbox is a FIFO queue of values addressed to one heap handle.
type Mailbox struct {
	messages []value.Value
}

func (m *Mailbox) enqueue(v value.Value) {
	m.messages = append(m.messages, v)
}

func (m *Mailbox) dequeue() (value.Value, bool) {
	if len(m.messages) == 0 {
		return value.Value{}, false
	}
	v := m.messages[0]
	m.messages = m.messages[1:]
	return v, true
}

// Manager owns every live mailbox, keyed by the heap handle of the
// target value a send/receive names. Enabled gates the whole extension
// behind the build-time/config flag SPEC_FULL.md calls for; when
// disabled, Send and Receive are no-ops reporting failure so callers
// (topdown.Evaluator) can turn that into the usual Runtime diagnostic.
type Manager struct {
	mu      sync.Mutex
	enabled bool
	boxes   map[value.Handle]*Mailbox

	sent     uint64
	received uint64
}

// New constructs a Manager. enabled mirrors the --enable-actors /
// ART_ACTOR_ENABLE configuration knob.
func New(enabled bool) *Manager {
	return &Manager{enabled: enabled, boxes: make(map[value.Handle]*Mailbox)}
}

func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) mailbox(h value.Handle) *Mailbox {
	b, ok := m.boxes[h]
	if !ok {
		b = &Mailbox{}
		m.boxes[h] = b
	}
	return b
}

// Send enqueues v for target h. Reports false when the extension is
// disabled; never fails for any other reason since this mailbox has no
// backpressure limit.
func (m *Manager) Send(h value.Handle, v value.Value) bool {
	if !m.enabled {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mailbox(h).enqueue(v)
	m.sent++
	return true
}

// Receive dequeues the oldest message addressed to h, if any.
func (m *Manager) Receive(h value.Handle) (value.Value, bool) {
	if !m.enabled {
		return value.Value{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.mailbox(h).dequeue()
	if ok {
		m.received++
	}
	return v, ok
}

// Metrics snapshots the send/receive counters.
type Metrics struct {
	Sent     uint64
	Received uint64
}

func (m *Manager) SnapshotMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{Sent: m.sent, Received: m.received}
}
