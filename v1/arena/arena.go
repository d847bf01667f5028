// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package arena implements the region allocator described in spec.md
// §4.2: "performant" blocks group short-lived composite allocations under
// a monotone arena id and bulk-finalize them on block exit. It is the
// direct analogue of the teacher's storage/arena region, generalized from
// a versioned KV store's write region to a reference-counted heap's
// allocation region.
package arena

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/value"
)

// Decrementer is the subset of *finalizer.Engine the manager needs.
// Declared as an interface (rather than importing package finalizer
// directly) purely to keep the dependency graph a DAG documented in
// DESIGN.md — finalizer already depends on heap and environment, and
// arena sits beside it, not above it.
type Decrementer interface {
	Decrement(h value.Handle)
}

// Metrics mirrors the per-arena counters named in spec.md §3 "ArenaId":
// allocations, objects finalized, finalizer promotions (the last one is
// owned by package finalizer and merged in by the caller).
type Metrics struct {
	Allocations int
	Finalized   int
}

// Manager owns the current-arena stack and per-arena metrics.
type Manager struct {
	mu      sync.Mutex
	heap    *heap.Table
	dec     Decrementer
	next    heap.ArenaID
	stack   []heap.ArenaID // enclosing arenas; stack[len-1] is current if tagged
	metrics map[heap.ArenaID]*Metrics
	log     *logrus.Entry
}

func New(h *heap.Table, dec Decrementer) *Manager {
	return &Manager{
		heap:    h,
		dec:     dec,
		metrics: make(map[heap.ArenaID]*Metrics),
		log:     logrus.WithField("component", "arena"),
	}
}

// Current returns the innermost active arena, or the zero Arena
// (Tagged=false) if execution is not currently inside a performant
// block.
func (m *Manager) Current() heap.Arena {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stack) == 0 {
		return heap.Arena{}
	}
	return heap.Arena{ID: m.stack[len(m.stack)-1], Tagged: true}
}

// Enter returns a fresh ArenaId and makes it current, per spec.md §4.2
// "enter() returns a fresh ArenaId and sets it current".
func (m *Manager) Enter() heap.ArenaID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.stack = append(m.stack, id)
	m.metrics[id] = &Metrics{}
	m.log.WithField("arena", id).Debug("entered performant block")
	return id
}

// Exit restores the previous current arena and runs finalize(id), per
// spec.md §4.2 "exit(id) restores the previous current arena and runs
// finalize(id)".
func (m *Manager) Exit(id heap.ArenaID) {
	m.mu.Lock()
	if n := len(m.stack); n > 0 && m.stack[n-1] == id {
		m.stack = m.stack[:n-1]
	}
	m.mu.Unlock()
	m.finalize(id)
	m.log.WithField("arena", id).Debug("exited performant block")
}

// finalize implements the five-step algorithm of spec.md §4.2.
func (m *Manager) finalize(id heap.ArenaID) {
	// (1) snapshot the set of live object ids tagged with this arena.
	live := m.heap.LiveInArena(id)

	// (2) for each h, set strong to 1 then invoke the recursive
	// strong-decrement. Ordering is unspecified by the spec; range order
	// over a slice built from map iteration is already unspecified here.
	for _, h := range live {
		m.heap.ForceStrongOne(h)
		m.dec.Decrement(h)
	}

	// (3) sweep any object with arena==id && !alive && weak==0.
	swept := m.heap.SweepArena(id)

	// (4) normalize: mark any residual strong==0 && alive==true non-alive.
	m.heap.Normalize()

	// (5) global dead-sweep.
	m.heap.Sweep()

	m.mu.Lock()
	if met, ok := m.metrics[id]; ok {
		met.Allocations = len(live)
		met.Finalized += len(live) + swept
	}
	m.mu.Unlock()
}

// CheckEscape implements spec.md §4.2 "Escape checks (runtime)": on a
// `let` binding or `return` whose value is a HeapComposite tagged with an
// arena different from the current one, a Runtime diagnostic is emitted
// but the binding proceeds best-effort, because arena finalization on
// exit will still collect it.
func CheckEscape(v value.Value, obj heap.Object, current heap.Arena, verb string) (diag.Diagnostic, bool) {
	if v.Kind != value.KindHeapComposite {
		return diag.Diagnostic{}, false
	}
	if !obj.Arena.Tagged {
		return diag.Diagnostic{}, false
	}
	if current.Tagged && current.ID == obj.Arena.ID {
		return diag.Diagnostic{}, false
	}
	return diag.Runtimef("Attempt to %s arena object outside its arena", verb), true
}

// SnapshotMetrics returns a copy of the per-arena allocation/finalization
// counters for the CLI metrics surface (spec.md §6).
func (m *Manager) SnapshotMetrics() map[heap.ArenaID]Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[heap.ArenaID]Metrics, len(m.metrics))
	for id, met := range m.metrics {
		out[id] = *met
	}
	return out
}
