// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package finalizer implements the finalizer table and the recursive
// strong-decrement / dispatch / promotion algorithm of spec.md §4.4. It
// is the one place that ties together the heap, the environment chain,
// and statement execution — which would otherwise be a three-way import
// cycle — by taking an ExecFunc callback from the evaluator (package
// topdown), the same dependency-inversion the teacher uses for
// storage.TriggerConfig.OnCommit to let a leaf package call back into a
// higher-level one without importing it.
package finalizer

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/environment"
	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/value"
)

// ExecFunc executes fn's body against frame (a fresh child of the root
// environment) and returns any diagnostics raised. Parameters are already
// bound into frame by the caller of Decrement's finalizer dispatch step —
// a registered finalizer is a zero-argument Function (spec.md §4.4
// "register_finalizer"), so no argument binding is required here.
type ExecFunc func(frame *environment.Env, fn *value.Function) []diag.Diagnostic

// Metrics mirrors the finalizer_promotions counters named in spec.md §4.4
// step 5 and exposed on the CLI metrics surface (spec.md §6).
type Metrics struct {
	Promotions      uint64
	ArenaPromotions map[heap.ArenaID]uint64
}

// Engine owns the finalizer table and the recursive decrement algorithm.
// Not safe for concurrent use beyond its own mutex — the evaluator is
// single-threaded per spec.md §5, so the mutex here is defensive
// bookkeeping, not a concurrency guarantee.
type Engine struct {
	mu         sync.Mutex
	finalizers map[value.Handle]*value.Function
	heap       *heap.Table
	root       *environment.Env
	exec       ExecFunc
	sink       *diag.Sink

	checkInvariants bool

	promotions      uint64
	arenaPromotions map[heap.ArenaID]uint64

	log *logrus.Entry
}

// New constructs an Engine. root is the program's root environment;
// checkInvariants controls whether the post-pass named in spec.md §4.4
// ("Invariant check failed after finalizer promotion") runs after every
// finalizer dispatch.
func New(h *heap.Table, root *environment.Env, sink *diag.Sink, exec ExecFunc, checkInvariants bool) *Engine {
	return &Engine{
		finalizers:      make(map[value.Handle]*value.Function),
		heap:            h,
		root:            root,
		exec:            exec,
		sink:            sink,
		checkInvariants: checkInvariants,
		arenaPromotions: make(map[heap.ArenaID]uint64),
		log:             logrus.WithField("component", "finalizer"),
	}
}

// RegisterFinalizer implements spec.md §4.4 "register_finalizer":
// recorded only if h currently resolves to a live object, silently
// ignored otherwise.
func (e *Engine) RegisterFinalizer(h value.Handle, fn *value.Function) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.heap.IsAlive(h) {
		return
	}
	e.finalizers[h] = fn
}

// Decrement is the recursive strong-decrement operation referenced
// throughout spec.md §3-§4.4: the sole path by which a HeapObject's
// strong count reaches zero and is torn down. Every scope exit, rebind,
// composite finalization, and arena finalization funnels through this
// call.
func (e *Engine) Decrement(h value.Handle) {
	res := e.heap.DecStrong(h)
	if !res.DiedNow {
		return
	}

	// Skipping rule (spec.md §4.4): Atomic/Mutex cells never carry a user
	// finalizer and their payload is scalar, so there are no composite
	// children to recurse into either.
	if res.Kind != value.HeapNone {
		return
	}

	// Step 1: extract any registered finalizer, removing it from the table.
	e.mu.Lock()
	fn, hasFinalizer := e.finalizers[h]
	delete(e.finalizers, h)
	e.mu.Unlock()

	// Step 3: recursively decrement every child HeapComposite found in the
	// snapshot (the snapshot itself, res.Composite, was already captured by
	// DecStrong before the table mutation).
	for _, child := range res.Children {
		e.Decrement(child)
	}

	if !hasFinalizer || fn == nil {
		return
	}
	e.dispatch(h, fn, res)
}

// dispatch runs steps 4-7 of spec.md §4.4: execute the finalizer body in
// a fresh root-anchored frame, promote its bindings/handles into root,
// and run the post-pass invariant check.
func (e *Engine) dispatch(h value.Handle, fn *value.Function, res heap.DecStrongResult) {
	frame := environment.Push(e.root)

	diags := e.exec(frame, fn)
	for _, d := range diags {
		e.sink.Add(d)
	}

	// Step 5: promotion.
	e.root.AdoptPromoted(frame.Bindings(), frame.StrongHandles())
	frame.ClearStrongHandles()

	e.mu.Lock()
	e.promotions++
	if res.Arena.Tagged {
		e.arenaPromotions[res.Arena.ID]++
	}
	e.mu.Unlock()

	// Step 6: drop the finalizer frame normally; its handles list is empty
	// so this is a no-op decrement pass.
	frame.Exit()

	// Step 7 / post-pass.
	if e.checkInvariants && !e.heap.CheckInvariants() {
		e.sink.Add(diag.Internalf("Invariant check failed after finalizer promotion").
			WithNote("handle " + strconv.FormatUint(uint64(h), 10)))
	}
}

// Metrics snapshots the finalizer-owned counters.
func (e *Engine) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[heap.ArenaID]uint64, len(e.arenaPromotions))
	for k, v := range e.arenaPromotions {
		cp[k] = v
	}
	return Metrics{Promotions: e.promotions, ArenaPromotions: cp}
}
