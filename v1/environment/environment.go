// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package environment implements Art's lexical scope chain (spec.md §3
// "Environment", §4.3). An Environment is a flat binding map plus a list
// of the composite handles it directly bound, so that scope exit can
// decrement exactly once per binding — mirroring the way the teacher's
// storage layer threads a single mutation log through nested transaction
// contexts rather than letting each frame clean up independently.
package environment

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/artlang/art/v1/value"
)

var log = logrus.WithField("component", "environment")

// framePool recycles child-scope frames (spec.md §4.3 "Push"/"Exit"), the
// single highest-churn allocation in the evaluator: a fresh frame is
// pushed on every function call and every block, and almost always
// dropped again within the same statement. Modeled on the teacher's
// custom sync.Pool wrappers (ast.sbPool, ast.vvPool) that reset state in
// Put rather than relying on the zero value New returns.
var framePool = sync.Pool{
	New: func() any {
		return &Env{bindings: make(map[string]value.Value)}
	},
}

// DecrementFunc recursively strong-decrements h, running finalizer
// dispatch and recursing into children per spec.md §4.4. Injected by the
// evaluator (package topdown) to avoid an import cycle: environment must
// not depend on finalizer, which itself depends on environment to run
// finalizer bodies.
type DecrementFunc func(h value.Handle)

// Env is one frame of the lexical scope chain.
type Env struct {
	parent        *Env
	bindings      map[string]value.Value
	strongHandles []value.Handle
	dec           DecrementFunc
}

// New creates a root environment with no parent. dec is invoked for every
// strong handle this frame (or its descendants) drops.
func New(dec DecrementFunc) *Env {
	return &Env{bindings: make(map[string]value.Value), dec: dec}
}

// Push creates a child frame of parent, inheriting its DecrementFunc. The
// frame comes from framePool when a previously-exited frame is
// available, avoiding a fresh map allocation on the common case.
func Push(parent *Env) *Env {
	e := framePool.Get().(*Env)
	e.parent = parent
	e.dec = parent.dec
	return e
}

// Parent returns the enclosing frame, or nil for the root.
func (e *Env) Parent() *Env { return e.parent }

// Root walks up the chain and returns the outermost frame.
func (e *Env) Root() *Env {
	cur := e
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Lookup resolves name, searching outward through enclosing scopes.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.bindings[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// Define binds name to v in this frame (spec.md §4.3 "let"). If v is a
// HeapComposite-kind handle, it is appended to strong_handles so scope
// exit decrements it exactly once. Rebinding an existing *local* name
// first decrements the prior value's heap ref, matching spec.md §4.3
// "Rebinding an existing name".
func (e *Env) Define(name string, v value.Value) {
	if old, ok := e.bindings[name]; ok {
		e.decrementRebind(old)
	}
	e.bindings[name] = v
	if v.Kind == value.KindHeapComposite {
		e.strongHandles = append(e.strongHandles, v.Heap)
	}
}

// decrementRebind removes old's handle from strongHandles (if present,
// exactly one occurrence) and runs the decrement, so a rebind never
// double-counts against the frame's eventual scope-exit pass.
func (e *Env) decrementRebind(old value.Value) {
	if old.Kind != value.KindHeapComposite {
		return
	}
	for i, h := range e.strongHandles {
		if h == old.Heap {
			e.strongHandles = append(e.strongHandles[:i], e.strongHandles[i+1:]...)
			break
		}
	}
	if e.dec != nil {
		e.dec(old.Heap)
	}
}

// DefineLocal installs v without touching strong_handles or running any
// decrement, for the parameter-binding fast path where the caller has
// already accounted for ownership transfer (spec.md §4.6 "Functions").
func (e *Env) DefineLocal(name string, v value.Value) {
	e.bindings[name] = v
}

// StrongHandles exposes the frame's currently tracked handles, used by
// the finalizer engine's promotion step (spec.md §4.4 step 5) to copy
// them into the root frame before this frame drops.
func (e *Env) StrongHandles() []value.Handle {
	return e.strongHandles
}

// Bindings exposes the frame's own bindings (not the chain), used by the
// finalizer engine's promotion step to copy locals into the root frame.
func (e *Env) Bindings() map[string]value.Value {
	return e.bindings
}

// AdoptPromoted merges handles and bindings from a dropped finalizer
// frame into e, per spec.md §4.4 step 5 ("Promotion"). Intended to be
// called on the root environment only.
func (e *Env) AdoptPromoted(bindings map[string]value.Value, handles []value.Handle) {
	for name, v := range bindings {
		e.bindings[name] = v
	}
	e.strongHandles = append(e.strongHandles, handles...)
	log.WithField("promoted", len(handles)).Debug("adopted finalizer-frame promotions")
}

// ClearStrongHandles empties the frame's tracked handle list without
// decrementing, used by the finalizer engine (spec.md §4.4 step 5) after
// transferring them to the root so the finalizer frame's own drop is a
// no-op.
func (e *Env) ClearStrongHandles() {
	e.strongHandles = nil
}

// Exit runs the scope-exit drop sequence from spec.md §4.3(a)-(c): decrement
// every tracked strong handle, in the exact order they were recorded, then
// clear the list. It returns the parent frame, which the caller should
// make current (step (c), "restore the parent environment").
//
// Exit must run to completion even if the caller is unwinding due to an
// error or an explicit return — the order is not optional, since a
// finalizer invoked mid-pass may itself append newly-live handles to an
// ancestor frame and expects siblings to have already been accounted for
// in a stable order.
func (e *Env) Exit() *Env {
	handles := e.strongHandles
	e.strongHandles = nil
	for _, h := range handles {
		if e.dec != nil {
			e.dec(h)
		}
	}
	parent := e.parent
	e.returnToPool()
	return parent
}

// returnToPool clears e's bindings in place (reusing the map's existing
// buckets, per the teacher's Put-time-reset pools) and releases e back to
// framePool. Only Push-created frames should ever reach here; the root
// environment is never passed to Exit by the evaluator.
func (e *Env) returnToPool() {
	for k := range e.bindings {
		delete(e.bindings, k)
	}
	e.parent = nil
	e.dec = nil
	framePool.Put(e)
}
