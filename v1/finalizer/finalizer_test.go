// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package finalizer

import (
	"testing"

	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/environment"
	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/value"
)

func newTestEngine(t *testing.T, exec ExecFunc, checkInvariants bool) (*Engine, *heap.Table) {
	t.Helper()
	h := heap.New()
	sink := &diag.Sink{}
	root := environment.New(nil)
	return New(h, root, sink, exec, checkInvariants), h
}

func TestDecrementSkipsFinalizerForScalarKinds(t *testing.T) {
	var ran bool
	exec := func(frame *environment.Env, fn *value.Function) []diag.Diagnostic {
		ran = true
		return nil
	}
	e, h := newTestEngine(t, exec, false)

	cell := h.Register(value.Int(1), heap.Arena{}, value.HeapAtomic)
	e.RegisterFinalizer(cell, &value.Function{})
	e.Decrement(cell)

	if ran {
		t.Error("Atomic/Mutex cells must never dispatch a finalizer (spec.md §4.4 skipping rule)")
	}
}

func TestDecrementDispatchesFinalizerAndPromotes(t *testing.T) {
	exec := func(frame *environment.Env, fn *value.Function) []diag.Diagnostic {
		frame.Define("promoted", value.HeapRef(value.Handle(999)))
		return nil
	}
	e, h := newTestEngine(t, exec, true)

	target := h.RegisterComposite(value.NewArray(nil), heap.Arena{})
	e.RegisterFinalizer(target, &value.Function{})

	e.Decrement(target)

	m := e.Metrics()
	if m.Promotions != 1 {
		t.Fatalf("expected 1 promotion, got %d", m.Promotions)
	}
}

func TestRegisterFinalizerIgnoresDeadHandle(t *testing.T) {
	var ran bool
	exec := func(frame *environment.Env, fn *value.Function) []diag.Diagnostic {
		ran = true
		return nil
	}
	e, h := newTestEngine(t, exec, false)

	target := h.RegisterComposite(value.NewArray(nil), heap.Arena{})
	h.DecStrong(target) // already dead before registration

	e.RegisterFinalizer(target, &value.Function{})
	e.Decrement(target)

	if ran {
		t.Error("register_finalizer on a dead handle must be silently ignored (spec.md §4.4)")
	}
}

func TestDecrementRecursesIntoChildren(t *testing.T) {
	var childDecremented bool
	e, h := newTestEngine(t, func(*environment.Env, *value.Function) []diag.Diagnostic { return nil }, false)

	child := h.Register(value.Int(1), heap.Arena{}, value.HeapNone)
	parent := h.RegisterComposite(value.NewArray([]value.Value{value.HeapRef(child)}), heap.Arena{})

	// RegisterComposite pinned an extra strong ref on child; drop it back to
	// one so the parent's death fully kills it and we can observe whether
	// Decrement recursed.
	h.DecStrong(child)

	e.Decrement(parent)
	childDecremented = !h.IsAlive(child)
	if !childDecremented {
		t.Error("decrementing a composite's last strong ref should recursively decrement its children")
	}
}
