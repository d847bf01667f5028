// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package arena

import (
	"testing"

	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/value"
)

type recordingDec struct {
	h *heap.Table
}

func (d recordingDec) Decrement(h value.Handle) { d.h.DecStrong(h) }

func TestEnterExitFinalizesArenaMembers(t *testing.T) {
	h := heap.New()
	m := New(h, recordingDec{h})

	id := m.Enter()
	cur := m.Current()
	if !cur.Tagged || cur.ID != id {
		t.Fatalf("Current() should report the just-entered arena, got %+v", cur)
	}

	obj := h.Register(value.Int(1), heap.Arena{ID: id, Tagged: true}, value.HeapNone)
	h.IncStrong(obj) // outstanding external strong ref

	m.Exit(id)

	if h.IsAlive(obj) {
		t.Error("arena exit should finalize every member regardless of outstanding strong refs")
	}
	if cur2 := m.Current(); cur2.Tagged {
		t.Errorf("Current() after Exit should be untagged, got %+v", cur2)
	}

	metrics := m.SnapshotMetrics()[id]
	if metrics.Allocations != 1 {
		t.Errorf("expected 1 allocation recorded for arena %d, got %d", id, metrics.Allocations)
	}
}

func TestCheckEscapeDetectsCrossArenaBinding(t *testing.T) {
	obj := heap.Object{Arena: heap.Arena{ID: 1, Tagged: true}}
	v := value.HeapRef(value.Handle(1))

	d, escaped := CheckEscape(v, obj, heap.Arena{ID: 2, Tagged: true}, "bind")
	if !escaped {
		t.Fatal("binding an arena-1 object while arena 2 is current should be flagged as an escape")
	}
	if d.Kind != diag.Runtime {
		t.Errorf("escape diagnostic should be Runtime kind, got %s", d.Kind)
	}
}

func TestCheckEscapeAllowsSameArena(t *testing.T) {
	obj := heap.Object{Arena: heap.Arena{ID: 1, Tagged: true}}
	v := value.HeapRef(value.Handle(1))

	_, escaped := CheckEscape(v, obj, heap.Arena{ID: 1, Tagged: true}, "bind")
	if escaped {
		t.Error("binding within the same arena must not be flagged")
	}
}

func TestCheckEscapeIgnoresUntaggedObjects(t *testing.T) {
	obj := heap.Object{} // not arena-tagged
	v := value.HeapRef(value.Handle(1))

	_, escaped := CheckEscape(v, obj, heap.Arena{ID: 1, Tagged: true}, "return")
	if escaped {
		t.Error("an object with no arena tag can never escape")
	}
}
