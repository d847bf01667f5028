// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cycle

import (
	"testing"

	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/value"
)

func TestReportIsPure(t *testing.T) {
	h := heap.New()
	h.Register(value.Int(1), heap.Arena{}, value.HeapNone)
	a := New(h)

	r1 := a.Report()
	r2 := a.Report()

	if r1.HeapAliveSize != r2.HeapAliveSize {
		t.Errorf("Report must not mutate heap state between calls: %d != %d", r1.HeapAliveSize, r2.HeapAliveSize)
	}
	if a.ReportsRun() != 2 {
		t.Errorf("expected reports_run=2, got %d", a.ReportsRun())
	}
}

func TestDetectCyclesNoCycleForAcyclicGraph(t *testing.T) {
	h := heap.New()
	child := h.RegisterComposite(value.NewArray(nil), heap.Arena{})
	h.RegisterComposite(value.NewArray([]value.Value{value.HeapRef(child)}), heap.Arena{})

	a := New(h)
	cycles := a.DetectCycles()
	if len(cycles) != 0 {
		t.Errorf("expected no cycles in a DAG, got %d", len(cycles))
	}
}

// TestDetectCyclesFindsMutualReference builds two struct objects whose
// fields point at each other, forming a strongly-connected component of
// size 2 unreachable from any root (spec.md §4.5 "Detection").
func TestDetectCyclesFindsMutualReference(t *testing.T) {
	h := heap.New()

	// A fresh Table hands out handles sequentially starting at 1, so the
	// handle RegisterComposite is about to return can be predicted one
	// call ahead — the only way to build a forward reference to an
	// object that does not exist yet.
	dummy := h.Register(value.Int(0), heap.Arena{}, value.HeapNone)
	predictedA := value.Handle(uint64(dummy) + 2)

	bStruct := value.NewStruct("Node", []value.FieldValue{{Name: "next", Value: value.HeapRef(predictedA)}})
	bHandle := h.RegisterComposite(bStruct, heap.Arena{})

	aStruct := value.NewStruct("Node", []value.FieldValue{{Name: "next", Value: value.HeapRef(bHandle)}})
	aHandle := h.RegisterComposite(aStruct, heap.Arena{})

	if aHandle != predictedA {
		t.Fatalf("handle prediction assumption broke: predicted %d, got %d", predictedA, aHandle)
	}

	a := New(h)
	cycles := a.DetectCycles()
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 strongly-connected component, got %d", len(cycles))
	}
	c := cycles[0]
	if len(c.Members) != 2 {
		t.Errorf("expected a 2-member cycle, got %d members", len(c.Members))
	}
	if !c.Isolated {
		t.Error("a mutually-referencing pair with no external in-edge should be isolated")
	}
	if !c.LeakCandidate {
		t.Error("an isolated SCC unreachable from any root should be a leak candidate")
	}
}
