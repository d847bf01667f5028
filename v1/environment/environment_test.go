// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package environment

import (
	"reflect"
	"testing"

	"github.com/artlang/art/v1/value"
)

func TestLookupWalksParentChain(t *testing.T) {
	root := New(nil)
	root.Define("x", value.Int(1))
	child := Push(root)
	child.Define("y", value.Int(2))

	if v, ok := child.Lookup("x"); !ok || v.I != 1 {
		t.Fatalf("child should see parent's 'x', got %v ok=%v", v, ok)
	}
	if _, ok := root.Lookup("y"); ok {
		t.Error("parent must not see child's bindings")
	}
}

func TestExitDecrementsInOrder(t *testing.T) {
	var dropped []value.Handle
	dec := func(h value.Handle) { dropped = append(dropped, h) }

	root := New(dec)
	root.Define("a", value.HeapRef(value.Handle(1)))
	root.Define("b", value.HeapRef(value.Handle(2)))
	root.Exit()

	want := []value.Handle{1, 2}
	if !reflect.DeepEqual(dropped, want) {
		t.Errorf("expected drop order %v, got %v", want, dropped)
	}
	if len(root.StrongHandles()) != 0 {
		t.Error("Exit should clear strong_handles")
	}
}

func TestRebindDecrementsOldValueOnce(t *testing.T) {
	var dropped []value.Handle
	dec := func(h value.Handle) { dropped = append(dropped, h) }

	e := New(dec)
	e.Define("x", value.HeapRef(value.Handle(1)))
	e.Define("x", value.HeapRef(value.Handle(2)))

	if !reflect.DeepEqual(dropped, []value.Handle{1}) {
		t.Fatalf("rebinding should decrement the old value exactly once, got %v", dropped)
	}

	e.Exit()
	if !reflect.DeepEqual(dropped, []value.Handle{1, 2}) {
		t.Errorf("scope exit should still decrement the current value, got %v", dropped)
	}
}

func TestAdoptPromotedMergesIntoRoot(t *testing.T) {
	root := New(nil)
	root.AdoptPromoted(map[string]value.Value{"p": value.Int(9)}, []value.Handle{5})

	if v, ok := root.Lookup("p"); !ok || v.I != 9 {
		t.Fatalf("expected promoted binding 'p'=9, got %v ok=%v", v, ok)
	}
	if !reflect.DeepEqual(root.StrongHandles(), []value.Handle{5}) {
		t.Errorf("expected promoted handle [5], got %v", root.StrongHandles())
	}
}
