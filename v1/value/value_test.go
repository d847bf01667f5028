// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package value

import "testing"

func TestIsHeapRef(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Int(1), false},
		{Str("x"), false},
		{HeapRef(Handle(1)), true},
		{Weak(Handle(1)), true},
		{Unowned(Handle(1)), true},
		{AtomicRef(Handle(1)), true},
		{MutexRef(Handle(1)), true},
	}
	for _, c := range cases {
		if got := c.v.IsHeapRef(); got != c.want {
			t.Errorf("%v.IsHeapRef() = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	if !Bool(true).Truthy() {
		t.Error("Bool(true) should be truthy")
	}
	if Bool(false).Truthy() {
		t.Error("Bool(false) should not be truthy")
	}
	if Opt(Absent()).Truthy() {
		t.Error("Absent optional should not be truthy")
	}
	if !Opt(Some(Int(1))).Truthy() {
		t.Error("Some optional should be truthy")
	}
}

func TestCompositeChildren(t *testing.T) {
	c := NewArray([]Value{HeapRef(Handle(1)), Int(2), HeapRef(Handle(3))})
	children := c.Children()
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	var heapKids int
	for _, ch := range children {
		if ch.Kind == KindHeapComposite {
			heapKids++
		}
	}
	if heapKids != 2 {
		t.Errorf("expected 2 heap-composite children, got %d", heapKids)
	}
}

func TestStructGetField(t *testing.T) {
	c := NewStruct("Point", []FieldValue{{Name: "x", Value: Int(1)}, {Name: "y", Value: Int(2)}})
	v, ok := c.Get("y")
	if !ok || v.I != 2 {
		t.Fatalf("expected field y=2, got %v ok=%v", v, ok)
	}
	if _, ok := c.Get("z"); ok {
		t.Error("expected no field z")
	}
}
