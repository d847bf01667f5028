// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package diag

import "testing"

func TestSinkTakeDrains(t *testing.T) {
	s := &Sink{}
	s.Add(Runtimef("boom"))
	s.Addf(Type, "bad field %q", "x")

	if s.Len() != 2 {
		t.Fatalf("expected 2 buffered diagnostics, got %d", s.Len())
	}

	out := s.Take()
	if len(out) != 2 {
		t.Fatalf("expected Take to return 2 diagnostics, got %d", len(out))
	}
	if s.Len() != 0 {
		t.Error("Take should drain the sink")
	}
}

func TestWithNoteAppendsWithoutMutatingOriginal(t *testing.T) {
	base := Typef("missing field 'x'")
	annotated := base.WithNote("did you mean 'y'?")

	if len(base.Notes) != 0 {
		t.Error("WithNote must not mutate the receiver in place")
	}
	if len(annotated.Notes) != 1 || annotated.Notes[0] != "did you mean 'y'?" {
		t.Errorf("expected the note attached to the returned copy, got %v", annotated.Notes)
	}
}

func TestStringIncludesNotes(t *testing.T) {
	d := Internalf("invariant failed").WithNote("handle 7")
	s := d.String()
	if s == "" {
		t.Fatal("String() should not be empty")
	}
}
