// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package actor

import (
	"testing"

	"github.com/artlang/art/v1/value"
)

func TestSendReceiveFIFO(t *testing.T) {
	m := New(true)
	h := value.Handle(1)

	if ok := m.Send(h, value.Int(1)); !ok {
		t.Fatal("send should succeed when enabled")
	}
	m.Send(h, value.Int(2))

	v, ok := m.Receive(h)
	if !ok || v.I != 1 {
		t.Fatalf("expected first message 1, got %v ok=%v", v, ok)
	}
	v, ok = m.Receive(h)
	if !ok || v.I != 2 {
		t.Fatalf("expected second message 2, got %v ok=%v", v, ok)
	}
	if _, ok := m.Receive(h); ok {
		t.Fatal("expected empty mailbox after draining")
	}
}

func TestDisabledManagerRejects(t *testing.T) {
	m := New(false)
	h := value.Handle(1)
	if m.Send(h, value.Int(1)) {
		t.Fatal("send should fail when disabled")
	}
	if _, ok := m.Receive(h); ok {
		t.Fatal("receive should fail when disabled")
	}
}
