// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package heap

import (
	"testing"

	"github.com/artlang/art/v1/value"
)

func TestRegisterDecStrongReclaims(t *testing.T) {
	tab := New()
	h := tab.Register(value.Int(42), Arena{}, value.HeapNone)

	if !tab.IsAlive(h) {
		t.Fatal("freshly registered object should be alive")
	}

	res := tab.DecStrong(h)
	if !res.DiedNow {
		t.Fatal("expected the single strong ref to take the object to zero")
	}
	if tab.IsAlive(h) {
		t.Error("object should no longer be alive after its only strong ref drops")
	}
	if _, ok := tab.Get(h); ok {
		t.Error("object with zero weak refs should be fully reclaimed, not just marked dead")
	}
}

func TestWeakKeepsSlotUntilDecWeak(t *testing.T) {
	tab := New()
	h := tab.Register(value.Int(1), Arena{}, value.HeapNone)
	tab.IncWeak(h)

	tab.DecStrong(h)
	if _, ok := tab.Get(h); !ok {
		t.Fatal("object with an outstanding weak ref must survive strong death")
	}
	if tab.IsAlive(h) {
		t.Error("object should be marked non-alive once strong hits zero")
	}

	tab.DecWeak(h)
	if _, ok := tab.Get(h); ok {
		t.Error("object should be reclaimed once its last weak ref drops too")
	}
}

func TestUpgradeWeakAfterDeath(t *testing.T) {
	tab := New()
	h := tab.Register(value.Int(1), Arena{}, value.HeapNone)
	tab.IncWeak(h)
	tab.DecStrong(h)

	opt := tab.UpgradeWeak(h)
	if opt.Present {
		t.Error("upgrading a weak ref to a dead object must report absent (P7)")
	}
	m := tab.SnapshotMetrics()
	if m.WeakDangling != 1 {
		t.Errorf("expected weak_dangling=1, got %d", m.WeakDangling)
	}
}

func TestGetUnownedAfterDeath(t *testing.T) {
	tab := New()
	h := tab.Register(value.Int(1), Arena{}, value.HeapNone)
	tab.IncUnowned(h)
	tab.DecStrong(h)

	res := tab.GetUnowned(h)
	if res.Present {
		t.Error("resolving an unowned ref to a dead object must report absent (P8)")
	}
	m := tab.SnapshotMetrics()
	if m.UnownedDangling != 1 {
		t.Errorf("expected unowned_dangling=1, got %d", m.UnownedDangling)
	}
}

func TestSanityCapClampsStrongCount(t *testing.T) {
	tab := NewWithSanityCap(5)
	h := tab.Register(value.Int(1), Arena{}, value.HeapNone)
	for i := 0; i < 10; i++ {
		tab.IncStrong(h)
	}
	o, ok := tab.Get(h)
	if !ok {
		t.Fatal("object should still be present")
	}
	if o.Strong > 5 {
		t.Errorf("strong count should clamp at sanity cap 5, got %d", o.Strong)
	}
}

func TestCompositeChildPinning(t *testing.T) {
	tab := New()
	child := tab.Register(value.Int(1), Arena{}, value.HeapNone)

	c := value.NewArray([]value.Value{value.HeapRef(child)})
	_ = tab.RegisterComposite(c, Arena{})

	o, _ := tab.Get(child)
	if o.Strong != 2 {
		t.Errorf("composite registration should pin its heap-composite child, expected strong=2, got %d", o.Strong)
	}
}

func TestArenaFinalizationSequence(t *testing.T) {
	tab := New()
	arenaID := ArenaID(7)
	h := tab.Register(value.Int(1), Arena{ID: arenaID, Tagged: true}, value.HeapNone)
	tab.IncStrong(h) // outstanding external strong ref, spec.md §4.2 "external reference"

	live := tab.LiveInArena(arenaID)
	if len(live) != 1 || live[0] != h {
		t.Fatalf("expected %v in LiveInArena, got %v", h, live)
	}

	tab.ForceStrongOne(h)
	res := tab.DecStrong(h)
	if !res.DiedNow {
		t.Fatal("forcing strong to 1 then decrementing once should kill the object regardless of prior strong count")
	}

	// DecStrong already reclaimed the object (it had no weak refs), so the
	// arena sweep finds nothing left to remove.
	removed := tab.SweepArena(arenaID)
	if removed != 0 {
		t.Errorf("expected SweepArena to remove 0 objects, got %d", removed)
	}
	if tab.IsAlive(h) {
		t.Error("object should be dead after arena finalization")
	}
}

func TestCheckInvariants(t *testing.T) {
	tab := New()
	tab.Register(value.Int(1), Arena{}, value.HeapNone)
	if !tab.CheckInvariants() {
		t.Error("a table with only well-formed live objects should pass CheckInvariants")
	}
}
