// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package heap implements the table of heap objects described in spec.md
// §3/§4.1: strong/weak reference counts, liveness, an optional arena tag,
// and an optional Atomic/Mutex kind. The table is organized the way the
// teacher's storage/arena package organizes its node table — fixed-size
// segments plus a freelist — because both problems are the same shape: a
// dense, cache-friendly, id-indexed table of small records that is mutated
// far more often than it grows.
package heap

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/artlang/art/v1/value"
)

// ArenaID identifies a performant-block region (spec.md §4.2). Monotone per
// interpreter; zero means "no arena" when Tagged is false.
type ArenaID uint32

// Arena pairs an ArenaID with whether it is actually set, mirroring the
// spec's Option<ArenaId>.
type Arena struct {
	ID     ArenaID
	Tagged bool
}

// SanityCap bounds strong/weak counts per invariant I5.
const SanityCap = 1_000_000

const (
	segmentSize = 1024
	maxSegments = 1 << 16
)

// Object mirrors the HeapObject record from spec.md §3. Stored as a
// fixed-size struct inside a segment array rather than individually heap
// allocated, the same trade-off the teacher's arena.Node makes.
//
// Exactly one of Scalar/Composite is meaningful for a live object: a
// composite literal (array/struct/enum) is stored via Composite, and every
// other heap-backed kind (Atomic cell, Mutex cell) stores its wrapped
// scalar value.Value via Scalar. Composite is a pointer because
// value.Composite is itself variably-shaped (element/field slices).
type Object struct {
	ID        value.Handle
	Scalar    value.Value
	Composite *value.Composite
	Strong    uint32
	Weak      uint32
	Alive     bool
	Arena     Arena
	Kind      value.HeapKind
	inUse     bool
}

// Table is the process-wide (or interpreter-wide) heap object table. Not
// safe for concurrent writers beyond the single-threaded evaluator's own
// use of sync.Mutex here as a matter of defensive hygiene — the arena
// storage teacher used finer-grained atomics because it serves concurrent
// readers; this table only ever has one active evaluation goroutine per
// spec.md §5, so a single mutex is the correct — not merely sufficient —
// choice.
type Table struct {
	mu        sync.Mutex
	segments  [][]Object
	index     map[value.Handle]int64 // handle -> flat slot index
	count     int64                  // total node count ever allocated (slots may be free)
	nextID    uint64
	freeHead  int64 // index into the flat id space, -1 = empty
	sanityCap uint32
	log       *logrus.Entry

	// metrics, incremented under mu.
	weakCreated     uint64
	weakUpgrades    uint64
	weakDangling    uint64
	unownedCreated  uint64
	unownedDangling uint64
}

func New() *Table {
	return NewWithSanityCap(SanityCap)
}

// NewWithSanityCap constructs a Table with a caller-chosen strong/weak
// count ceiling (invariant I5), the implementation-defined bound the CLI
// exposes as --heap-sanity-cap. A cap of zero is treated as SanityCap
// rather than "no cap", since an unbounded counter would defeat I5
// entirely.
func NewWithSanityCap(cap uint32) *Table {
	if cap == 0 {
		cap = SanityCap
	}
	return &Table{
		freeHead:  -1,
		index:     make(map[value.Handle]int64),
		sanityCap: cap,
		log:       logrus.WithField("component", "heap"),
	}
}

func (t *Table) slot(idx int64) *Object {
	seg := idx / segmentSize
	off := idx % segmentSize
	for int64(len(t.segments)) <= seg {
		t.segments = append(t.segments, make([]Object, segmentSize))
	}
	return &t.segments[seg][off]
}

// alloc returns a free slot index, reusing a tombstoned slot when possible.
func (t *Table) alloc() int64 {
	if t.freeHead != -1 {
		idx := t.freeHead
		o := t.slot(idx)
		t.freeHead = int64(o.ID) // repurposed as freelist link while free
		return idx
	}
	idx := t.count
	t.count++
	if idx/segmentSize >= maxSegments {
		panic("heap: maximum segments exceeded")
	}
	return idx
}

// Register allocates a new scalar-backed Object (an Atomic or Mutex cell)
// with strong=1, weak=0, alive=true, tagged with arena if arena.Tagged
// (spec.md §4.1 "register"/"register_in_arena"). Use RegisterComposite for
// array/struct/enum literals.
func (t *Table) Register(v value.Value, arena Arena, kind value.HeapKind) value.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.newObjectLocked(arena)
	o := t.objectLocked(id)
	o.Scalar = v
	o.Kind = kind

	t.log.WithFields(logrus.Fields{"handle": uint64(id), "arena": arena, "kind": kind}).Debug("registered scalar heap object")
	return id
}

// RegisterComposite allocates a new Object backing an array, struct, or
// enum literal. Strong composite children (spec.md §3 "Composite
// variants") one level deep are pinned by incrementing their strong
// counts, matching spec.md §4.1 "register"'s child-pinning behavior.
func (t *Table) RegisterComposite(c value.Composite, arena Arena) value.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.newObjectLocked(arena)
	o := t.objectLocked(id)
	o.Composite = &c

	for _, child := range childHandles(&c) {
		t.incStrongLocked(child)
	}

	t.log.WithFields(logrus.Fields{"handle": uint64(id), "arena": arena}).Debug("registered composite heap object")
	return id
}

// newObjectLocked allocates a fresh slot and id, initializing the common
// Object fields. Callers finish populating Scalar/Composite/Kind.
func (t *Table) newObjectLocked(arena Arena) value.Handle {
	idx := t.alloc()
	t.nextID++
	id := value.Handle(t.nextID)

	o := t.slot(idx)
	*o = Object{
		ID:     id,
		Strong: 1,
		Weak:   0,
		Alive:  true,
		Arena:  arena,
		inUse:  true,
	}
	t.indexSet(id, idx)
	return id
}

// --- id -> slot index index ---
//
// A direct map keeps Register/lookups O(1) without requiring ids to equal
// slot indices (ids must never be reused, slots are).
func (t *Table) indexSet(id value.Handle, idx int64) {
	if t.index == nil {
		t.index = make(map[value.Handle]int64)
	}
	t.index[id] = idx
}

func (t *Table) objectLocked(h value.Handle) *Object {
	idx, ok := t.index[h]
	if !ok {
		return nil
	}
	o := t.slot(idx)
	if !o.inUse || o.ID != h {
		return nil
	}
	return o
}

// Get returns a copy of the object for h, if present.
func (t *Table) Get(h value.Handle) (Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil {
		return Object{}, false
	}
	return *o, true
}

// IsAlive reports whether h currently resolves to a live object.
func (t *Table) IsAlive(h value.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	return o != nil && o.Alive
}

// GetScalar returns the scalar payload of an Atomic or Mutex cell.
func (t *Table) GetScalar(h value.Handle) (value.Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil || !o.Alive {
		return value.Value{}, false
	}
	return o.Scalar, true
}

// SetScalar overwrites the scalar payload of an Atomic or Mutex cell.
func (t *Table) SetScalar(h value.Handle, v value.Value) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil || !o.Alive {
		return false
	}
	o.Scalar = v
	return true
}

// AtomicAdd adds delta to an Atomic cell's Int payload under the table's
// single lock, reporting the new value and whether it overflowed
// int64 — spec.md §5 "atomic_add overflow".
func (t *Table) AtomicAdd(h value.Handle, delta int64) (newVal int64, overflowed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil || !o.Alive {
		return 0, false
	}
	cur := o.Scalar.I
	sum := cur + delta
	if (delta > 0 && sum < cur) || (delta < 0 && sum > cur) {
		return cur, true
	}
	o.Scalar.I = sum
	return sum, false
}

func (t *Table) clampInc(n uint32) uint32 {
	if n >= t.sanityCap {
		return n
	}
	return n + 1
}

// IncStrong increments h's strong count (invariant I5 bounded).
func (t *Table) IncStrong(h value.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.incStrongLocked(h)
}

func (t *Table) incStrongLocked(h value.Handle) {
	o := t.objectLocked(h)
	if o == nil {
		return
	}
	o.Strong = t.clampInc(o.Strong)
}

// IncWeak increments h's weak count.
func (t *Table) IncWeak(h value.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil {
		return
	}
	o.Weak = t.clampInc(o.Weak)
	t.weakCreated++
}

// IncUnowned records the creation of an unowned reference. Unowned
// references do not hold a count of their own (spec.md never lists an
// "unowned" counter on HeapObject) — they observe liveness via Alive,
// which strong/weak transitions already maintain — but the metric still
// needs tracking for the CLI metrics surface (spec.md §6).
func (t *Table) IncUnowned(h value.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unownedCreated++
}

// DecWeak decrements h's weak count, clamped at zero.
func (t *Table) DecWeak(h value.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil || o.Weak == 0 {
		return
	}
	o.Weak--
	if !o.Alive && o.Weak == 0 {
		t.reclaimLocked(o.ID)
	}
}

// DecStrongResult reports what happened to a DecStrong call, letting the
// caller (package finalizer, which owns the recursive decrement algorithm
// of spec.md §4.4) decide whether to run finalizer dispatch and which
// children to recurse into.
type DecStrongResult struct {
	DiedNow   bool            // strong count transitioned 1 -> 0 on this call
	Scalar    value.Value     // the object's scalar payload, if it was scalar-backed
	Composite *value.Composite // the object's composite payload, if it was composite-backed
	Children  []value.Handle  // strong composite children of the dead object
	Kind      value.HeapKind
	Arena     Arena
}

// DecStrong decrements h's strong count. If it reaches zero the object is
// marked non-alive and its value/children are returned so the caller can
// run finalizer dispatch and recurse into children, per spec.md §3
// "Lifecycles" and §4.4.
func (t *Table) DecStrong(h value.Handle) DecStrongResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	o := t.objectLocked(h)
	if o == nil || o.Strong == 0 {
		return DecStrongResult{}
	}

	o.Strong--
	if o.Strong > 0 {
		return DecStrongResult{}
	}

	o.Alive = false
	res := DecStrongResult{
		DiedNow:   true,
		Scalar:    o.Scalar,
		Composite: o.Composite,
		Children:  childHandles(o.Composite),
		Kind:      o.Kind,
		Arena:     o.Arena,
	}

	if o.Weak == 0 {
		t.reclaimLocked(h)
	}
	return res
}

// reclaimLocked removes the object from the table. Called once
// non-alive && weak==0 holds, per spec.md §3 "Lifecycles" final sentence.
func (t *Table) reclaimLocked(h value.Handle) {
	idx, ok := t.index[h]
	if !ok {
		return
	}
	o := t.slot(idx)
	o.inUse = false
	o.ID = value.Handle(t.freeHead) // freelist link
	t.freeHead = idx
	delete(t.index, h)
}

// UpgradeWeak implements spec.md §4.1 "upgrade_weak": returns the value
// wrapped present iff alive (P7), else absent, and tracks weak_dangling.
func (t *Table) UpgradeWeak(h value.Handle) value.Optional {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.weakUpgrades++
	o := t.objectLocked(h)
	if o == nil || !o.Alive {
		t.weakDangling++
		return value.Absent()
	}
	return value.Some(value.HeapRef(h))
}

// GetUnownedResult is the outcome of resolving an UnownedRef.
type GetUnownedResult struct {
	Value   value.Value
	Present bool
}

// GetUnowned implements spec.md §4.1 "get_unowned": returns the value if
// alive, else absent plus a signal the caller turns into a Runtime
// diagnostic and an incremented unowned_dangling counter (P8).
func (t *Table) GetUnowned(h value.Handle) GetUnownedResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	o := t.objectLocked(h)
	if o == nil || !o.Alive {
		t.unownedDangling++
		return GetUnownedResult{}
	}
	return GetUnownedResult{Value: value.HeapRef(h), Present: true}
}

// Metrics snapshots the counters named in spec.md §6 that this table owns.
type Metrics struct {
	WeakCreated     uint64
	WeakUpgrades    uint64
	WeakDangling    uint64
	UnownedCreated  uint64
	UnownedDangling uint64
}

func (t *Table) SnapshotMetrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Metrics{
		WeakCreated:     t.weakCreated,
		WeakUpgrades:    t.weakUpgrades,
		WeakDangling:    t.weakDangling,
		UnownedCreated:  t.unownedCreated,
		UnownedDangling: t.unownedDangling,
	}
}

// LiveCount returns the number of currently alive objects, regardless of
// arena tag. Nothing in this module calls it; the cycle analyzer counts
// alive objects itself through Each.
func (t *Table) LiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id := range t.index {
		if o := t.objectLocked(id); o != nil && o.Alive {
			n++
		}
	}
	return n
}

// Each calls fn for every in-use object (alive or not), in unspecified
// order. The cycle analyzer uses it (directly and through EachAlive);
// arena finalization scans with LiveInArena instead.
func (t *Table) Each(fn func(Object)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.index {
		if o := t.objectLocked(id); o != nil {
			fn(*o)
		}
	}
}

// EachAlive calls fn for every currently alive object.
func (t *Table) EachAlive(fn func(Object)) {
	t.Each(func(o Object) {
		if o.Alive {
			fn(o)
		}
	})
}

// StrongChildren returns the direct strong-composite children of h (empty
// if h does not resolve to a live composite object), for use by the
// cycle analyzer's graph construction (spec.md §4.5 "detect_cycles").
func (t *Table) StrongChildren(h value.Handle) []value.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.objectLocked(h)
	if o == nil {
		return nil
	}
	return childHandles(o.Composite)
}

// LiveInArena returns the handles of every currently alive object tagged
// with arena id — step (1) of arena finalization, spec.md §4.2
// "snapshot the set S of live object ids with arena == id".
func (t *Table) LiveInArena(id ArenaID) []value.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []value.Handle
	for hid, idx := range t.index {
		o := t.slot(idx)
		if o.inUse && o.ID == hid && o.Alive && o.Arena.Tagged && o.Arena.ID == id {
			out = append(out, hid)
		}
	}
	return out
}

// ForceStrongOne resets h's strong count to 1 regardless of its current
// value, used by arena finalization step (2) (spec.md §4.2: "for each h
// in S, set strong to 1 then invoke the recursive strong-decrement") so
// that every arena member dies through the ordinary one-decrement path
// no matter how many outstanding strong refs it accumulated.
func (t *Table) ForceStrongOne(h value.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if o := t.objectLocked(h); o != nil {
		o.Strong = 1
	}
}

// SweepArena removes every non-alive, zero-weak object tagged with arena
// id — step (3) of arena finalization, spec.md §4.2.
func (t *Table) SweepArena(id ArenaID) (removed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var dead []value.Handle
	for hid, idx := range t.index {
		o := t.slot(idx)
		if o.inUse && o.ID == hid && o.Arena.Tagged && o.Arena.ID == id && !o.Alive && o.Weak == 0 {
			dead = append(dead, hid)
		}
	}
	for _, hid := range dead {
		t.reclaimLocked(hid)
	}
	return len(dead)
}

// Sweep removes every non-alive, zero-weak object from the table — the
// "global dead-sweep" named in spec.md §4.2 step (5) and §5 "Ordering
// guarantees".
func (t *Table) Sweep() (removed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var dead []value.Handle
	for id, idx := range t.index {
		o := t.slot(idx)
		if o.inUse && o.ID == id && !o.Alive && o.Weak == 0 {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		t.reclaimLocked(id)
	}
	return len(dead)
}

// Normalize marks any residual object with strong==0 && alive==true as
// non-alive — the hardening step of spec.md §4.2 step (4), which should be
// unreachable in a correct implementation but guards against it anyway.
func (t *Table) Normalize() (fixed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.index {
		o := t.objectLocked(id)
		if o != nil && o.Strong == 0 && o.Alive {
			o.Alive = false
			fixed++
			if o.Weak == 0 {
				t.reclaimLocked(id)
			}
		}
	}
	return fixed
}

// CheckInvariants verifies P1/P2 over the current table, for the post-pass
// named in spec.md §4.4 ("Invariant check failed after finalizer
// promotion").
func (t *Table) CheckInvariants() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.index {
		o := t.objectLocked(id)
		if o == nil {
			continue
		}
		if o.Alive && o.Strong < 1 {
			return false
		}
		if o.Strong == 0 && o.Alive {
			return false
		}
		for _, child := range childHandles(o.Composite) {
			if _, ok := t.index[child]; !ok {
				return false
			}
		}
	}
	return true
}

// childHandles returns the direct HeapComposite handles reachable one
// level into a composite payload: array elements, struct field values, and
// enum payload values that are themselves KindHeapComposite. Weak and
// unowned child references are deliberately excluded — they never hold a
// strong count and must not be pinned or recursed into. This is the "walk
// the value one level deep" step from spec.md §4.1, used both to pin
// child liveness on register and to recurse on death.
func childHandles(c *value.Composite) []value.Handle {
	if c == nil {
		return nil
	}
	var out []value.Handle
	for _, child := range c.Children() {
		if child.Kind == value.KindHeapComposite {
			out = append(out, child.Heap)
		}
	}
	return out
}
