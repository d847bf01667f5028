// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import "testing"

func TestRecordAndGather(t *testing.T) {
	reg := New()
	reg.Record(Snapshot{
		HandledErrors:            2,
		ExecutedStatements:       10,
		CrashFree:                80,
		ObjectsFinalizedPerArena: map[uint32]int{1: 3},
	})

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"art_handled_errors", "art_executed_statements", "art_crash_free", "art_objects_finalized_per_arena"} {
		if !names[want] {
			t.Errorf("expected gathered metric %q, got %v", want, names)
		}
	}
}
