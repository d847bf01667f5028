// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package aot

import "testing"

// TestScoreScenarioS6 pins down spec.md §8 S6 exactly: foo ranked first
// (score 5+2*3=11), bar second (score 2+2*4=10), baz excluded (1 < 3).
func TestScoreScenarioS6(t *testing.T) {
	p := &Profile{
		Functions: map[string]uint64{"foo": 5, "bar": 2, "baz": 1},
		Edges: []Edge{
			{Caller: "<root>", Callee: "foo", Count: 3},
			{Caller: "foo", Callee: "bar", Count: 4},
		},
	}
	plan, err := Score(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.InlineCandidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(plan.InlineCandidates), plan.InlineCandidates)
	}
	if plan.InlineCandidates[0].Name != "foo" || plan.InlineCandidates[0].Score != 11 {
		t.Errorf("expected foo first with score 11, got %+v", plan.InlineCandidates[0])
	}
	if plan.InlineCandidates[1].Name != "bar" || plan.InlineCandidates[1].Score != 10 {
		t.Errorf("expected bar second with score 10, got %+v", plan.InlineCandidates[1])
	}
}

func TestScoreExcludesRecursion(t *testing.T) {
	p := &Profile{
		Functions: map[string]uint64{"loop": 100},
		Edges:     []Edge{{Caller: "loop", Callee: "loop", Count: 50}},
	}
	plan, err := Score(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.InlineCandidates) != 0 {
		t.Fatalf("expected recursive function excluded, got %+v", plan.InlineCandidates)
	}
}

func TestLoadProfileEdgesMap(t *testing.T) {
	bs := []byte(`{"functions":{"foo":5,"bar":2},"edges_map":{"<root>->foo":3}}`)
	p, err := LoadProfile(bs)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Edges) != 1 || p.Edges[0].Caller != "<root>" || p.Edges[0].Callee != "foo" || p.Edges[0].Count != 3 {
		t.Errorf("unexpected edges: %+v", p.Edges)
	}
}

func TestNormalizeClampsAndDedupes(t *testing.T) {
	plan := &Plan{InlineCandidates: []Candidate{
		{
			Name:  "f",
			Score: 2_000_000,
			CallerExamples: []CallerExample{
				{Caller: "a", Count: 1},
				{Caller: "a", Count: 2},
			},
		},
	}}
	Normalize(plan, nil)
	if plan.InlineCandidates[0].Score != maxClampedScore {
		t.Errorf("expected score clamped to %d, got %d", maxClampedScore, plan.InlineCandidates[0].Score)
	}
	if len(plan.InlineCandidates[0].CallerExamples) != 1 || plan.InlineCandidates[0].CallerExamples[0].Count != 3 {
		t.Errorf("expected deduped caller example with summed count 3, got %+v", plan.InlineCandidates[0].CallerExamples)
	}
}
