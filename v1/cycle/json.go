// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cycle

import "encoding/json"

// MarshalJSON renders a BreakEdge as the two-element array spec.md §6
// requires ("suggested edges as two-element arrays") rather than an
// object, so golden JSON diffs match byte-for-byte.
func (b BreakEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint64{b.From, b.To})
}

// MarshalJSON renders a RankedSuggestion as `[from,to,score]` (spec.md §6
// "ranked suggestions as [from,to,score]").
func (r RankedSuggestion) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int64{int64(r.From), int64(r.To), int64(r.Score)})
}

// cycleJSON mirrors Cycle with explicit field names/order for the
// cycle-report JSON surface.
type cycleJSON struct {
	Members             []uint64           `json:"members"`
	Isolated            bool               `json:"isolated"`
	ReachableFromRoot   bool               `json:"reachable_from_root"`
	LeakCandidate       bool               `json:"leak_candidate"`
	SuggestedBreakEdges []BreakEdge        `json:"suggested_break_edges"`
	RankedSuggestions   []RankedSuggestion `json:"ranked_suggestions"`
}

func (c Cycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(cycleJSON{
		Members:             c.Members,
		Isolated:            c.Isolated,
		ReachableFromRoot:   c.ReachableFromRoot,
		LeakCandidate:       c.LeakCandidate,
		SuggestedBreakEdges: c.SuggestedBreakEdges,
		RankedSuggestions:   c.RankedSuggestions,
	})
}

// FullReport bundles cycle_report() and detect_cycles() into a single
// JSON document (spec.md §4.5
// "Serialization": "a compact JSON form and a prettified form ... both
// produced; field order is stable for test diffs").
type FullReport struct {
	Report
	Cycles []Cycle `json:"cycles"`
}

// Compact renders f as single-line JSON.
func (f FullReport) Compact() ([]byte, error) {
	return json.Marshal(f)
}

// Pretty renders f as indent-2 JSON.
func (f FullReport) Pretty() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Full computes both cycle_report() and detect_cycles() in one call.
func (a *Analyzer) Full() FullReport {
	return FullReport{Report: a.Report(), Cycles: a.DetectCycles()}
}
