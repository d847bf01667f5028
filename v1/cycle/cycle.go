// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cycle implements the heuristic cycle detector of spec.md §4.5:
// a Tarjan SCC pass over the heap's strong-composite edge graph, plus a
// lighter-weight cycle_report summarizing ref-count health. Neither
// operation declares anything semantically — both are heuristics the CLI
// surfaces to a developer hunting a suspected leak.
package cycle

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/value"
)

// Analyzer runs detect_cycles/cycle_report against a heap.Table. It keeps
// a process-wide leak-candidate counter and an invocation counter (for
// R3's purity check and the CLI's cycle_reports_run metric).
type Analyzer struct {
	heap *heap.Table

	leakCandidates int64
	reportsRun     int64
}

func New(h *heap.Table) *Analyzer {
	return &Analyzer{heap: h}
}

// RefCounts summarizes weak or unowned reference health, approximated
// structurally from the heap table per spec.md §4.5 ("this is a
// heuristic, not a semantic declaration"): Alive/Dead are computed from
// currently-resident objects' counters, Dangling from the heap's
// cumulative dangling-access metric.
type RefCounts struct {
	Total    int `json:"total"`
	Alive    int `json:"alive"`
	Dead     int `json:"dead"`
	Dangling int `json:"dangling"`
}

// OwnerEdge is a candidate owner/parent edge surfaced by cycle_report: a
// StructInstance field whose lower-cased name contains "parent" or
// "owner", pointing at another live composite.
type OwnerEdge struct {
	From  uint64 `json:"from"`
	Field string `json:"field"`
	To    uint64 `json:"to"`
}

// Report is the cycle_report() output (spec.md §4.5 "Report structure").
type Report struct {
	WeakRefs           RefCounts   `json:"weak_refs"`
	UnownedRefs        RefCounts   `json:"unowned_refs"`
	FinalizedCount     int         `json:"finalized_count"`
	HeapAliveSize      int         `json:"heap_alive_size"`
	AvgInDegree        float64     `json:"avg_in_degree"`
	AvgOutDegree       float64     `json:"avg_out_degree"`
	CandidateOwnerEdges []OwnerEdge `json:"candidate_owner_edges"`
}

// Report computes cycle_report() without mutating heap state other than
// this Analyzer's own invocation counter (R3).
func (a *Analyzer) Report() Report {
	atomic.AddInt64(&a.reportsRun, 1)

	hm := a.heap.SnapshotMetrics()
	weak := RefCounts{Dangling: int(hm.WeakDangling)}
	unowned := RefCounts{Total: int(hm.UnownedCreated), Dangling: int(hm.UnownedDangling)}

	finalized := 0
	aliveSize := 0
	nodeCount, edgeCount := 0, 0
	var owners []OwnerEdge

	a.heap.Each(func(o heap.Object) {
		weak.Total += int(o.Weak)
		if o.Alive {
			weak.Alive += int(o.Weak)
		} else {
			weak.Dead += int(o.Weak)
			finalized++
		}
		if !o.Alive {
			return
		}
		aliveSize++
		if o.Composite == nil {
			return
		}
		children := a.heap.StrongChildren(o.ID)
		nodeCount++
		edgeCount += len(children)
		if o.Composite.Kind == value.CompositeStruct {
			for _, f := range o.Composite.Fields {
				if f.Value.Kind != value.KindHeapComposite {
					continue
				}
				lower := strings.ToLower(f.Name)
				if strings.Contains(lower, "parent") || strings.Contains(lower, "owner") {
					owners = append(owners, OwnerEdge{From: uint64(o.ID), Field: f.Name, To: uint64(f.Value.Heap)})
				}
			}
		}
	})
	unowned.Alive = unowned.Total - unowned.Dangling
	if unowned.Alive < 0 {
		unowned.Alive = 0
	}

	var avgIn, avgOut float64
	if nodeCount > 0 {
		avgIn = float64(edgeCount) / float64(nodeCount)
		avgOut = avgIn
	}

	return Report{
		WeakRefs:            weak,
		UnownedRefs:         unowned,
		FinalizedCount:      finalized,
		HeapAliveSize:       aliveSize,
		AvgInDegree:         avgIn,
		AvgOutDegree:        avgOut,
		CandidateOwnerEdges: owners,
	}
}

// ReportsRun returns the number of times Report has been invoked, the
// `cycle_reports_run` metric (spec.md §6).
func (a *Analyzer) ReportsRun() int64 {
	return atomic.LoadInt64(&a.reportsRun)
}

// LeakCandidates returns the running count of SCCs classified as leak
// candidates across all DetectCycles calls.
func (a *Analyzer) LeakCandidates() int64 {
	return atomic.LoadInt64(&a.leakCandidates)
}

// RankedSuggestion is one (from,to,score) triple from
// Cycle.RankedSuggestions.
type RankedSuggestion struct {
	From  uint64
	To    uint64
	Score int
}

// BreakEdge is one suggested-break edge: an internal out-edge of the
// SCC's first node.
type BreakEdge struct {
	From uint64
	To   uint64
}

// Cycle is one reported strongly-connected component (spec.md §4.5
// "Detection").
type Cycle struct {
	Members             []uint64
	Isolated            bool
	ReachableFromRoot    bool
	LeakCandidate        bool
	SuggestedBreakEdges  []BreakEdge
	RankedSuggestions    []RankedSuggestion
}

// DetectCycles implements spec.md §4.5 "Detection": builds the directed
// graph of live composite handles and their direct strong-composite
// children, finds roots (no incoming strong edge), runs Tarjan's SCC, and
// classifies every SCC of size >= 2.
func (a *Analyzer) DetectCycles() []Cycle {
	nodes, edges := a.buildGraph()
	sccs := tarjanSCC(nodes, edges)

	inDegree := make(map[value.Handle]int)
	for _, children := range edges {
		for _, c := range children {
			inDegree[c]++
		}
	}
	var roots []value.Handle
	for _, n := range nodes {
		if inDegree[n] == 0 {
			roots = append(roots, n)
		}
	}
	reachable := reachableFromRoots(roots, edges)

	var out []Cycle
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		out = append(out, a.classifySCC(scc, edges, reachable))
	}
	return out
}

func (a *Analyzer) buildGraph() ([]value.Handle, map[value.Handle][]value.Handle) {
	var nodes []value.Handle
	edges := make(map[value.Handle][]value.Handle)
	a.heap.EachAlive(func(o heap.Object) {
		if o.Composite == nil {
			return
		}
		nodes = append(nodes, o.ID)
		edges[o.ID] = a.heap.StrongChildren(o.ID)
	})
	return nodes, edges
}

func reachableFromRoots(roots []value.Handle, edges map[value.Handle][]value.Handle) map[value.Handle]bool {
	seen := make(map[value.Handle]bool)
	var stack []value.Handle
	stack = append(stack, roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, edges[n]...)
	}
	return seen
}

func (a *Analyzer) classifySCC(scc []value.Handle, edges map[value.Handle][]value.Handle, reachable map[value.Handle]bool) Cycle {
	members := make(map[value.Handle]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	isolated := true
	for n := range members {
		for from, children := range edges {
			if members[from] {
				continue
			}
			for _, c := range children {
				if c == n {
					isolated = false
				}
			}
		}
	}

	reachableFromRoot := false
	for _, n := range scc {
		if reachable[n] {
			reachableFromRoot = true
			break
		}
	}

	leak := isolated && !reachableFromRoot
	if leak {
		atomic.AddInt64(&a.leakCandidates, 1)
	}

	var breakEdges []BreakEdge
	if len(scc) > 0 {
		first := scc[0]
		for _, c := range edges[first] {
			if members[c] {
				breakEdges = append(breakEdges, BreakEdge{From: uint64(first), To: uint64(c)})
			}
		}
	}

	internalIn := make(map[value.Handle]int)
	outDegree := make(map[value.Handle]int)
	for _, n := range scc {
		for _, c := range edges[n] {
			if members[c] {
				internalIn[c]++
				outDegree[n]++
			}
		}
	}
	var ranked []RankedSuggestion
	for _, n := range scc {
		for _, c := range edges[n] {
			if !members[c] {
				continue
			}
			ranked = append(ranked, RankedSuggestion{
				From:  uint64(n),
				To:    uint64(c),
				Score: outDegree[n] + internalIn[c],
			})
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	members64 := make([]uint64, len(scc))
	for i, n := range scc {
		members64[i] = uint64(n)
	}
	sort.Slice(members64, func(i, j int) bool { return members64[i] < members64[j] })

	return Cycle{
		Members:             members64,
		Isolated:            isolated,
		ReachableFromRoot:   reachableFromRoot,
		LeakCandidate:       leak,
		SuggestedBreakEdges: breakEdges,
		RankedSuggestions:   ranked,
	}
}

// tarjanSCC is the classic recursive Tarjan algorithm (strongconnect),
// returning strongly-connected components in an unspecified order.
func tarjanSCC(nodes []value.Handle, edges map[value.Handle][]value.Handle) [][]value.Handle {
	index := make(map[value.Handle]int)
	lowlink := make(map[value.Handle]int)
	onStack := make(map[value.Handle]bool)
	var stack []value.Handle
	next := 0
	var sccs [][]value.Handle

	var strongconnect func(v value.Handle)
	strongconnect = func(v value.Handle) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, ok := index[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []value.Handle
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, ok := index[n]; !ok {
			strongconnect(n)
		}
	}
	return sccs
}
