// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package aot implements the profile-driven inline-candidate planner of
// spec.md §4.9: scoring, the optional IR-cost normalization pass, and the
// JSON shapes of §6 (profile in, plan out, and the build artifact that
// wraps a plan for `art build`).
package aot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/artlang/art/v1/ir"
	"github.com/artlang/art/v1/util"
)

// Edge is one caller->callee observation in a profile (spec §6 "Profile
// JSON").
type Edge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Count  uint64 `json:"count"`
}

// Profile is the input to Score (spec §6 "Profile JSON (in)"). EdgesMap
// carries the alternate "A->B": count encoding; LoadProfile normalizes
// either form into Edges before returning.
type Profile struct {
	Functions map[string]uint64 `json:"functions"`
	Edges     []Edge            `json:"edges,omitempty"`
	EdgesMap  map[string]uint64 `json:"edges_map,omitempty"`
}

// CallerExample is one entry of a candidate's caller_examples list.
type CallerExample struct {
	Caller string `json:"caller"`
	Count  uint64 `json:"count"`
}

// Candidate is one entry of Plan.InlineCandidates.
type Candidate struct {
	Name            string          `json:"name"`
	Score           int64           `json:"score"`
	CallerExamples  []CallerExample `json:"caller_examples"`
	EstimatedCost   *int            `json:"estimated_cost,omitempty"`
	Priority        *float64        `json:"priority,omitempty"`
}

// Plan is the AOT plan JSON of spec §6.
type Plan struct {
	InlineCandidates []Candidate `json:"inline_candidates"`
}

// Artifact is the AOT artifact JSON of spec §6, produced by `art build`.
type Artifact struct {
	FormatVersion int             `json:"format_version"`
	Source        string          `json:"source"`
	Plan          Plan            `json:"plan"`
	BuildID       string          `json:"build_id"`
	Package       *PackageArchive `json:"package,omitempty"`
}

// PackageArchive describes the optional gzip tarball amendment gated by
// ART_BUILD_PACKAGE (spec §6).
type PackageArchive struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// LoadProfile decodes a profile JSON document via util.Unmarshal (number
// preservation and BOM stripping, same as every other JSON surface this
// module reads) and normalizes EdgesMap into Edges so Plan only has one
// representation to score against.
func LoadProfile(bs []byte) (*Profile, error) {
	var p Profile
	if err := util.Unmarshal(bs, &p); err != nil {
		return nil, fmt.Errorf("aot: decode profile: %w", err)
	}
	if len(p.EdgesMap) > 0 {
		for k, count := range p.EdgesMap {
			caller, callee, ok := splitArrow(k)
			if !ok {
				return nil, fmt.Errorf("aot: malformed edges_map key %q, want \"A->B\"", k)
			}
			p.Edges = append(p.Edges, Edge{Caller: caller, Callee: callee, Count: count})
		}
	}
	return &p, nil
}

func splitArrow(key string) (caller, callee string, ok bool) {
	for i := 0; i+1 < len(key); i++ {
		if key[i] == '-' && key[i+1] == '>' {
			return key[:i], key[i+2:], true
		}
	}
	return "", "", false
}

const (
	minScore          = 3
	maxCandidates     = 10
	maxCallerExamples = 3
)

// Score builds the inline_candidates plan for p per spec §4.9's scoring
// rule: Score(f) = c(f) + 2*sum(e(f)) over incoming edges, excluding any f
// with a self-caller edge (recursion) or a score below minScore, keeping
// the top maxCandidates by descending score.
func Score(p *Profile) (*Plan, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	incoming := make(map[string][]Edge)
	recursive := make(map[string]bool)
	for _, e := range p.Edges {
		incoming[e.Callee] = append(incoming[e.Callee], e)
		if e.Caller == e.Callee {
			recursive[e.Callee] = true
		}
	}

	type scored struct {
		name  string
		score int64
		edges []Edge
	}
	var all []scored
	for name, c := range p.Functions {
		if recursive[name] {
			continue
		}
		var edgeSum uint64
		for _, e := range incoming[name] {
			edgeSum += e.Count
		}
		score := int64(c) + 2*int64(edgeSum)
		if score < minScore {
			continue
		}
		all = append(all, scored{name: name, score: score, edges: incoming[name]})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].name < all[j].name
	})
	if len(all) > maxCandidates {
		all = all[:maxCandidates]
	}

	candidates := make([]Candidate, len(all))
	for i, s := range all {
		examples := make([]CallerExample, len(s.edges))
		for j, e := range s.edges {
			examples[j] = CallerExample{Caller: e.Caller, Count: e.Count}
		}
		sort.Slice(examples, func(a, b int) bool { return examples[a].Count > examples[b].Count })
		if len(examples) > maxCallerExamples {
			examples = examples[:maxCallerExamples]
		}
		candidates[i] = Candidate{Name: s.name, Score: s.score, CallerExamples: examples}
	}
	return &Plan{InlineCandidates: candidates}, nil
}

func validate(p *Profile) error {
	for _, e := range p.Edges {
		if _, ok := p.Functions[e.Callee]; !ok {
			return fmt.Errorf("aot: edge callee %q not present in functions", e.Callee)
		}
		if e.Caller != "<root>" {
			if _, ok := p.Functions[e.Caller]; !ok {
				return fmt.Errorf("aot: edge caller %q not present in functions", e.Caller)
			}
		}
	}
	return nil
}

const (
	minClampedScore = 1
	maxClampedScore = 1_000_000
)

// Normalize implements spec §4.9's optional post-pass: clamp scores to
// [1, 1_000_000], deduplicate caller examples by summing counts, and —
// when irFuncs supplies a matching lowered function for a candidate —
// estimate cost as instr_count + 2*block_count and set priority =
// score / (1 + cost), then sort by priority descending (falling back to
// score when a candidate has no IR).
func Normalize(plan *Plan, irFuncs map[string]*ir.Function) {
	for i := range plan.InlineCandidates {
		c := &plan.InlineCandidates[i]
		c.Score = clamp(c.Score, minClampedScore, maxClampedScore)
		c.CallerExamples = dedupeExamples(c.CallerExamples)

		fn, ok := irFuncs[c.Name]
		if !ok {
			continue
		}
		cost := estimateCost(fn)
		priority := float64(c.Score) / (1 + float64(cost))
		c.EstimatedCost = &cost
		c.Priority = &priority
	}

	sort.SliceStable(plan.InlineCandidates, func(i, j int) bool {
		a, b := plan.InlineCandidates[i], plan.InlineCandidates[j]
		pa, pb := tiebreak(a), tiebreak(b)
		return pa > pb
	})
}

func tiebreak(c Candidate) float64 {
	if c.Priority != nil {
		return *c.Priority
	}
	return float64(c.Score)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dedupeExamples(examples []CallerExample) []CallerExample {
	sums := make(map[string]uint64)
	order := make([]string, 0, len(examples))
	for _, e := range examples {
		if _, seen := sums[e.Caller]; !seen {
			order = append(order, e.Caller)
		}
		sums[e.Caller] += e.Count
	}
	out := make([]CallerExample, len(order))
	for i, caller := range order {
		out[i] = CallerExample{Caller: caller, Count: sums[caller]}
	}
	return out
}

func estimateCost(fn *ir.Function) int {
	instrCount, blockCount := 0, len(fn.Blocks)
	for _, b := range fn.Blocks {
		instrCount += len(b.Instrs)
		if b.Term != nil {
			instrCount++
		}
	}
	return instrCount + 2*blockCount
}

// BuildArtifact wraps plan into the artifact JSON of spec §6, stamping a
// fresh build id (grounded on SPEC_FULL.md's "stable build IDs" role for
// google/uuid) and, when pkg is non-nil (ART_BUILD_PACKAGE=1 and a
// sibling artifact_files/ directory exists), the package tarball
// reference.
func BuildArtifact(source string, plan Plan, pkg *PackageArchive) Artifact {
	return Artifact{
		FormatVersion: 1,
		Source:        source,
		Plan:          plan,
		BuildID:       uuid.NewString(),
		Package:       pkg,
	}
}

// SHA256File returns the lowercase hex SHA-256 digest of data, used when
// amending an artifact with a package tarball reference.
func SHA256File(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MarshalPlan renders plan as JSON for `art build --out`.
func MarshalPlan(plan Plan) []byte {
	return util.MustMarshalJSON(plan)
}
