// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package metrics holds the evaluator's counters for the CLI metrics
// surface named in spec.md §6. Snapshot is the document `art metrics`
// prints (as JSON with --json); Registry can also publish a Snapshot as
// Prometheus gauges, but the CLI never constructs one and serves no HTTP
// endpoint. It owns its own registry rather than registering into
// prometheus.DefaultRegisterer, the same isolation the teacher's cache
// tests use via prometheus.NewPedanticRegistry so repeated construction
// in tests never panics on duplicate registration.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Snapshot is the point-in-time reading of every counter spec.md §6 names.
// Populated by the caller (package topdown's Evaluator plus its heap,
// arena, and cycle subsystems) since this package must not import
// topdown — metrics sits beside it in the dependency graph, not above it.
type Snapshot struct {
	HandledErrors       uint64  `json:"handled_errors"`
	ExecutedStatements  uint64  `json:"executed_statements"`
	FinalizerPromotions uint64  `json:"finalizer_promotions"`
	CrashFree           float64 `json:"crash_free"`

	WeakCreated     uint64 `json:"weak_created"`
	WeakUpgrades    uint64 `json:"weak_upgrades"`
	WeakDangling    uint64 `json:"weak_dangling"`
	UnownedCreated  uint64 `json:"unowned_created"`
	UnownedDangling uint64 `json:"unowned_dangling"`

	CycleReportsRun int64 `json:"cycle_reports_run"`

	ArenaAllocCount             int               `json:"arena_alloc_count"`
	ObjectsFinalizedPerArena    map[uint32]int    `json:"objects_finalized_per_arena"`
	FinalizerPromotionsPerArena map[uint32]uint64 `json:"finalizer_promotions_per_arena"`
}

// Registry wraps a private prometheus.Registry with one gauge per
// scalar counter plus two per-arena GaugeVecs.
type Registry struct {
	reg *prometheus.Registry

	handledErrors       prometheus.Gauge
	executedStatements  prometheus.Gauge
	finalizerPromotions prometheus.Gauge
	crashFree           prometheus.Gauge

	weakCreated     prometheus.Gauge
	weakUpgrades    prometheus.Gauge
	weakDangling    prometheus.Gauge
	unownedCreated  prometheus.Gauge
	unownedDangling prometheus.Gauge

	cycleReportsRun prometheus.Gauge
	arenaAllocCount prometheus.Gauge

	objectsFinalizedPerArena    *prometheus.GaugeVec
	finalizerPromotionsPerArena *prometheus.GaugeVec
}

// New constructs a Registry with every gauge registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		reg: reg,

		handledErrors:       f.NewGauge(prometheus.GaugeOpts{Name: "art_handled_errors", Help: "Diagnostics recovered by the accumulate-and-continue error policy."}),
		executedStatements:  f.NewGauge(prometheus.GaugeOpts{Name: "art_executed_statements", Help: "Statements executed by the evaluator."}),
		finalizerPromotions: f.NewGauge(prometheus.GaugeOpts{Name: "art_finalizer_promotions", Help: "Finalizer-frame bindings promoted into the root environment."}),
		crashFree:           f.NewGauge(prometheus.GaugeOpts{Name: "art_crash_free", Help: "100 * (1 - handled_errors/max(1, executed_statements)), clamped to [0,100]."}),

		weakCreated:     f.NewGauge(prometheus.GaugeOpts{Name: "art_weak_created", Help: "weak() expressions evaluated."}),
		weakUpgrades:    f.NewGauge(prometheus.GaugeOpts{Name: "art_weak_upgrades", Help: "upgrade_weak() calls."}),
		weakDangling:    f.NewGauge(prometheus.GaugeOpts{Name: "art_weak_dangling", Help: "upgrade_weak() calls that resolved to a dead object."}),
		unownedCreated:  f.NewGauge(prometheus.GaugeOpts{Name: "art_unowned_created", Help: "unowned() expressions evaluated."}),
		unownedDangling: f.NewGauge(prometheus.GaugeOpts{Name: "art_unowned_dangling", Help: "get_unowned() calls that resolved to a dead object."}),

		cycleReportsRun: f.NewGauge(prometheus.GaugeOpts{Name: "art_cycle_reports_run", Help: "detect_cycles()/cycle_report() invocations."}),
		arenaAllocCount: f.NewGauge(prometheus.GaugeOpts{Name: "art_arena_alloc_count", Help: "Total composite allocations tagged with an arena."}),

		objectsFinalizedPerArena:    f.NewGaugeVec(prometheus.GaugeOpts{Name: "art_objects_finalized_per_arena", Help: "Objects finalized, labeled by arena id."}, []string{"arena"}),
		finalizerPromotionsPerArena: f.NewGaugeVec(prometheus.GaugeOpts{Name: "art_finalizer_promotions_per_arena", Help: "Finalizer promotions, labeled by arena id."}, []string{"arena"}),
	}
}

// Record overwrites every gauge from s.
func (r *Registry) Record(s Snapshot) {
	r.handledErrors.Set(float64(s.HandledErrors))
	r.executedStatements.Set(float64(s.ExecutedStatements))
	r.finalizerPromotions.Set(float64(s.FinalizerPromotions))
	r.crashFree.Set(s.CrashFree)

	r.weakCreated.Set(float64(s.WeakCreated))
	r.weakUpgrades.Set(float64(s.WeakUpgrades))
	r.weakDangling.Set(float64(s.WeakDangling))
	r.unownedCreated.Set(float64(s.UnownedCreated))
	r.unownedDangling.Set(float64(s.UnownedDangling))

	r.cycleReportsRun.Set(float64(s.CycleReportsRun))
	r.arenaAllocCount.Set(float64(s.ArenaAllocCount))

	for id, n := range s.ObjectsFinalizedPerArena {
		r.objectsFinalizedPerArena.WithLabelValues(arenaLabel(id)).Set(float64(n))
	}
	for id, n := range s.FinalizerPromotionsPerArena {
		r.finalizerPromotionsPerArena.WithLabelValues(arenaLabel(id)).Set(float64(n))
	}
}

// Gatherer exposes the underlying registry for promhttp.HandlerFor.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func arenaLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
