// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artlang/art/internal/config"
	"github.com/artlang/art/v1/cycle"
	"github.com/artlang/art/v1/metrics"
	"github.com/artlang/art/v1/topdown"
)

func newMetricsCmd(v *viper.Viper) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "metrics <file>",
		Short: "Run a program and report the evaluator's counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			ev, _, runErr := loadAndRun(args[0], cfg)
			if ev == nil {
				return runErr
			}

			ca := cycle.New(ev.Heap)
			ca.Report() // one cycle_reports_run tick, per spec §6's metric

			snap := snapshot(ev, ca)
			if asJSON {
				bs, err := json.Marshal(snap)
				if err != nil {
					return err
				}
				fmt.Println(string(bs))
			} else {
				printSnapshot(snap)
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as a JSON object")
	return cmd
}

func snapshot(ev *topdown.Evaluator, ca *cycle.Analyzer) metrics.Snapshot {
	hm := ev.Heap.SnapshotMetrics()
	fm := ev.FinalizerMetrics()
	am := ev.ArenaMetrics()

	objectsFinalized := make(map[uint32]int, len(am))
	arenaAlloc := 0
	for id, m := range am {
		objectsFinalized[uint32(id)] = m.Finalized
		arenaAlloc += m.Allocations
	}
	promotionsPerArena := make(map[uint32]uint64, len(fm.ArenaPromotions))
	for id, n := range fm.ArenaPromotions {
		promotionsPerArena[uint32(id)] = n
	}

	return metrics.Snapshot{
		HandledErrors:               ev.HandledErrors(),
		ExecutedStatements:          ev.ExecutedStatements(),
		FinalizerPromotions:         fm.Promotions,
		CrashFree:                   ev.CrashFree(),
		WeakCreated:                 hm.WeakCreated,
		WeakUpgrades:                hm.WeakUpgrades,
		WeakDangling:                hm.WeakDangling,
		UnownedCreated:              hm.UnownedCreated,
		UnownedDangling:             hm.UnownedDangling,
		CycleReportsRun:             ca.ReportsRun(),
		ArenaAllocCount:             arenaAlloc,
		ObjectsFinalizedPerArena:    objectsFinalized,
		FinalizerPromotionsPerArena: promotionsPerArena,
	}
}

func printSnapshot(s metrics.Snapshot) {
	fmt.Fprintf(os.Stdout, "handled_errors: %d\n", s.HandledErrors)
	fmt.Fprintf(os.Stdout, "executed_statements: %d\n", s.ExecutedStatements)
	fmt.Fprintf(os.Stdout, "finalizer_promotions: %d\n", s.FinalizerPromotions)
	fmt.Fprintf(os.Stdout, "crash_free: %.2f\n", s.CrashFree)
	fmt.Fprintf(os.Stdout, "weak_created: %d\n", s.WeakCreated)
	fmt.Fprintf(os.Stdout, "weak_upgrades: %d\n", s.WeakUpgrades)
	fmt.Fprintf(os.Stdout, "weak_dangling: %d\n", s.WeakDangling)
	fmt.Fprintf(os.Stdout, "unowned_created: %d\n", s.UnownedCreated)
	fmt.Fprintf(os.Stdout, "unowned_dangling: %d\n", s.UnownedDangling)
	fmt.Fprintf(os.Stdout, "cycle_reports_run: %d\n", s.CycleReportsRun)
	fmt.Fprintf(os.Stdout, "arena_alloc_count: %d\n", s.ArenaAllocCount)
}
