// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artlang/art/internal/config"
	"github.com/artlang/art/v1/astjson"
	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/topdown"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Evaluate a JSON-encoded program file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			_, _, err := loadAndRun(args[0], cfg)
			return err
		},
	}
}

// loadAndRun decodes the program at path, interprets it, flushes
// diagnostics to stderr, and returns the evaluator (for `art metrics`'s
// reuse) plus a *cliError-wrapped failure when there is one.
func loadAndRun(path string, cfg config.Config) (*topdown.Evaluator, []diag.Diagnostic, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, readErr(fmt.Errorf("art: read %s: %w", path, err))
	}
	prog, err := astjson.DecodeProgram(bs)
	if err != nil {
		return nil, nil, readErr(fmt.Errorf("art: decode %s: %w", path, err))
	}

	ev := topdown.New(topdown.Config{
		CheckInvariantsAfterFinalizer: cfg.CheckInvariantsAfterFinalizer,
		HeapSanityCap:                 uint32(cfg.HeapSanityCap),
		EnableActorMailbox:            cfg.EnableActorMailbox,
	})
	ev.Interpret(prog)
	diags := ev.TakeDiagnostics()

	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if len(diags) > 0 {
		return ev, diags, runtimeErr(fmt.Errorf("art: run produced %d diagnostic(s)", len(diags)))
	}
	return ev, diags, nil
}
