// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command art is the thin CLI exercising the Art runtime end-to-end
// (spec.md §6): run, metrics, and build. No lexer/parser is in scope
// (spec.md §1), so `run`/`metrics` read a JSON-encoded Program (the
// "Parser handoff" shape of §6) rather than raw Art source text; see
// DESIGN.md.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artlang/art/internal/config"
)

// Exit codes (spec.md §6): 0 success, 74 read error, 64 usage error, 1
// failing run after flushing diagnostics.
const (
	exitOK          = 0
	exitReadError   = 74
	exitUsageError  = 64
	exitRuntimeFail = 1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	v := viper.New()
	root := &cobra.Command{
		Use:           "art",
		Short:         "Art language runtime CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(v, root.PersistentFlags())

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		configureLogging(config.Load(v))
		return nil
	}

	root.AddCommand(newRunCmd(v), newMetricsCmd(v), newBuildCmd())
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ce, ok := err.(*cliError); ok {
			return ce.code
		}
		return exitUsageError
	}
	return exitOK
}

func configureLogging(cfg config.Config) {
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}
}

// cliError carries a specific process exit code up through cobra's plain
// error return.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func readErr(err error) error  { return &cliError{code: exitReadError, err: err} }
func usageErr(err error) error { return &cliError{code: exitUsageError, err: err} }
func runtimeErr(err error) error { return &cliError{code: exitRuntimeFail, err: err} }
