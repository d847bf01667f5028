// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config binds the art CLI's runtime-tunable knobs (spec.md §6
// "Configuration") through viper, layered flags > ART_ environment
// variables > defaults. No configuration file is read.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys used both as viper keys and (with dashes in place of dots) as flag
// names.
const (
	KeyHeapSanityCap      = "heap.sanity_cap"
	KeyArenaSegmentSize   = "arena.segment_size"
	KeyScavengerInterval  = "scavenger.interval_ms"
	KeyCheckInvariants    = "finalizer.check_invariants"
	KeyEnableActors       = "actor.enable"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
)

// Config is the resolved set of runtime tunables.
type Config struct {
	// HeapSanityCap is the ceiling on each heap object's strong and weak
	// counts (spec.md invariant I5); increments past it are silently
	// clamped. Zero selects heap.SanityCap.
	HeapSanityCap int

	// ArenaSegmentSize is accepted and bound as a flag, but nothing in the
	// evaluator reads it: arenas are not segment-allocated.
	ArenaSegmentSize int

	// ScavengerInterval is how often (in milliseconds) a long-running
	// host may choose to run Heap.Sweep() opportunistically; the core
	// evaluator itself never schedules this, it is CLI/host policy.
	ScavengerInterval int

	// CheckInvariantsAfterFinalizer toggles the post-pass CheckInvariants
	// run after every finalizer dispatch (spec §4.4).
	CheckInvariantsAfterFinalizer bool

	// EnableActorMailbox turns on the supplemented actor/mailbox
	// extension's send/receive builtins. Off by default (spec §9 calls
	// the extension optional).
	EnableActorMailbox bool

	LogLevel  string
	LogFormat string
}

// Defaults returns the configuration used when no flag or environment
// variable overrides a key.
func Defaults() Config {
	return Config{
		HeapSanityCap:                 0,
		ArenaSegmentSize:              256,
		ScavengerInterval:             0,
		CheckInvariantsAfterFinalizer: true,
		EnableActorMailbox:            false,
		LogLevel:                      "info",
		LogFormat:                     "text",
	}
}

// BindFlags registers every tunable as a persistent flag on fs and binds
// it into v with ART_ environment-variable overrides, giving the
// flags>env>default precedence viper provides once bound.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	d := Defaults()

	fs.Int("heap-sanity-cap", d.HeapSanityCap, "ceiling on each heap object's strong/weak counts (0 selects the built-in default)")
	fs.Int("arena-segment-size", d.ArenaSegmentSize, "objects per arena bookkeeping segment (accepted; not read by the evaluator)")
	fs.Int("scavenger-interval-ms", d.ScavengerInterval, "opportunistic Heap.Sweep interval in milliseconds (0 disables)")
	fs.Bool("check-invariants", d.CheckInvariantsAfterFinalizer, "run CheckInvariants after every finalizer dispatch")
	fs.Bool("enable-actors", d.EnableActorMailbox, "enable the actor/mailbox extension's send/receive builtins")
	fs.String("log-level", d.LogLevel, "logrus level: trace, debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "logrus formatter: text or json")

	v.SetEnvPrefix("ART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bind := func(key, flag string) {
		_ = v.BindPFlag(key, fs.Lookup(flag))
	}
	bind(KeyHeapSanityCap, "heap-sanity-cap")
	bind(KeyArenaSegmentSize, "arena-segment-size")
	bind(KeyScavengerInterval, "scavenger-interval-ms")
	bind(KeyCheckInvariants, "check-invariants")
	bind(KeyEnableActors, "enable-actors")
	bind(KeyLogLevel, "log-level")
	bind(KeyLogFormat, "log-format")
}

// Load reads every bound key back out of v into a Config.
func Load(v *viper.Viper) Config {
	return Config{
		HeapSanityCap:                 v.GetInt(KeyHeapSanityCap),
		ArenaSegmentSize:              v.GetInt(KeyArenaSegmentSize),
		ScavengerInterval:             v.GetInt(KeyScavengerInterval),
		CheckInvariantsAfterFinalizer: v.GetBool(KeyCheckInvariants),
		EnableActorMailbox:            v.GetBool(KeyEnableActors),
		LogLevel:                      v.GetString(KeyLogLevel),
		LogFormat:                     v.GetString(KeyLogFormat),
	}
}
