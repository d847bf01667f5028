// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package topdown implements Art's evaluator (spec.md §4.6): statement
// and expression evaluation, builtin dispatch, and the wiring that ties
// the heap, environment chain, finalizer engine, arena manager, type
// registry, and static checks into one executable program. Named after
// the teacher's own top-down query evaluator, since both are the single
// package that owns dependency wiring for an otherwise leaf-heavy module.
package topdown

import (
	"github.com/sirupsen/logrus"

	"github.com/artlang/art/v1/actor"
	"github.com/artlang/art/v1/arena"
	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/environment"
	"github.com/artlang/art/v1/finalizer"
	"github.com/artlang/art/v1/heap"
	"github.com/artlang/art/v1/static"
	"github.com/artlang/art/v1/types"
	"github.com/artlang/art/v1/value"
)

// Config bundles the evaluator's runtime-tunable knobs (spec.md §6
// "Configuration", heap sanity cap, invariant post-pass toggle).
type Config struct {
	CheckInvariantsAfterFinalizer bool

	// HeapSanityCap overrides heap.SanityCap (invariant I5). Zero keeps
	// heap.New's default.
	HeapSanityCap uint32

	// EnableActorMailbox turns on the supplemented actor/mailbox
	// extension's send/receive builtins (SPEC_FULL.md "Actor/mailbox
	// extension"). Off by default: the extension is optional per
	// spec.md §9.
	EnableActorMailbox bool
}

func DefaultConfig() Config {
	return Config{CheckInvariantsAfterFinalizer: true}
}

// Evaluator is Art's evaluator (spec.md §4.6). It owns every subsystem's
// top-level instance and is the one package allowed to import all of
// them, breaking what would otherwise be a dependency cycle between
// environment, finalizer, and the statement-execution logic that runs
// finalizer bodies.
type Evaluator struct {
	cfg Config

	Heap    *heap.Table
	Types   *types.Registry
	Arenas  *arena.Manager
	Fin     *finalizer.Engine
	Actors  *actor.Manager
	Sink    *diag.Sink
	root    *environment.Env
	current *environment.Env

	closures    map[uint64]*environment.Env
	nextClosure uint64

	executedStatements uint64
	handledErrors      uint64

	log *logrus.Entry
}

// returnSignal carries a Return statement's value up through the
// recursive exec functions without resorting to panic/recover, since the
// evaluator's control flow is entirely synchronous tree-walking.
type returnSignal struct {
	triggered bool
	value     value.Value
	fresh     bool
}

func New(cfg Config) *Evaluator {
	h := heap.NewWithSanityCap(cfg.HeapSanityCap)
	sink := &diag.Sink{}
	closures := make(map[uint64]*environment.Env)

	ev := &Evaluator{
		cfg:      cfg,
		Heap:     h,
		Types:    types.New(),
		Actors:   actor.New(cfg.EnableActorMailbox),
		Sink:     sink,
		closures: closures,
		log:      logrus.WithField("component", "evaluator"),
	}

	// ev.decrement closes over ev, not over ev.Fin directly, so it is safe
	// to hand to environment.New before ev.Fin exists: by the time any
	// scope actually exits and invokes it, construction below has finished.
	ev.root = environment.New(ev.decrement)
	ev.current = ev.root

	ev.Fin = finalizer.New(h, ev.root, sink, ev.execFinalizerBody, cfg.CheckInvariantsAfterFinalizer)
	ev.Arenas = arena.New(h, ev.Fin)

	return ev
}

func (e *Evaluator) decrement(h value.Handle) {
	e.Fin.Decrement(h)
}

// execFinalizerBody implements spec.md §4.4 step 4: "execute the
// finalizer body (a block is inlined statement-by-statement; otherwise
// executed as a single statement)".
func (e *Evaluator) execFinalizerBody(frame *environment.Env, fn *value.Function) []diag.Diagnostic {
	before := e.Sink.Len()
	prev := e.current
	e.current = frame
	if body, ok := fn.Body.(*ast.Block); ok {
		for _, s := range body.Statements {
			if rs := e.execStmt(s); rs.triggered {
				break
			}
		}
	}
	e.current = prev

	all := e.Sink.Take()
	// Re-add everything that was already buffered before this dispatch so
	// callers draining the sink later still see it; only the newly
	// produced diagnostics are handed back to the finalizer engine, which
	// re-adds them itself.
	for _, d := range all[:before] {
		e.Sink.Add(d)
	}
	return all[before:]
}

// Interpret implements spec.md §4.6 "interpret(program)": runs the static
// checks of spec.md §4.7, registers struct/enum declarations, then
// executes top-level statements in order.
func (e *Evaluator) Interpret(prog *ast.Program) {
	static.CheckPerformantBlocks(prog, e.Sink)
	static.CheckSendSafety(prog, e.Sink)

	e.Types.LoadProgram(prog)

	for _, s := range prog.Statements {
		if _, isDecl := s.(*ast.StructDecl); isDecl {
			continue
		}
		if _, isDecl := s.(*ast.EnumDecl); isDecl {
			continue
		}
		if rs := e.execStmt(s); rs.triggered {
			break
		}
	}
}

// TakeDiagnostics implements spec.md §4.6 "take_diagnostics()".
func (e *Evaluator) TakeDiagnostics() []diag.Diagnostic {
	return e.Sink.Take()
}

// --- debug helpers for tests (spec.md §4.6) ---

// Register is the "register" debug helper: heapifies a composite at top
// level, outside any arena.
func (e *Evaluator) Register(c value.Composite) value.Handle {
	return e.Heap.RegisterComposite(c, e.Arenas.Current())
}

// DefineGlobal is the "define_global" debug helper: binds name in the
// root environment directly.
func (e *Evaluator) DefineGlobal(name string, v value.Value) {
	e.root.Define(name, v)
}

// Sweep is the "sweep" debug helper.
func (e *Evaluator) Sweep() int {
	return e.Heap.Sweep()
}

// RunFinalizer is the "run_finalizer" debug helper: forces h's finalizer
// dispatch to run immediately regardless of its current strong count, by
// resetting strong to 1 and then issuing the ordinary recursive decrement.
func (e *Evaluator) RunFinalizer(h value.Handle) {
	e.Heap.ForceStrongOne(h)
	e.Fin.Decrement(h)
}

// RegisterFinalizer is a thin pass-through used by tests and by the
// finalizer-registration builtin.
func (e *Evaluator) RegisterFinalizer(h value.Handle, fn *value.Function) {
	e.Fin.RegisterFinalizer(h, fn)
}

// FinalizerMetrics and ArenaMetrics back the CLI metrics surface's
// finalizer_promotions(_per_arena) and arena_alloc_count/
// objects_finalized_per_arena fields (spec.md §6).
func (e *Evaluator) FinalizerMetrics() finalizer.Metrics         { return e.Fin.Metrics() }
func (e *Evaluator) ArenaMetrics() map[heap.ArenaID]arena.Metrics { return e.Arenas.SnapshotMetrics() }

// ActorMetrics backs the actor/mailbox extension's sent/received
// counters, empty when the extension is disabled.
func (e *Evaluator) ActorMetrics() actor.Metrics { return e.Actors.SnapshotMetrics() }

// ExecutedStatements and HandledErrors back the CLI metrics surface
// (spec.md §6 `executed_statements`, `handled_errors`).
func (e *Evaluator) ExecutedStatements() uint64 { return e.executedStatements }
func (e *Evaluator) HandledErrors() uint64      { return e.handledErrors }

// CrashFree implements spec.md §7: "crash_free = 100 * (1 -
// handled_errors/max(1, executed_statements)) clamped to [0,100]".
func (e *Evaluator) CrashFree() float64 {
	denom := e.executedStatements
	if denom == 0 {
		denom = 1
	}
	v := 100 * (1 - float64(e.handledErrors)/float64(denom))
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}
