// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"strings"

	"github.com/artlang/art/v1/arena"
	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/diag"
	"github.com/artlang/art/v1/environment"
	"github.com/artlang/art/v1/value"
)

// evalResult wraps a Value with whether it is a freshly constructed
// composite (one whose strong=1 has not yet been claimed by any scope
// binding). Threading Fresh through evaluation lets store sites
// (Define, struct/array field materialization, parameter binding)
// decide whether storing the value represents "consume the constructor's
// implicit ref" (fresh) or "a second owner of an existing reference"
// (not fresh, needs inc_strong) — the distinction spec.md §3 "Lifecycles"
// draws between a composite's construction and it being "stored into a
// new scope binding or inside another composite".
type evalResult struct {
	Value value.Value
	Fresh bool
}

func owned(v value.Value) evalResult  { return evalResult{Value: v} }
func freshR(v value.Value) evalResult { return evalResult{Value: v, Fresh: true} }

// store claims ownership of r on behalf of a new binding site,
// incrementing the heap strong count unless r is a fresh, not-yet-owned
// construction.
func (e *Evaluator) store(r evalResult) value.Value {
	if r.Value.Kind == value.KindHeapComposite && !r.Fresh {
		e.Heap.IncStrong(r.Value.Heap)
	}
	return r.Value
}

// --- statements ---

func (e *Evaluator) execStmt(s ast.Stmt) returnSignal {
	e.executedStatements++
	switch n := s.(type) {
	case *ast.LetStmt:
		r := e.evalExpr(n.Value)
		e.checkLetEscape(r.Value, n)
		e.current.Define(n.Name, e.store(r))
		return returnSignal{}
	case *ast.ReturnStmt:
		if n.Value == nil {
			return returnSignal{triggered: true}
		}
		r := e.evalExpr(n.Value)
		e.checkReturnEscape(r.Value, n)
		return returnSignal{triggered: true, value: r.Value, fresh: r.Fresh}
	case *ast.ExprStmt:
		e.evalExpr(n.Value)
		return returnSignal{}
	case *ast.Block:
		_, rs := e.execBlockAsValue(n)
		return rs
	case *ast.PerformantBlock:
		id := e.Arenas.Enter()
		_, rs := e.execBlockAsValue(n.Body)
		e.Arenas.Exit(id)
		return rs
	case *ast.FuncDecl:
		e.current.DefineLocal(n.Name, e.makeClosure(n.Name, n.Params, n.Body))
		return returnSignal{}
	case *ast.StructDecl:
		e.Types.DefineStruct(n)
		return returnSignal{}
	case *ast.EnumDecl:
		e.Types.DefineEnum(n)
		return returnSignal{}
	default:
		return returnSignal{}
	}
}

func (e *Evaluator) checkLetEscape(v value.Value, n *ast.LetStmt) {
	e.checkEscape(v, "bind")
}

func (e *Evaluator) checkReturnEscape(v value.Value, n *ast.ReturnStmt) {
	e.checkEscape(v, "return")
}

func (e *Evaluator) checkEscape(v value.Value, verb string) {
	if v.Kind != value.KindHeapComposite {
		return
	}
	obj, ok := e.Heap.Get(v.Heap)
	if !ok {
		return
	}
	if d, escaped := arena.CheckEscape(v, obj, e.Arenas.Current(), verb); escaped {
		e.Sink.Add(d)
	}
}

// execBlockAsValue pushes a new child scope, executes every statement in
// order, and — if the final statement is an ExprStmt — evaluates that
// statement's expression as the block's value (spec.md §4.6 "arms end in
// a trailing expression statement"). Scope exit (spec.md §4.3) always
// runs, even when a Return signal is propagating. The returned evalResult
// carries the trailing expression's Fresh bit through untouched, since a
// block is a pass-through: it introduces no store site of its own.
func (e *Evaluator) execBlockAsValue(b *ast.Block) (evalResult, returnSignal) {
	frame := environment.Push(e.current)
	e.current = frame

	result := owned(value.Opt(value.Absent()))
	var rs returnSignal
	for i, s := range b.Statements {
		if i == len(b.Statements)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				e.executedStatements++
				result = e.evalExpr(es.Value)
				break
			}
		}
		rs = e.execStmt(s)
		if rs.triggered {
			result = evalResult{Value: rs.value, Fresh: rs.fresh}
			break
		}
	}

	e.current = frame.Exit()
	return result, rs
}

func (e *Evaluator) makeClosure(name string, params []ast.Param, body *ast.Block) value.Value {
	id := e.nextClosure
	e.nextClosure++
	e.closures[id] = e.current

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return value.Fn(&value.Function{
		Name:    name,
		Params:  names,
		Body:    body,
		Closure: value.ClosureRef{ID: id, Present: true},
	})
}

// --- expressions ---

func (e *Evaluator) evalExpr(expr ast.Expr) evalResult {
	switch n := expr.(type) {
	case *ast.Ident:
		v, ok := e.current.Lookup(n.Name)
		if !ok {
			e.reportRuntime("undefined name '%s'", n.Name)
			return owned(value.Opt(value.Absent()))
		}
		return owned(v)

	case *ast.IntLit:
		return freshR(value.Int(n.Value))
	case *ast.FloatLit:
		return freshR(value.Float(n.Value))
	case *ast.BoolLit:
		return freshR(value.Bool(n.Value))
	case *ast.StringLit:
		return freshR(value.Str(e.evalStringLit(n)))

	case *ast.BinaryExpr:
		return freshR(e.evalBinary(n))
	case *ast.UnaryExpr:
		return freshR(e.evalUnary(n))
	case *ast.Grouping:
		return e.evalExpr(n.Inner)

	case *ast.CallExpr:
		return e.evalCall(n)

	case *ast.ArrayLit:
		elems := make([]value.Value, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = e.store(e.evalExpr(el))
		}
		h := e.Heap.RegisterComposite(value.NewArray(elems), e.Arenas.Current())
		return freshR(value.HeapRef(h))

	case *ast.StructInit:
		return freshR(e.evalStructInit(n))

	case *ast.EnumInit:
		return freshR(e.evalEnumInit(n))

	case *ast.FieldAccess:
		return e.evalFieldAccess(n)

	case *ast.FuncLit:
		return owned(e.makeClosure("", n.Params, n.Body))

	case *ast.IfExpr:
		if e.evalExpr(n.Cond).Value.Truthy() {
			r, _ := e.execBlockAsValue(n.Then)
			return r
		}
		if n.Else != nil {
			r, _ := e.execBlockAsValue(n.Else)
			return r
		}
		return owned(value.Opt(value.Absent()))

	case *ast.MatchExpr:
		return e.evalMatch(n)

	case *ast.WeakExpr:
		target := e.evalExpr(n.Target).Value
		if target.Kind != value.KindHeapComposite {
			e.reportRuntime("weak() target is not a heap composite")
			return owned(value.Opt(value.Absent()))
		}
		e.Heap.IncWeak(target.Heap)
		return freshR(value.Weak(target.Heap))

	case *ast.UnownedExpr:
		target := e.evalExpr(n.Target).Value
		if target.Kind != value.KindHeapComposite {
			e.reportRuntime("unowned() target is not a heap composite")
			return owned(value.Opt(value.Absent()))
		}
		e.Heap.IncUnowned(target.Heap)
		return freshR(value.Unowned(target.Heap))

	case *ast.AtomicExpr:
		init := e.store(e.evalExpr(n.Init))
		h := e.Heap.Register(init, e.Arenas.Current(), value.HeapAtomic)
		return freshR(value.AtomicRef(h))

	case *ast.MutexExpr:
		h := e.Heap.Register(value.Bool(false), e.Arenas.Current(), value.HeapMutex)
		return freshR(value.MutexRef(h))

	case *ast.SendExpr:
		return owned(e.evalSend(n))

	default:
		return owned(value.Opt(value.Absent()))
	}
}

func (e *Evaluator) evalStringLit(n *ast.StringLit) string {
	if !n.Interpolated() {
		var b strings.Builder
		for _, seg := range n.Segments {
			b.WriteString(seg.Literal)
		}
		return b.String()
	}
	var b strings.Builder
	for _, seg := range n.Segments {
		if seg.Expr == nil {
			b.WriteString(seg.Literal)
			continue
		}
		v := e.evalExpr(seg.Expr).Value
		b.WriteString(e.displayValue(v))
	}
	return b.String()
}

// displayValue stringifies v for interpolation/print, dereferencing
// HeapComposite handles through the heap.
func (e *Evaluator) displayValue(v value.Value) string {
	if v.Kind == value.KindHeapComposite {
		if c, ok := e.resolveComposite(v); ok {
			return displayComposite(c)
		}
		return "<dead>"
	}
	return v.String()
}

func (e *Evaluator) reportRuntime(format string, args ...any) {
	e.Sink.Addf(diag.Runtime, format, args...)
	e.handledErrors++
}

// resolveComposite dereferences a KindHeapComposite Value through the
// heap, returning its Composite payload if the object is alive.
func (e *Evaluator) resolveComposite(v value.Value) (*value.Composite, bool) {
	if v.Kind != value.KindHeapComposite {
		return nil, false
	}
	o, ok := e.Heap.Get(v.Heap)
	if !ok || !o.Alive || o.Composite == nil {
		return nil, false
	}
	return o.Composite, true
}
