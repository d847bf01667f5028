// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/environment"
	"github.com/artlang/art/v1/value"
)

// didYouMean appends a Levenshtein-nearest suggestion from candidates to
// a "Missing field"/"unknown" diagnostic when one is close enough to be
// a plausible typo, per SPEC_FULL.md's evaluator "did you mean" note.
// maxSuggestDistance keeps an unrelated field name from ever being
// offered as a suggestion.
const maxSuggestDistance = 2

func didYouMean(name string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			bestDist, best = d, c
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean '%s'?)", best)
}

// evalStructInit implements spec.md §4.6 "Struct init": fields are
// evaluated in source order for their side effects; a field missing from
// the declaration, or a required field the literal never supplies, is
// reported without aborting construction (the accumulate-and-continue
// error policy) — absent values fill the gaps so evaluation can proceed.
func (e *Evaluator) evalStructInit(n *ast.StructInit) value.Value {
	def, ok := e.Types.Struct(n.Type)
	if !ok {
		e.reportRuntime("unknown struct type '%s'", n.Type)
		return value.Opt(value.Absent())
	}

	provided := make(map[string]value.Value, len(n.Fields))
	for _, f := range n.Fields {
		v := e.store(e.evalExpr(f.Value))
		if !def.HasField(f.Name) {
			e.reportRuntime("Missing field '%s'%s", f.Name, didYouMean(f.Name, def.Fields))
			continue
		}
		provided[f.Name] = v
	}
	for _, name := range def.Fields {
		if _, ok := provided[name]; !ok {
			e.reportRuntime("Missing field '%s'", name)
		}
	}

	fields := make([]value.FieldValue, len(def.Fields))
	for i, name := range def.Fields {
		v, ok := provided[name]
		if !ok {
			v = value.Opt(value.Absent())
		}
		fields[i] = value.FieldValue{Name: name, Value: v}
	}

	h := e.Heap.RegisterComposite(value.NewStruct(n.Type, fields), e.Arenas.Current())
	return value.HeapRef(h)
}

// evalEnumInit implements spec.md §4.6 "Enum init": the explicit form
// names its enum; the shorthand form resolves the variant name against
// every registered enum, reporting ambiguous or absent matches.
func (e *Evaluator) evalEnumInit(n *ast.EnumInit) value.Value {
	var enumName string
	var arity int

	if n.Enum != nil {
		def, ok := e.Types.Enum(*n.Enum)
		if !ok {
			e.reportRuntime("unknown enum type '%s'", *n.Enum)
			return value.Opt(value.Absent())
		}
		variant, ok := def.Variants[n.Variant]
		if !ok {
			e.reportRuntime("unknown variant '%s' of enum '%s'", n.Variant, *n.Enum)
			return value.Opt(value.Absent())
		}
		enumName, arity = def.Name, variant.Arity
	} else {
		res := e.Types.ResolveShorthandVariant(n.Variant)
		if res.Err != nil {
			e.reportRuntime("%s", res.Err.Error())
			return value.Opt(value.Absent())
		}
		enumName, arity = res.Enum.Name, res.Variant.Arity
	}

	if len(n.Args) != arity {
		e.reportRuntime("variant '%s' expects %d argument(s), got %d", n.Variant, arity, len(n.Args))
		return value.Opt(value.Absent())
	}

	values := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		values[i] = e.store(e.evalExpr(a))
	}

	h := e.Heap.RegisterComposite(value.NewEnum(enumName, n.Variant, values), e.Arenas.Current())
	return value.HeapRef(h)
}

// evalFieldAccess implements spec.md §4.6 "Field access": the array
// builtin fields sum/count, struct field lookup falling back to a
// self-bound method, and enum method-only dispatch.
func (e *Evaluator) evalFieldAccess(n *ast.FieldAccess) evalResult {
	recv := e.evalExpr(n.Receiver).Value

	if recv.Kind == value.KindAtomic || recv.Kind == value.KindMutex {
		// Resolved as a call target by evalCall; bare field access on one
		// of these cells (no call parens) has no meaning.
		e.reportRuntime("Missing field '%s'", n.Name)
		return owned(value.Opt(value.Absent()))
	}

	c, ok := e.resolveComposite(recv)
	if !ok {
		e.reportRuntime("Missing field '%s'", n.Name)
		return owned(value.Opt(value.Absent()))
	}

	switch c.Kind {
	case value.CompositeArray:
		switch n.Name {
		case "count":
			return owned(value.Int(int64(len(c.Elements))))
		case "sum":
			return owned(e.arraySum(c))
		}
		e.reportRuntime("Missing field '%s'", n.Name)
		return owned(value.Opt(value.Absent()))

	case value.CompositeStruct:
		if v, ok := c.Get(n.Name); ok {
			return owned(v)
		}
		def, _ := e.Types.Struct(c.StructType)
		if def != nil {
			if m, ok := def.Methods[n.Name]; ok {
				return owned(e.bindMethod(m, recv))
			}
		}
		e.reportRuntime("Missing field '%s'", n.Name)
		return owned(value.Opt(value.Absent()))

	case value.CompositeEnum:
		def, _ := e.Types.Enum(c.Enum)
		if def != nil {
			if m, ok := def.Methods[n.Name]; ok {
				return owned(e.bindMethod(m, recv))
			}
		}
		e.reportRuntime("Missing field '%s'", n.Name)
		return owned(value.Opt(value.Absent()))

	default:
		e.reportRuntime("Missing field '%s'", n.Name)
		return owned(value.Opt(value.Absent()))
	}
}

// arraySum sums an array's elements if every element is Int, reporting a
// diagnostic otherwise (spec.md §4.6 "Field access": array builtin field
// "sum").
func (e *Evaluator) arraySum(c *value.Composite) value.Value {
	var sum int64
	for _, el := range c.Elements {
		if el.Kind != value.KindInt {
			e.reportRuntime("sum requires an Int array")
			return value.Opt(value.Absent())
		}
		sum += el.I
	}
	return value.Int(sum)
}

func (e *Evaluator) bindMethod(decl *ast.FuncDecl, self value.Value) value.Value {
	names := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		names[i] = p.Name
	}
	return value.Fn(&value.Function{
		Name:      decl.Name,
		Params:    names,
		Body:      decl.Body,
		BoundSelf: &self,
	})
}

// evalCall implements spec.md §4.6 "Functions": user-function and bound-
// method invocation, plus the small closed set of builtins (print,
// register_finalizer, receive, and the Atomic/Mutex cell operations of
// spec.md §5, which are dispatched by receiver kind rather than by name
// since Atomic/Mutex never carry methods in the type registry).
func (e *Evaluator) evalCall(n *ast.CallExpr) evalResult {
	if id, ok := n.Callee.(*ast.Ident); ok {
		switch id.Name {
		case "print":
			e.evalPrint(n.Args)
			return owned(value.Opt(value.Absent()))
		case "register_finalizer":
			return owned(e.evalRegisterFinalizer(n.Args))
		case "receive":
			return owned(e.evalReceive(n.Args))
		}
	}

	if fa, ok := n.Callee.(*ast.FieldAccess); ok {
		recv := e.evalExpr(fa.Receiver).Value
		switch recv.Kind {
		case value.KindAtomic:
			return owned(e.evalAtomicOp(recv.Heap, fa.Name, n.Args))
		case value.KindMutex:
			return owned(e.evalMutexOp(recv.Heap, fa.Name, n.Args))
		}
	}

	fnVal := e.evalExpr(n.Callee).Value
	return e.callFunction(fnVal, n.Args)
}

func (e *Evaluator) evalPrint(args []ast.Expr) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.displayValue(e.evalExpr(a).Value)
	}
	fmt.Println(strings.Join(parts, " "))
}

func (e *Evaluator) evalRegisterFinalizer(args []ast.Expr) value.Value {
	if len(args) != 2 {
		e.reportRuntime("register_finalizer expects 2 arguments, got %d", len(args))
		return value.Opt(value.Absent())
	}
	target := e.evalExpr(args[0]).Value
	fnVal := e.evalExpr(args[1]).Value
	if target.Kind != value.KindHeapComposite {
		e.reportRuntime("register_finalizer target is not a heap composite")
		return value.Opt(value.Absent())
	}
	if fnVal.Kind != value.KindFunction {
		e.reportRuntime("register_finalizer finalizer is not a function")
		return value.Opt(value.Absent())
	}
	e.Fin.RegisterFinalizer(target.Heap, fnVal.Fn)
	return value.Bool(true)
}

func (e *Evaluator) callFunction(fnVal value.Value, argExprs []ast.Expr) evalResult {
	if fnVal.Kind != value.KindFunction || fnVal.Fn == nil {
		e.reportRuntime("value is not callable")
		return owned(value.Opt(value.Absent()))
	}
	fn := fnVal.Fn
	if len(argExprs) != len(fn.Params) {
		e.reportRuntime("function '%s' expects %d argument(s), got %d", fn.Name, len(fn.Params), len(argExprs))
		return owned(value.Opt(value.Absent()))
	}

	parent := e.root
	if fn.Closure.Present {
		if p, ok := e.closures[fn.Closure.ID]; ok {
			parent = p
		}
	}
	frame := environment.Push(parent)
	if fn.BoundSelf != nil {
		frame.DefineLocal("self", *fn.BoundSelf)
	}
	for i, p := range fn.Params {
		frame.Define(p, e.store(e.evalExpr(argExprs[i])))
	}

	prev := e.current
	e.current = frame
	body, _ := fn.Body.(*ast.Block)
	result := owned(value.Opt(value.Absent()))
	if body != nil {
		result, _ = e.execBlockAsValue(body)
	}
	e.current = frame.Exit()
	e.current = prev
	return result
}

// --- Atomic / Mutex cell operations (spec.md §5) ---

func (e *Evaluator) evalAtomicOp(h value.Handle, op string, args []ast.Expr) value.Value {
	switch op {
	case "load":
		v, ok := e.Heap.GetScalar(h)
		if !ok {
			e.reportRuntime("atomic cell is dead")
			return value.Opt(value.Absent())
		}
		return v
	case "store":
		if len(args) != 1 {
			e.reportRuntime("atomic store expects 1 argument")
			return value.Opt(value.Absent())
		}
		v := e.evalExpr(args[0]).Value
		e.Heap.SetScalar(h, v)
		return value.Opt(value.Absent())
	case "add":
		if len(args) != 1 {
			e.reportRuntime("atomic add expects 1 argument")
			return value.Opt(value.Absent())
		}
		delta := e.evalExpr(args[0]).Value
		if delta.Kind != value.KindInt {
			e.reportRuntime("atomic add delta must be Int")
			return value.Opt(value.Absent())
		}
		newVal, overflow := e.Heap.AtomicAdd(h, delta.I)
		if overflow {
			e.reportRuntime("atomic_add overflow")
			return value.Opt(value.Absent())
		}
		return value.Int(newVal)
	default:
		e.reportRuntime("Missing field '%s'", op)
		return value.Opt(value.Absent())
	}
}

func (e *Evaluator) evalMutexOp(h value.Handle, op string, args []ast.Expr) value.Value {
	switch op {
	case "lock":
		v, ok := e.Heap.GetScalar(h)
		if !ok {
			e.reportRuntime("mutex cell is dead")
			return value.Opt(value.Absent())
		}
		if v.B {
			e.reportRuntime("mutex already locked")
			return value.Bool(false)
		}
		e.Heap.SetScalar(h, value.Bool(true))
		return value.Bool(true)
	case "unlock":
		v, ok := e.Heap.GetScalar(h)
		if !ok {
			e.reportRuntime("mutex cell is dead")
			return value.Opt(value.Absent())
		}
		if !v.B {
			e.reportRuntime("double unlock")
			return value.Bool(false)
		}
		e.Heap.SetScalar(h, value.Bool(false))
		return value.Bool(true)
	default:
		e.reportRuntime("Missing field '%s'", op)
		return value.Opt(value.Absent())
	}
}

// evalSend implements the supplemented actor/mailbox extension
// (SPEC_FULL.md "Actor/mailbox extension"). The send-safety lint
// (spec.md §4.7) already rejected non-send-safe payloads statically;
// at runtime this enqueues the payload into Target's mailbox. Target
// must be a heap-backed value (its handle is the mailbox's address);
// anything else, or the extension being disabled, reports failure.
func (e *Evaluator) evalSend(n *ast.SendExpr) value.Value {
	target := e.evalExpr(n.Target).Value
	payload := e.evalExpr(n.Payload).Value

	if !target.IsHeapRef() {
		e.reportRuntime("send target is not addressable")
		return value.Bool(false)
	}
	if !e.Actors.Send(target.Heap, payload) {
		e.reportRuntime("actor mailbox extension is disabled")
		return value.Bool(false)
	}
	e.log.WithField("component", "actor").Debug("queued actor send")
	return value.Bool(true)
}

// evalReceive implements the mailbox's drain side: `receive(target)`
// dequeues the oldest pending message for target, if any, as an
// Optional — synchronous and on the caller's own goroutine, never a
// background delivery loop (SPEC_FULL.md "Actor/mailbox extension").
func (e *Evaluator) evalReceive(args []ast.Expr) value.Value {
	if len(args) != 1 {
		e.reportRuntime("receive expects 1 argument, got %d", len(args))
		return value.Opt(value.Absent())
	}
	target := e.evalExpr(args[0]).Value
	if !target.IsHeapRef() {
		e.reportRuntime("receive target is not addressable")
		return value.Opt(value.Absent())
	}
	v, ok := e.Actors.Receive(target.Heap)
	if !ok {
		return value.Opt(value.Absent())
	}
	return value.Opt(value.Some(v))
}

// --- pattern matching (spec.md §4.6 "Pattern matching") ---

func (e *Evaluator) evalMatch(n *ast.MatchExpr) evalResult {
	scrutinee := e.evalExpr(n.Scrutinee).Value
	for _, arm := range n.Arms {
		bindings := map[string]value.Value{}
		if !e.matchPattern(arm.Pattern, scrutinee, bindings) {
			continue
		}

		armScope := environment.Push(e.current)
		for name, v := range bindings {
			armScope.Define(name, e.store(owned(v)))
		}

		prev := e.current
		e.current = armScope
		if arm.Guard != nil {
			guardVal := e.evalExpr(arm.Guard).Value
			if !guardVal.Truthy() {
				e.current = armScope.Exit()
				e.current = prev
				continue
			}
		}
		result, _ := e.execBlockAsValue(arm.Body)
		e.current = armScope.Exit()
		e.current = prev
		return result
	}
	e.reportRuntime("no match arm matched")
	return owned(value.Opt(value.Absent()))
}

// matchPattern attempts to match v against p, recording any introduced
// bindings into out. It does not mutate scope state itself; the caller
// decides where to define the bindings.
func (e *Evaluator) matchPattern(p ast.Pattern, v value.Value, out map[string]value.Value) bool {
	switch pat := p.(type) {
	case *ast.WildcardPattern:
		return true
	case *ast.BindingPattern:
		out[pat.Name] = v
		return true
	case *ast.LiteralPattern:
		lit := e.evalExpr(pat.Value).Value
		return e.equalValues(lit, v)
	case *ast.EnumVariantPattern:
		c, ok := e.resolveComposite(v)
		if !ok || c.Kind != value.CompositeEnum {
			return false
		}
		if pat.Enum != nil && *pat.Enum != c.Enum {
			return false
		}
		if pat.Variant != c.Variant {
			return false
		}
		if len(pat.Fields) != len(c.Values) {
			return false
		}
		for i, fp := range pat.Fields {
			if !e.matchPattern(fp, c.Values[i], out) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
