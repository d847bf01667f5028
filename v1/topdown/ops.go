// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package topdown

import (
	"strconv"

	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/value"
)

// evalBinary implements spec.md §4.6's numeric promotion rules: Int∘Int
// stays Int, Float∘Float stays Float, a mixed pair promotes to Float,
// String+String concatenates, and any other operand pair is a Runtime
// diagnostic. Division (by an operand that is
// zero in its own kind) is a Runtime diagnostic, not a panic.
func (e *Evaluator) evalBinary(n *ast.BinaryExpr) value.Value {
	if n.Op == ast.OpAnd {
		l := e.evalExpr(n.Left).Value
		if !l.Truthy() {
			return value.Bool(false)
		}
		return value.Bool(e.evalExpr(n.Right).Value.Truthy())
	}
	if n.Op == ast.OpOr {
		l := e.evalExpr(n.Left).Value
		if l.Truthy() {
			return value.Bool(true)
		}
		return value.Bool(e.evalExpr(n.Right).Value.Truthy())
	}

	l := e.evalExpr(n.Left).Value
	r := e.evalExpr(n.Right).Value

	switch n.Op {
	case ast.OpEq:
		return value.Bool(e.equalValues(l, r))
	case ast.OpNe:
		return value.Bool(!e.equalValues(l, r))
	}

	if n.Op == ast.OpLt || n.Op == ast.OpLe || n.Op == ast.OpGt || n.Op == ast.OpGe {
		cmp, ok := numericCompare(l, r)
		if !ok {
			e.reportRuntime("cannot compare %s and %s", l.Kind, r.Kind)
			return value.Opt(value.Absent())
		}
		switch n.Op {
		case ast.OpLt:
			return value.Bool(cmp < 0)
		case ast.OpLe:
			return value.Bool(cmp <= 0)
		case ast.OpGt:
			return value.Bool(cmp > 0)
		default:
			return value.Bool(cmp >= 0)
		}
	}

	// Arithmetic: +, -, *, /
	bothInt := l.Kind == value.KindInt && r.Kind == value.KindInt
	numeric := (l.Kind == value.KindInt || l.Kind == value.KindFloat) &&
		(r.Kind == value.KindInt || r.Kind == value.KindFloat)
	if n.Op == ast.OpAdd && l.Kind == value.KindString && r.Kind == value.KindString {
		return value.Str(l.S + r.S)
	}
	if !numeric {
		e.reportRuntime("cannot apply %s to %s and %s", n.Op, l.Kind, r.Kind)
		return value.Opt(value.Absent())
	}

	if bothInt {
		if n.Op == ast.OpDiv && r.I == 0 {
			e.reportRuntime("Division by zero")
			return value.Opt(value.Absent())
		}
		switch n.Op {
		case ast.OpAdd:
			return value.Int(l.I + r.I)
		case ast.OpSub:
			return value.Int(l.I - r.I)
		case ast.OpMul:
			return value.Int(l.I * r.I)
		default:
			return value.Int(l.I / r.I)
		}
	}

	lf, rf := asFloat(l), asFloat(r)
	if n.Op == ast.OpDiv && rf == 0 {
		e.reportRuntime("Division by zero")
		return value.Opt(value.Absent())
	}
	switch n.Op {
	case ast.OpAdd:
		return value.Float(lf + rf)
	case ast.OpSub:
		return value.Float(lf - rf)
	case ast.OpMul:
		return value.Float(lf * rf)
	default:
		return value.Float(lf / rf)
	}
}

func asFloat(v value.Value) float64 {
	if v.Kind == value.KindInt {
		return float64(v.I)
	}
	return v.F
}

// numericCompare orders l and r under the same promotion rules as
// arithmetic, returning -1/0/1.
func numericCompare(l, r value.Value) (int, bool) {
	numeric := (l.Kind == value.KindInt || l.Kind == value.KindFloat) &&
		(r.Kind == value.KindInt || r.Kind == value.KindFloat)
	if numeric {
		lf, rf := asFloat(l), asFloat(r)
		switch {
		case lf < rf:
			return -1, true
		case lf > rf:
			return 1, true
		default:
			return 0, true
		}
	}
	if l.Kind == value.KindString && r.Kind == value.KindString {
		switch {
		case l.S < r.S:
			return -1, true
		case l.S > r.S:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpr) value.Value {
	v := e.evalExpr(n.Operand).Value
	switch n.Op {
	case ast.OpNot:
		return value.Bool(!v.Truthy())
	case ast.OpNeg:
		switch v.Kind {
		case value.KindInt:
			return value.Int(-v.I)
		case value.KindFloat:
			return value.Float(-v.F)
		default:
			e.reportRuntime("cannot negate %s", v.Kind)
			return value.Opt(value.Absent())
		}
	default:
		return value.Opt(value.Absent())
	}
}

// equalValues implements structural equality, dereferencing
// HeapComposite values one level (recursively) through the heap.
func (e *Evaluator) equalValues(a, b value.Value) bool {
	if a.Kind != b.Kind {
		if (a.Kind == value.KindInt || a.Kind == value.KindFloat) &&
			(b.Kind == value.KindInt || b.Kind == value.KindFloat) {
			return asFloat(a) == asFloat(b)
		}
		return false
	}
	switch a.Kind {
	case value.KindInt:
		return a.I == b.I
	case value.KindFloat:
		return a.F == b.F
	case value.KindBool:
		return a.B == b.B
	case value.KindString:
		return a.S == b.S
	case value.KindOptional:
		if a.Opt.Present != b.Opt.Present {
			return false
		}
		if !a.Opt.Present {
			return true
		}
		return e.equalValues(*a.Opt.Inner, *b.Opt.Inner)
	case value.KindWeakRef, value.KindUnownedRef, value.KindAtomic, value.KindMutex:
		return a.Heap == b.Heap
	case value.KindHeapComposite:
		if a.Heap == b.Heap {
			return true
		}
		ca, ok1 := e.resolveComposite(a)
		cb, ok2 := e.resolveComposite(b)
		if !ok1 || !ok2 {
			return ok1 == ok2
		}
		return e.equalComposite(ca, cb)
	default:
		return false
	}
}

func (e *Evaluator) equalComposite(a, b *value.Composite) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case value.CompositeArray:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !e.equalValues(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case value.CompositeStruct:
		if a.StructType != b.StructType || len(a.Fields) != len(b.Fields) {
			return false
		}
		for _, f := range a.Fields {
			bv, ok := b.Get(f.Name)
			if !ok || !e.equalValues(f.Value, bv) {
				return false
			}
		}
		return true
	case value.CompositeEnum:
		if a.Enum != b.Enum || a.Variant != b.Variant || len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if !e.equalValues(a.Values[i], b.Values[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// displayComposite renders c for print/interpolation.
func displayComposite(c *value.Composite) string {
	switch c.Kind {
	case value.CompositeArray:
		return "Array(" + strconv.Itoa(len(c.Elements)) + ")"
	case value.CompositeStruct:
		return c.StructType + "{}"
	case value.CompositeEnum:
		return c.Enum + "." + c.Variant
	default:
		return "<composite>"
	}
}
