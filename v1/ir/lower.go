// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"

	"github.com/artlang/art/v1/ast"
)

// localPrefix marks a pre-rename temp as a function-local candidate
// (spec §4.8 "Temp renaming": "those matching the function's local prefix
// and not already of the renamed form %t<digits>"). Parameters and labels
// never carry this prefix and are therefore left untouched by RenameTemps.
const localPrefix = "%v"

// Lower lowers fn per the documented subset of spec §4.8: (a) a single
// Return of a variable/literal/binary/grouping/simple-arg call, (b) a
// single if-expression statement whose condition is a variable or Bool
// literal and whose arms each return a variable/literal/binary, (c) a
// two-arm match over a variable scrutinee with a literal pattern plus a
// wildcard. Anything else reports ok=false — Lower never guesses at a
// contract for an unsupported shape.
func Lower(fn *ast.FuncDecl) (f *Function, ok bool) {
	if len(fn.Body.Statements) != 1 {
		return nil, false
	}
	params := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = Param{Type: "i64", Name: p.Name}
	}

	switch s := fn.Body.Statements[0].(type) {
	case *ast.ReturnStmt:
		return lowerSimpleReturn(fn.Name, params, s)
	case *ast.ExprStmt:
		switch e := s.Value.(type) {
		case *ast.IfExpr:
			return lowerIfReturn(fn.Name, params, e)
		case *ast.MatchExpr:
			return lowerMatchReturn(fn.Name, params, e)
		}
	}
	return nil, false
}

func newTempFunc() func() string {
	n := 0
	return func() string {
		t := fmt.Sprintf("%s%d", localPrefix, n)
		n++
		return t
	}
}

func binOpcode(op ast.BinOp) (string, bool) {
	switch op {
	case ast.OpAdd:
		return "add", true
	case ast.OpSub:
		return "sub", true
	case ast.OpMul:
		return "mul", true
	case ast.OpDiv:
		return "div", true
	case ast.OpEq:
		return "eq", true
	case ast.OpNe:
		return "ne", true
	case ast.OpLt:
		return "lt", true
	case ast.OpLe:
		return "le", true
	case ast.OpGt:
		return "gt", true
	case ast.OpGe:
		return "ge", true
	default: // OpAnd/OpOr: short-circuit control flow, not in the lowerable subset
		return "", false
	}
}

// lowerSimpleExpr lowers e into zero or more instructions plus the name
// carrying its value, restricted to the expression forms named in spec
// §4.8 case (a).
func lowerSimpleExpr(e ast.Expr, newTemp func() string) ([]Instr, string, bool) {
	switch n := e.(type) {
	case *ast.Ident:
		return nil, n.Name, true

	case *ast.IntLit:
		t := newTemp()
		return []Instr{&ConstI64{Dst: t, Val: n.Value}}, t, true

	case *ast.BoolLit:
		t := newTemp()
		var v int64
		if n.Value {
			v = 1
		}
		return []Instr{&ConstI64{Dst: t, Val: v}}, t, true

	case *ast.Grouping:
		return lowerSimpleExpr(n.Inner, newTemp)

	case *ast.BinaryExpr:
		opcode, ok := binOpcode(n.Op)
		if !ok {
			return nil, "", false
		}
		linstrs, lval, lok := lowerSimpleExpr(n.Left, newTemp)
		rinstrs, rval, rok := lowerSimpleExpr(n.Right, newTemp)
		if !lok || !rok {
			return nil, "", false
		}
		t := newTemp()
		instrs := append(append(linstrs, rinstrs...), &BinOp{Dst: t, Op: opcode, A: lval, B: rval})
		return instrs, t, true

	case *ast.CallExpr:
		callee, ok := n.Callee.(*ast.Ident)
		if !ok {
			return nil, "", false
		}
		var instrs []Instr
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			ainstrs, aval, aok := lowerSimpleExpr(a, newTemp)
			if !aok {
				return nil, "", false
			}
			instrs = append(instrs, ainstrs...)
			args[i] = aval
		}
		t := newTemp()
		instrs = append(instrs, &Call{Dst: t, Callee: callee.Name, Args: args})
		return instrs, t, true

	default:
		return nil, "", false
	}
}

func lowerSimpleReturn(name string, params []Param, ret *ast.ReturnStmt) (*Function, bool) {
	newTemp := newTempFunc()
	if ret.Value == nil {
		return &Function{Name: name, Params: params, RetType: "i64", Blocks: []*Block{
			{Label: "entry", Term: &Ret{}},
		}}, true
	}
	instrs, val, ok := lowerSimpleExpr(ret.Value, newTemp)
	if !ok {
		return nil, false
	}
	return &Function{Name: name, Params: params, RetType: "i64", Blocks: []*Block{
		{Label: "entry", Instrs: instrs, Term: &Ret{Val: val}},
	}}, true
}

// singleReturn extracts the lone ReturnStmt from a block, the shape spec
// §4.8 case (b) requires of each if-arm.
func singleReturn(b *ast.Block) (*ast.ReturnStmt, bool) {
	if len(b.Statements) != 1 {
		return nil, false
	}
	ret, ok := b.Statements[0].(*ast.ReturnStmt)
	return ret, ok
}

func lowerIfReturn(name string, params []Param, ifx *ast.IfExpr) (*Function, bool) {
	if ifx.Else == nil {
		return nil, false
	}
	newTemp := newTempFunc()

	var condInstrs []Instr
	var condVal string
	switch c := ifx.Cond.(type) {
	case *ast.Ident:
		condVal = c.Name
	case *ast.BoolLit:
		t := newTemp()
		var v int64
		if c.Value {
			v = 1
		}
		condInstrs = []Instr{&ConstI64{Dst: t, Val: v}}
		condVal = t
	default:
		return nil, false
	}

	thenRet, ok := singleReturn(ifx.Then)
	if !ok {
		return nil, false
	}
	elseRet, ok := singleReturn(ifx.Else)
	if !ok {
		return nil, false
	}
	thenInstrs, thenVal, ok := lowerSimpleExpr(thenRet.Value, newTemp)
	if !ok {
		return nil, false
	}
	elseInstrs, elseVal, ok := lowerSimpleExpr(elseRet.Value, newTemp)
	if !ok {
		return nil, false
	}

	mergeVal := newTemp()
	blocks := []*Block{
		{Label: "entry", Instrs: condInstrs, Term: &BrCond{Cond: condVal, ThenLabel: "then", ElseLabel: "else"}},
		{Label: "then", Instrs: thenInstrs, Term: &Br{Label: "merge"}},
		{Label: "else", Instrs: elseInstrs, Term: &Br{Label: "merge"}},
		{Label: "merge", Instrs: []Instr{&Phi{Dst: mergeVal, Incoming: []PhiIncoming{
			{Val: thenVal, Label: "then"},
			{Val: elseVal, Label: "else"},
		}}}, Term: &Ret{Val: mergeVal}},
	}
	return &Function{Name: name, Params: params, RetType: "i64", Blocks: blocks}, true
}

// lowerMatchReturn lowers a two-arm match over a variable scrutinee with a
// literal pattern in the first arm and a wildcard in the second (spec
// §4.8 case (c)), materializing the comparison with a subtraction branched
// on non-zero. Enum-variant patterns are not lowered by this function —
// see §9's own admission that binding materialization for them is a
// recorded simplification; extending that to full variant-tag comparison
// is future work, not a guessed contract.
func lowerMatchReturn(name string, params []Param, mx *ast.MatchExpr) (*Function, bool) {
	if len(mx.Arms) != 2 {
		return nil, false
	}
	scrutinee, ok := mx.Scrutinee.(*ast.Ident)
	if !ok {
		return nil, false
	}
	lit, ok := mx.Arms[0].Pattern.(*ast.LiteralPattern)
	if !ok || mx.Arms[0].Guard != nil {
		return nil, false
	}
	if _, ok := mx.Arms[1].Pattern.(*ast.WildcardPattern); !ok || mx.Arms[1].Guard != nil {
		return nil, false
	}
	litInt, ok := lit.Value.(*ast.IntLit)
	if !ok {
		return nil, false
	}

	newTemp := newTempFunc()
	matchRet, ok := singleReturn(mx.Arms[0].Body)
	if !ok {
		return nil, false
	}
	wildRet, ok := singleReturn(mx.Arms[1].Body)
	if !ok {
		return nil, false
	}
	matchInstrs, matchVal, ok := lowerSimpleExpr(matchRet.Value, newTemp)
	if !ok {
		return nil, false
	}
	wildInstrs, wildVal, ok := lowerSimpleExpr(wildRet.Value, newTemp)
	if !ok {
		return nil, false
	}

	diff := newTemp()
	mergeVal := newTemp()
	blocks := []*Block{
		{Label: "entry",
			Instrs: []Instr{&BinOp{Dst: diff, Op: "sub", A: scrutinee.Name, B: fmt.Sprintf("%d", litInt.Value)}},
			Term:   &BrCond{Cond: diff, ThenLabel: "wild", ElseLabel: "match"},
		},
		{Label: "match", Instrs: matchInstrs, Term: &Br{Label: "merge"}},
		{Label: "wild", Instrs: wildInstrs, Term: &Br{Label: "merge"}},
		{Label: "merge", Instrs: []Instr{&Phi{Dst: mergeVal, Incoming: []PhiIncoming{
			{Val: matchVal, Label: "match"},
			{Val: wildVal, Label: "wild"},
		}}}, Term: &Ret{Val: mergeVal}},
	}
	return &Function{Name: name, Params: params, RetType: "i64", Blocks: blocks}, true
}
