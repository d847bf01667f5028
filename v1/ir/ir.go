// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ir implements the minimal SSA intermediate representation of
// spec.md §4.8: lowering of a documented subset of function bodies,
// stable temp renaming, conservative phi insertion, and a textual format
// used for golden comparison in tests.
//
// The IR only exists to drive the AOT planner of §4.9 with a real cost
// estimate (instr_count + 2·block_count); it is not executed.
package ir

import (
	"fmt"
	"strings"
)

// Param is one function-IR parameter; every value in this IR is a 64-bit
// integer cell (spec §4.8 "phi... whose type is I64"), booleans included,
// so Type is carried only for the textual header.
type Param struct {
	Type string
	Name string
}

// Block is one labelled basic block. Term is the block's terminator
// (*Ret, *Br, or *BrCond) and is never nil once lowering has completed a
// block.
type Block struct {
	Label string
	Instrs []Instr
	Term   Instr
}

// Function is one lowered function body (spec §4.8's textual format
// header: "func @<name>(<type> <param>, …) -> <ret> {").
type Function struct {
	Name    string
	Params  []Param
	RetType string
	Blocks  []*Block
}

// Block looks up a block by label.
func (f *Function) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// AllInstrs yields every non-terminator instruction across every block in
// order, followed by the block's terminator — the order rename_temps and
// insert_phi_nodes both walk in.
func (f *Function) AllInstrs(visit func(b *Block, idx int, instr Instr)) {
	for _, b := range f.Blocks {
		for i, instr := range b.Instrs {
			visit(b, i, instr)
		}
		if b.Term != nil {
			visit(b, len(b.Instrs), b.Term)
		}
	}
}

// Instr is one IR instruction or terminator.
type Instr interface {
	// Text renders the instruction's line, without leading indentation.
	Text() string
	// Def returns the temp this instruction defines, if any.
	Def() (string, bool)
	// Uses returns every operand name this instruction reads (literals
	// and labels excluded).
	Uses() []string
	// Rename rewrites every use, and the def of Def-bearing
	// instructions, according to the mapping old->new.
	Rename(mapping map[string]string)
}

// ConstI64 materializes a literal integer into dst.
type ConstI64 struct {
	Dst string
	Val int64
}

func (i *ConstI64) Text() string            { return fmt.Sprintf("%s = const_i64 %d", i.Dst, i.Val) }
func (i *ConstI64) Def() (string, bool)     { return i.Dst, true }
func (i *ConstI64) Uses() []string          { return nil }
func (i *ConstI64) Rename(m map[string]string) {
	if v, ok := m[i.Dst]; ok {
		i.Dst = v
	}
}

// Copy aliases src into dst, used for plain "return <variable>" and
// grouping pass-through lowering.
type Copy struct {
	Dst string
	Src string
}

func (i *Copy) Text() string        { return fmt.Sprintf("%s = copy %s", i.Dst, i.Src) }
func (i *Copy) Def() (string, bool) { return i.Dst, true }
func (i *Copy) Uses() []string      { return []string{i.Src} }
func (i *Copy) Rename(m map[string]string) {
	if v, ok := m[i.Dst]; ok {
		i.Dst = v
	}
	if v, ok := m[i.Src]; ok {
		i.Src = v
	}
}

// BinOp lowers an ast.BinaryExpr (spec §4.8 case (a)) or a variable/literal
// equality materialization for match lowering (case (c), opcode "sub").
type BinOp struct {
	Dst string
	Op  string // "add", "sub", "mul", "div", "eq", "ne", "lt", "le", "gt", "ge"
	A   string
	B   string
}

func (i *BinOp) Text() string        { return fmt.Sprintf("%s = %s.i64 %s, %s", i.Dst, i.Op, i.A, i.B) }
func (i *BinOp) Def() (string, bool) { return i.Dst, true }
func (i *BinOp) Uses() []string      { return []string{i.A, i.B} }
func (i *BinOp) Rename(m map[string]string) {
	if v, ok := m[i.Dst]; ok {
		i.Dst = v
	}
	if v, ok := m[i.A]; ok {
		i.A = v
	}
	if v, ok := m[i.B]; ok {
		i.B = v
	}
}

// Call lowers a CallExpr with simple (variable/literal) arguments.
type Call struct {
	Dst    string
	Callee string
	Args   []string
}

func (i *Call) Text() string {
	return fmt.Sprintf("%s = call @%s(%s)", i.Dst, i.Callee, strings.Join(i.Args, ", "))
}
func (i *Call) Def() (string, bool) { return i.Dst, true }
func (i *Call) Uses() []string      { return append([]string(nil), i.Args...) }
func (i *Call) Rename(m map[string]string) {
	if v, ok := m[i.Dst]; ok {
		i.Dst = v
	}
	for j, a := range i.Args {
		if v, ok := m[a]; ok {
			i.Args[j] = v
		}
	}
}

// Ret is a function return terminator. Val is "" for a bare return.
type Ret struct {
	Val string
}

func (i *Ret) Text() string {
	if i.Val == "" {
		return "ret"
	}
	return fmt.Sprintf("ret %s", i.Val)
}
func (i *Ret) Def() (string, bool) { return "", false }
func (i *Ret) Uses() []string {
	if i.Val == "" {
		return nil
	}
	return []string{i.Val}
}
func (i *Ret) Rename(m map[string]string) {
	if v, ok := m[i.Val]; ok {
		i.Val = v
	}
}

// Br is an unconditional branch terminator.
type Br struct {
	Label string
}

func (i *Br) Text() string            { return fmt.Sprintf("br label %s", i.Label) }
func (i *Br) Def() (string, bool)     { return "", false }
func (i *Br) Uses() []string          { return nil }
func (i *Br) Rename(map[string]string) {}

// BrCond is a conditional branch terminator (spec §4.8 case (b)).
type BrCond struct {
	Cond      string
	ThenLabel string
	ElseLabel string
}

func (i *BrCond) Text() string {
	return fmt.Sprintf("br_cond %s, label %s, label %s", i.Cond, i.ThenLabel, i.ElseLabel)
}
func (i *BrCond) Def() (string, bool) { return "", false }
func (i *BrCond) Uses() []string      { return []string{i.Cond} }
func (i *BrCond) Rename(m map[string]string) {
	if v, ok := m[i.Cond]; ok {
		i.Cond = v
	}
}

// PhiIncoming is one (value, predecessor label) pair of a Phi.
type PhiIncoming struct {
	Val   string
	Label string
}

// Phi merges values from multiple predecessors (spec §4.8 "Phi insertion").
// Lower emits one at the merge block of its if/match shapes, before
// rename_temps runs, so Rename maps its Dst like any other def;
// insert_phi_nodes names the phis it adds itself.
type Phi struct {
	Dst      string
	Incoming []PhiIncoming
}

func (i *Phi) Text() string {
	parts := make([]string, len(i.Incoming))
	for j, in := range i.Incoming {
		parts[j] = fmt.Sprintf("[ %s, %s ]", in.Val, in.Label)
	}
	return fmt.Sprintf("%s = phi i64 %s", i.Dst, strings.Join(parts, ", "))
}
func (i *Phi) Def() (string, bool) { return i.Dst, true }
func (i *Phi) Uses() []string {
	uses := make([]string, len(i.Incoming))
	for j, in := range i.Incoming {
		uses[j] = in.Val
	}
	return uses
}
func (i *Phi) Rename(m map[string]string) {
	if v, ok := m[i.Dst]; ok {
		i.Dst = v
	}
	for j := range i.Incoming {
		if v, ok := m[i.Incoming[j].Val]; ok {
			i.Incoming[j].Val = v
		}
	}
}

// Emit renders f in the bit-exact textual format of spec §4.8.
func Emit(f *Function) string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %s", p.Type, p.Name)
	}
	fmt.Fprintf(&b, "func @%s(%s) -> %s {\n", f.Name, strings.Join(params, ", "), f.RetType)
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "  %s:\n", blk.Label)
		for _, instr := range blk.Instrs {
			fmt.Fprintf(&b, "    %s\n", instr.Text())
		}
		if blk.Term != nil {
			fmt.Fprintf(&b, "    %s\n", blk.Term.Text())
		}
	}
	b.WriteString("}\n")
	return b.String()
}
