// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/artlang/art/v1/ast"
)

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func TestLowerSimpleReturn(t *testing.T) {
	fn := &ast.FuncDecl{
		Name:   "id",
		Params: []ast.Param{{Name: "x"}},
		Body: &ast.Block{Statements: []ast.Stmt{
			&ast.ReturnStmt{Value: ident("x")},
		}},
	}
	f, ok := Lower(fn)
	if !ok {
		t.Fatal("expected lowerable")
	}
	RenameTemps(f)
	got := Emit(f)
	want := "func @id(i64 x) -> i64 {\n  entry:\n    ret x\n}\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerIfReturnProducesPhi(t *testing.T) {
	fn := &ast.FuncDecl{
		Name:   "pick",
		Params: []ast.Param{{Name: "cond"}},
		Body: &ast.Block{Statements: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.IfExpr{
				Cond: ident("cond"),
				Then: &ast.Block{Statements: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 1}}}},
				Else: &ast.Block{Statements: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 2}}}},
			}},
		}},
	}
	f, ok := Lower(fn)
	if !ok {
		t.Fatal("expected lowerable")
	}
	RenameTemps(f)
	merge := f.Block("merge")
	if merge == nil {
		t.Fatal("missing merge block")
	}
	if _, ok := merge.Instrs[0].(*Phi); !ok {
		t.Fatalf("expected merge block to start with a phi, got %T", merge.Instrs[0])
	}
}

func TestRenameTempsIdempotent(t *testing.T) {
	fn := &ast.FuncDecl{
		Name: "sum",
		Body: &ast.Block{Statements: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.OpAdd, Left: &ast.IntLit{Value: 1}, Right: &ast.IntLit{Value: 2}}},
		}},
	}
	f, ok := Lower(fn)
	if !ok {
		t.Fatal("expected lowerable")
	}
	RenameTemps(f)
	once := Emit(f)
	RenameTemps(f)
	twice := Emit(f)
	if once != twice {
		t.Errorf("renaming twice changed output:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
	if !strings.Contains(once, "%t0") {
		t.Errorf("expected renamed temps in output, got %s", once)
	}
}

func TestInsertPhiNodesOnExternallyBuiltIR(t *testing.T) {
	f := &Function{
		Name: "merge_ex",
		Blocks: []*Block{
			{Label: "entry", Term: &BrCond{Cond: "c", ThenLabel: "a", ElseLabel: "b"}},
			{Label: "a", Instrs: []Instr{&ConstI64{Dst: "%t0", Val: 1}}, Term: &Br{Label: "join"}},
			{Label: "b", Instrs: []Instr{&ConstI64{Dst: "%t1", Val: 2}}, Term: &Br{Label: "join"}},
			{Label: "join", Instrs: []Instr{&BinOp{Dst: "%t2", Op: "add", A: "%t0", B: "%t1"}}, Term: &Ret{Val: "%t2"}},
		},
	}
	InsertPhiNodes(f)
	join := f.Block("join")
	phi, ok := join.Instrs[0].(*Phi)
	if !ok {
		t.Fatalf("expected join to start with a phi, got %T", join.Instrs[0])
	}
	add, ok := join.Instrs[1].(*BinOp)
	if !ok {
		t.Fatalf("expected second instruction to remain the add, got %T", join.Instrs[1])
	}
	if add.A != phi.Dst && add.B != phi.Dst {
		t.Errorf("expected add operands rewritten to phi dest %s, got A=%s B=%s", phi.Dst, add.A, add.B)
	}
}
