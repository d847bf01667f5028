// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package static

import (
	"testing"

	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/diag"
)

func TestCheckPerformantBlocksRejectsReturn(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.PerformantBlock{Body: &ast.Block{Statements: []ast.Stmt{&ast.ReturnStmt{}}}},
	}}
	sink := &diag.Sink{}
	CheckPerformantBlocks(prog, sink)

	if sink.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", sink.Len())
	}
}

func TestCheckPerformantBlocksRejectsFuncDecl(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.PerformantBlock{Body: &ast.Block{Statements: []ast.Stmt{&ast.FuncDecl{Name: "f"}}}},
	}}
	sink := &diag.Sink{}
	CheckPerformantBlocks(prog, sink)

	if sink.Len() != 1 {
		t.Fatalf("function declarations inside a performant block should be rejected, got %d diagnostics", sink.Len())
	}
}

func TestCheckPerformantBlocksWarnsOnCompositeLet(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.PerformantBlock{Body: &ast.Block{Statements: []ast.Stmt{
			&ast.LetStmt{Name: "xs", Value: &ast.ArrayLit{}},
		}}},
	}}
	sink := &diag.Sink{}
	CheckPerformantBlocks(prog, sink)

	if sink.Len() != 1 {
		t.Fatalf("a let bound to a composite-producing expression should warn, got %d diagnostics", sink.Len())
	}
}

func TestCheckPerformantBlocksAllowsScalarLet(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.PerformantBlock{Body: &ast.Block{Statements: []ast.Stmt{
			&ast.LetStmt{Name: "n", Value: &ast.IntLit{Value: 1}},
		}}},
	}}
	sink := &diag.Sink{}
	CheckPerformantBlocks(prog, sink)

	if sink.Len() != 0 {
		t.Errorf("a let bound to a scalar literal must not be flagged, got %d diagnostics", sink.Len())
	}
}

func TestCheckSendSafetyRejectsCompositeIdentPayload(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.LetStmt{Name: "box", Value: &ast.StructInit{Type: "Node", Fields: []ast.FieldInit{{Name: "n", Value: &ast.IntLit{Value: 1}}}}},
		&ast.ExprStmt{Value: &ast.SendExpr{Target: &ast.Ident{Name: "mailbox"}, Payload: &ast.Ident{Name: "box"}}},
	}}
	sink := &diag.Sink{}
	CheckSendSafety(prog, sink)

	if sink.Len() != 1 {
		t.Fatalf("sending a struct-typed local should be flagged as not send-safe, got %d diagnostics", sink.Len())
	}
}

func TestCheckSendSafetyAllowsScalarLiteralPayload(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.SendExpr{Target: &ast.Ident{Name: "mailbox"}, Payload: &ast.IntLit{Value: 1}}},
	}}
	sink := &diag.Sink{}
	CheckSendSafety(prog, sink)

	if sink.Len() != 0 {
		t.Errorf("sending a scalar literal must never be flagged, got %d diagnostics", sink.Len())
	}
}

func TestCheckSendSafetyAllowsArrayOfScalars(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.SendExpr{
			Target:  &ast.Ident{Name: "mailbox"},
			Payload: &ast.ArrayLit{Elements: []ast.Expr{&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}}},
		}},
	}}
	sink := &diag.Sink{}
	CheckSendSafety(prog, sink)

	if sink.Len() != 0 {
		t.Errorf("an array of scalars is send-safe by spec.md §4.7, got %d diagnostics", sink.Len())
	}
}
