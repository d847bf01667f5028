// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package static implements the two lints of spec.md §4.7: the
// performant-block escape lint and the actor-send-safety lint. Both are
// single-pass, syntax-directed checks over the AST — no fixpoint, no
// cross-function inference — matching the spec's explicit non-goal of
// "full type inference beyond the arity/propagation checks needed".
package static

import (
	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/diag"
)

// CheckPerformantBlocks implements spec.md §4.7 "Performant-block lint":
// inside a performant block, `return` is rejected, function declarations
// are rejected, and a `let` initialized with a composite-producing
// expression is flagged as a warning. Nested performant blocks are
// analyzed recursively.
func CheckPerformantBlocks(prog *ast.Program, sink *diag.Sink) {
	for _, s := range prog.Statements {
		walkStmtOutsideArena(s, sink)
	}
}

func walkStmtOutsideArena(s ast.Stmt, sink *diag.Sink) {
	switch n := s.(type) {
	case *ast.PerformantBlock:
		walkBlockInsideArena(n.Body, sink)
	case *ast.Block:
		for _, st := range n.Statements {
			walkStmtOutsideArena(st, sink)
		}
	case *ast.FuncDecl:
		walkStmtOutsideArena(n.Body, sink)
	case *ast.StructDecl:
		for _, m := range n.Methods {
			walkStmtOutsideArena(m.Body, sink)
		}
	case *ast.EnumDecl:
		for _, m := range n.Methods {
			walkStmtOutsideArena(m.Body, sink)
		}
	}
}

func walkBlockInsideArena(b *ast.Block, sink *diag.Sink) {
	for _, s := range b.Statements {
		switch n := s.(type) {
		case *ast.ReturnStmt:
			sink.Add(diag.Typef("return is not allowed inside a performant block").WithSpan(n.Span()))
		case *ast.FuncDecl:
			sink.Add(diag.Typef("function declarations are not allowed inside a performant block").WithSpan(n.Span()))
		case *ast.LetStmt:
			if producesComposite(n.Value) {
				sink.Add(diag.Typef("let %q is initialized with a composite value; ensure it does not escape", n.Name).WithSpan(n.Span()))
			}
		case *ast.Block:
			walkBlockInsideArena(n, sink)
		case *ast.PerformantBlock:
			walkBlockInsideArena(n.Body, sink)
		}
	}
}

// producesComposite conservatively recognizes the expression forms named
// in spec.md §4.7: "array/struct/enum/call".
func producesComposite(e ast.Expr) bool {
	switch e.(type) {
	case *ast.ArrayLit, *ast.StructInit, *ast.EnumInit, *ast.CallExpr:
		return true
	default:
		return false
	}
}

// --- Send-safety lint ---

// sendSafeEnv is the simple local type environment propagated across
// let-aliasing and function parameters, per spec.md §4.7 "Send-safety
// lint": a single-pass, conservative inference, not a unifier.
type sendSafeEnv struct {
	parent *sendSafeEnv
	safe   map[string]bool
}

func newSendSafeEnv(parent *sendSafeEnv) *sendSafeEnv {
	return &sendSafeEnv{parent: parent, safe: make(map[string]bool)}
}

func (e *sendSafeEnv) set(name string, safe bool) {
	e.safe[name] = safe
}

func (e *sendSafeEnv) lookup(name string) (bool, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.safe[name]; ok {
			return v, true
		}
	}
	return false, false
}

// CheckSendSafety implements spec.md §4.7 "Send-safety lint": calls to
// the actor-send builtin whose payload is not send-safe emit a Type
// diagnostic.
func CheckSendSafety(prog *ast.Program, sink *diag.Sink) {
	env := newSendSafeEnv(nil)
	for _, s := range prog.Statements {
		walkStmtSendSafety(s, env, sink)
	}
}

func walkStmtSendSafety(s ast.Stmt, env *sendSafeEnv, sink *diag.Sink) {
	switch n := s.(type) {
	case *ast.LetStmt:
		walkExprSendSafety(n.Value, env, sink)
		env.set(n.Name, isSendSafeExpr(n.Value, env))
	case *ast.ReturnStmt:
		if n.Value != nil {
			walkExprSendSafety(n.Value, env, sink)
		}
	case *ast.ExprStmt:
		walkExprSendSafety(n.Value, env, sink)
	case *ast.Block:
		child := newSendSafeEnv(env)
		for _, st := range n.Statements {
			walkStmtSendSafety(st, child, sink)
		}
	case *ast.PerformantBlock:
		walkStmtSendSafety(n.Body, env, sink)
	case *ast.FuncDecl:
		child := newSendSafeEnv(env)
		for _, p := range n.Params {
			child.set(p.Name, true) // parameters are assumed send-safe; nothing below revises this
		}
		walkStmtSendSafety(n.Body, child, sink)
	case *ast.StructDecl:
		for _, m := range n.Methods {
			walkStmtSendSafety(m, env, sink)
		}
	case *ast.EnumDecl:
		for _, m := range n.Methods {
			walkStmtSendSafety(m, env, sink)
		}
	}
}

func walkExprSendSafety(e ast.Expr, env *sendSafeEnv, sink *diag.Sink) {
	switch n := e.(type) {
	case nil:
		return
	case *ast.SendExpr:
		walkExprSendSafety(n.Target, env, sink)
		walkExprSendSafety(n.Payload, env, sink)
		if !isSendSafeExpr(n.Payload, env) {
			sink.Add(diag.Typef("send payload is not a send-safe type").WithSpan(n.Span()))
		}
	case *ast.CallExpr:
		walkExprSendSafety(n.Callee, env, sink)
		for _, a := range n.Args {
			walkExprSendSafety(a, env, sink)
		}
	case *ast.BinaryExpr:
		walkExprSendSafety(n.Left, env, sink)
		walkExprSendSafety(n.Right, env, sink)
	case *ast.UnaryExpr:
		walkExprSendSafety(n.Operand, env, sink)
	case *ast.Grouping:
		walkExprSendSafety(n.Inner, env, sink)
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			walkExprSendSafety(el, env, sink)
		}
	case *ast.StructInit:
		for _, f := range n.Fields {
			walkExprSendSafety(f.Value, env, sink)
		}
	case *ast.EnumInit:
		for _, a := range n.Args {
			walkExprSendSafety(a, env, sink)
		}
	case *ast.FieldAccess:
		walkExprSendSafety(n.Receiver, env, sink)
	case *ast.IfExpr:
		walkExprSendSafety(n.Cond, env, sink)
		walkStmtSendSafety(n.Then, env, sink)
		if n.Else != nil {
			walkStmtSendSafety(n.Else, env, sink)
		}
	case *ast.MatchExpr:
		walkExprSendSafety(n.Scrutinee, env, sink)
		for _, arm := range n.Arms {
			walkStmtSendSafety(arm.Body, env, sink)
		}
	}
}

// isSendSafeExpr implements the send-safe predicate of spec.md §4.7:
// "scalar (Int/Float/Bool/String) or arrays/enum instances of send-safe
// types, as inferred from the simple local type environment".
func isSendSafeExpr(e ast.Expr, env *sendSafeEnv) bool {
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.StringLit:
		return true
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			if !isSendSafeExpr(el, env) {
				return false
			}
		}
		return true
	case *ast.EnumInit:
		for _, a := range n.Args {
			if !isSendSafeExpr(a, env) {
				return false
			}
		}
		return true
	case *ast.Ident:
		if safe, ok := env.lookup(n.Name); ok {
			return safe
		}
		return false
	case *ast.Grouping:
		return isSendSafeExpr(n.Inner, env)
	default:
		return false
	}
}
