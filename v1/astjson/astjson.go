// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package astjson decodes the JSON encoding of an ast.Program that cmd/art
// reads from its `run`/`metrics` input file.
//
// spec.md §1 scopes the lexer/parser out of this module ("Parser handoff
// (in)... consumed, not implemented here"); rather than guess at a
// grammar and hand-write a lexer/parser that spec.md explicitly declines
// to contract, cmd/art accepts the *already-parsed* shape §6 names
// directly: a JSON-encoded Program. This package is that decoder — the
// thin adapter a real front end's AST-to-JSON serializer would target.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/artlang/art/v1/ast"
	"github.com/artlang/art/v1/util"
)

// DecodeProgram decodes a JSON-encoded Program.
func DecodeProgram(bs []byte) (*ast.Program, error) {
	var raw struct {
		Statements []json.RawMessage `json:"statements"`
	}
	if err := util.Unmarshal(bs, &raw); err != nil {
		return nil, fmt.Errorf("astjson: decode program: %w", err)
	}
	stmts := make([]ast.Stmt, len(raw.Statements))
	for i, s := range raw.Statements {
		stmt, err := decodeStmt(s)
		if err != nil {
			return nil, fmt.Errorf("astjson: statement %d: %w", i, err)
		}
		stmts[i] = stmt
	}
	return &ast.Program{Statements: stmts}, nil
}

// decodeKind peeks at the discriminator field of a statement, expression,
// or pattern node. It runs once per AST node in the decoded program, making
// it the single most-repeated small-JSON-unmarshal call in this package —
// the pooled-buffer path (util.UnmarshalJSONWithPool) earns its keep here.
func decodeKind(bs json.RawMessage, field string) (string, error) {
	var head map[string]json.RawMessage
	if err := util.UnmarshalJSONWithPool(bs, &head); err != nil {
		return "", err
	}
	kindRaw, ok := head[field]
	if !ok {
		return "", fmt.Errorf("missing %q discriminator", field)
	}
	var kind string
	if err := json.Unmarshal(kindRaw, &kind); err != nil {
		return "", err
	}
	return kind, nil
}

func decodeStmt(bs json.RawMessage) (ast.Stmt, error) {
	kind, err := decodeKind(bs, "stmt")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "let":
		var n struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		val, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.LetStmt{Name: n.Name, Value: val}, nil

	case "return":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		if len(n.Value) == 0 || string(n.Value) == "null" {
			return &ast.ReturnStmt{}, nil
		}
		val, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Value: val}, nil

	case "expr":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		val, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Value: val}, nil

	case "block":
		return decodeBlockFromRaw(bs)

	case "performant_block":
		var n struct {
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		body, err := decodeBlockFromRaw(n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.PerformantBlock{Body: body}, nil

	case "func_decl":
		var n struct {
			Name   string          `json:"name"`
			Params []string        `json:"params"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		body, err := decodeBlockFromRaw(n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.FuncDecl{Name: n.Name, Params: toParams(n.Params), Body: body}, nil

	case "struct_decl":
		var n struct {
			Name    string          `json:"name"`
			Fields  []string        `json:"fields"`
			Methods []json.RawMessage `json:"methods"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		methods, err := decodeMethods(n.Methods)
		if err != nil {
			return nil, err
		}
		return &ast.StructDecl{Name: n.Name, Fields: n.Fields, Methods: methods}, nil

	case "enum_decl":
		var n struct {
			Name     string `json:"name"`
			Variants []struct {
				Name   string   `json:"name"`
				Fields []string `json:"fields"`
			} `json:"variants"`
			Methods []json.RawMessage `json:"methods"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		variants := make([]ast.EnumVariant, len(n.Variants))
		for i, v := range n.Variants {
			variants[i] = ast.EnumVariant{Name: v.Name, Fields: v.Fields}
		}
		methods, err := decodeMethods(n.Methods)
		if err != nil {
			return nil, err
		}
		return &ast.EnumDecl{Name: n.Name, Variants: variants, Methods: methods}, nil

	default:
		return nil, fmt.Errorf("unknown stmt kind %q", kind)
	}
}

func decodeMethods(raws []json.RawMessage) ([]*ast.FuncDecl, error) {
	methods := make([]*ast.FuncDecl, len(raws))
	for i, r := range raws {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		fd, ok := s.(*ast.FuncDecl)
		if !ok {
			return nil, fmt.Errorf("method %d: expected func_decl", i)
		}
		methods[i] = fd
	}
	return methods, nil
}

func decodeBlockFromRaw(bs json.RawMessage) (*ast.Block, error) {
	var n struct {
		Statements []json.RawMessage `json:"statements"`
	}
	if err := json.Unmarshal(bs, &n); err != nil {
		return nil, err
	}
	stmts := make([]ast.Stmt, len(n.Statements))
	for i, s := range n.Statements {
		stmt, err := decodeStmt(s)
		if err != nil {
			return nil, err
		}
		stmts[i] = stmt
	}
	return &ast.Block{Statements: stmts}, nil
}

func toParams(names []string) []ast.Param {
	params := make([]ast.Param, len(names))
	for i, n := range names {
		params[i] = ast.Param{Name: n}
	}
	return params
}

func decodeExpr(bs json.RawMessage) (ast.Expr, error) {
	kind, err := decodeKind(bs, "expr")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "ident":
		var n struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		return &ast.Ident{Name: n.Name}, nil

	case "int":
		var n struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		return &ast.IntLit{Value: n.Value}, nil

	case "float":
		var n struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		return &ast.FloatLit{Value: n.Value}, nil

	case "bool":
		var n struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		return &ast.BoolLit{Value: n.Value}, nil

	case "string":
		var n struct {
			Segments []struct {
				Literal string          `json:"literal"`
				Expr    json.RawMessage `json:"expr"`
			} `json:"segments"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		segs := make([]ast.StringSegment, len(n.Segments))
		for i, s := range n.Segments {
			seg := ast.StringSegment{Literal: s.Literal}
			if len(s.Expr) > 0 && string(s.Expr) != "null" {
				e, err := decodeExpr(s.Expr)
				if err != nil {
					return nil, err
				}
				seg.Expr = e
			}
			segs[i] = seg
		}
		return &ast.StringLit{Segments: segs}, nil

	case "binary":
		var n struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: ast.BinOp(n.Op), Left: left, Right: right}, nil

	case "unary":
		var n struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.UnaryOp(n.Op), Operand: operand}, nil

	case "group":
		var n struct {
			Inner json.RawMessage `json:"inner"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		inner, err := decodeExpr(n.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.Grouping{Inner: inner}, nil

	case "call":
		var n struct {
			Callee json.RawMessage   `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		callee, err := decodeExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Callee: callee, Args: args}, nil

	case "array":
		var n struct {
			Elements []json.RawMessage `json:"elements"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		elems, err := decodeExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Elements: elems}, nil

	case "struct_init":
		var n struct {
			Type   string `json:"type"`
			Fields []struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"fields"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		fields := make([]ast.FieldInit, len(n.Fields))
		for i, f := range n.Fields {
			v, err := decodeExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.FieldInit{Name: f.Name, Value: v}
		}
		return &ast.StructInit{Type: n.Type, Fields: fields}, nil

	case "enum_init":
		var n struct {
			Enum    *string           `json:"enum"`
			Variant string            `json:"variant"`
			Args    []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.EnumInit{Enum: n.Enum, Variant: n.Variant, Args: args}, nil

	case "field":
		var n struct {
			Receiver json.RawMessage `json:"receiver"`
			Name     string          `json:"name"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		recv, err := decodeExpr(n.Receiver)
		if err != nil {
			return nil, err
		}
		return &ast.FieldAccess{Receiver: recv, Name: n.Name}, nil

	case "func_lit":
		var n struct {
			Params []string        `json:"params"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		body, err := decodeBlockFromRaw(n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.FuncLit{Params: toParams(n.Params), Body: body}, nil

	case "if":
		var n struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlockFromRaw(n.Then)
		if err != nil {
			return nil, err
		}
		ifx := &ast.IfExpr{Cond: cond, Then: then}
		if len(n.Else) > 0 && string(n.Else) != "null" {
			els, err := decodeBlockFromRaw(n.Else)
			if err != nil {
				return nil, err
			}
			ifx.Else = els
		}
		return ifx, nil

	case "match":
		var n struct {
			Scrutinee json.RawMessage `json:"scrutinee"`
			Arms      []struct {
				Pattern json.RawMessage `json:"pattern"`
				Guard   json.RawMessage `json:"guard"`
				Body    json.RawMessage `json:"body"`
			} `json:"arms"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		scrutinee, err := decodeExpr(n.Scrutinee)
		if err != nil {
			return nil, err
		}
		arms := make([]ast.MatchArm, len(n.Arms))
		for i, a := range n.Arms {
			pat, err := decodePattern(a.Pattern)
			if err != nil {
				return nil, err
			}
			body, err := decodeBlockFromRaw(a.Body)
			if err != nil {
				return nil, err
			}
			arm := ast.MatchArm{Pattern: pat, Body: body}
			if len(a.Guard) > 0 && string(a.Guard) != "null" {
				guard, err := decodeExpr(a.Guard)
				if err != nil {
					return nil, err
				}
				arm.Guard = guard
			}
			arms[i] = arm
		}
		return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms}, nil

	case "weak":
		return decodeTargetExpr(bs, func(e ast.Expr) ast.Expr { return &ast.WeakExpr{Target: e} })
	case "unowned":
		return decodeTargetExpr(bs, func(e ast.Expr) ast.Expr { return &ast.UnownedExpr{Target: e} })

	case "atomic":
		var n struct {
			Init json.RawMessage `json:"init"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		init, err := decodeExpr(n.Init)
		if err != nil {
			return nil, err
		}
		return &ast.AtomicExpr{Init: init}, nil

	case "mutex":
		return &ast.MutexExpr{}, nil

	case "send":
		var n struct {
			Target  json.RawMessage `json:"target"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		payload, err := decodeExpr(n.Payload)
		if err != nil {
			return nil, err
		}
		return &ast.SendExpr{Target: target, Payload: payload}, nil

	default:
		return nil, fmt.Errorf("unknown expr kind %q", kind)
	}
}

func decodeTargetExpr(bs json.RawMessage, build func(ast.Expr) ast.Expr) (ast.Expr, error) {
	var n struct {
		Target json.RawMessage `json:"target"`
	}
	if err := json.Unmarshal(bs, &n); err != nil {
		return nil, err
	}
	target, err := decodeExpr(n.Target)
	if err != nil {
		return nil, err
	}
	return build(target), nil
}

func decodeExprs(raws []json.RawMessage) ([]ast.Expr, error) {
	exprs := make([]ast.Expr, len(raws))
	for i, r := range raws {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

func decodePattern(bs json.RawMessage) (ast.Pattern, error) {
	kind, err := decodeKind(bs, "pattern")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "literal":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.LiteralPattern{Value: v}, nil

	case "wildcard":
		return &ast.WildcardPattern{}, nil

	case "binding":
		var n struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		return &ast.BindingPattern{Name: n.Name}, nil

	case "enum_variant":
		var n struct {
			Enum    *string           `json:"enum"`
			Variant string            `json:"variant"`
			Fields  []json.RawMessage `json:"fields"`
		}
		if err := json.Unmarshal(bs, &n); err != nil {
			return nil, err
		}
		fields := make([]ast.Pattern, len(n.Fields))
		for i, f := range n.Fields {
			p, err := decodePattern(f)
			if err != nil {
				return nil, err
			}
			fields[i] = p
		}
		return &ast.EnumVariantPattern{Enum: n.Enum, Variant: n.Variant, Fields: fields}, nil

	default:
		return nil, fmt.Errorf("unknown pattern kind %q", kind)
	}
}
