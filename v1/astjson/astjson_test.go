// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package astjson

import (
	"testing"

	"github.com/artlang/art/v1/ast"
)

// TestDecodeProgramS1 decodes the program spec.md §8 scenario S1 names:
// `{ let a = [1,2]; }`.
func TestDecodeProgramS1(t *testing.T) {
	doc := []byte(`{
		"statements": [
			{"stmt": "block", "statements": [
				{"stmt": "let", "name": "a", "value":
					{"expr": "array", "elements": [
						{"expr": "int", "value": 1},
						{"expr": "int", "value": 2}
					]}
				}
			]}
		]
	}`)
	prog, err := DecodeProgram(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(prog.Statements))
	}
	blk, ok := prog.Statements[0].(*ast.Block)
	if !ok {
		t.Fatalf("expected *ast.Block, got %T", prog.Statements[0])
	}
	let, ok := blk.Statements[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected *ast.LetStmt, got %T", blk.Statements[0])
	}
	if let.Name != "a" {
		t.Errorf("expected binding name 'a', got %q", let.Name)
	}
	arr, ok := let.Value.(*ast.ArrayLit)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("expected 2-element array literal, got %#v", let.Value)
	}
}

func TestDecodeMatchWithEnumVariantPattern(t *testing.T) {
	doc := []byte(`{
		"statements": [
			{"stmt": "expr", "value":
				{"expr": "match", "scrutinee": {"expr": "ident", "name": "x"}, "arms": [
					{"pattern": {"pattern": "enum_variant", "enum": null, "variant": "Some", "fields": [
						{"pattern": "binding", "name": "v"}
					]}, "body": {"stmt": "block", "statements": []}},
					{"pattern": {"pattern": "wildcard"}, "body": {"stmt": "block", "statements": []}}
				]}
			}
		]
	}`)
	prog, err := DecodeProgram(doc)
	if err != nil {
		t.Fatal(err)
	}
	es := prog.Statements[0].(*ast.ExprStmt)
	mx := es.Value.(*ast.MatchExpr)
	if len(mx.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(mx.Arms))
	}
	variant, ok := mx.Arms[0].Pattern.(*ast.EnumVariantPattern)
	if !ok || variant.Variant != "Some" {
		t.Fatalf("expected Some variant pattern, got %#v", mx.Arms[0].Pattern)
	}
}
