// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package types

import (
	"testing"

	"github.com/artlang/art/v1/ast"
)

func TestResolveShorthandVariantUniqueMatch(t *testing.T) {
	r := New()
	r.DefineEnum(&ast.EnumDecl{Name: "Shape", Variants: []ast.EnumVariant{
		{Name: "Circle", Fields: []string{"radius"}},
	}})

	res := r.ResolveShorthandVariant("Circle")
	if res.Err != nil {
		t.Fatalf("expected a unique match, got error: %v", res.Err)
	}
	if res.Enum.Name != "Shape" || res.Variant.Arity != 1 {
		t.Errorf("unexpected resolution: %+v", res)
	}
}

func TestResolveShorthandVariantAmbiguous(t *testing.T) {
	r := New()
	r.DefineEnum(&ast.EnumDecl{Name: "A", Variants: []ast.EnumVariant{{Name: "X"}}})
	r.DefineEnum(&ast.EnumDecl{Name: "B", Variants: []ast.EnumVariant{{Name: "X"}}})

	res := r.ResolveShorthandVariant("X")
	if res.Err == nil {
		t.Fatal("expected an ambiguity error when two enums declare the same variant name")
	}
}

func TestResolveShorthandVariantAbsent(t *testing.T) {
	r := New()
	res := r.ResolveShorthandVariant("Nope")
	if res.Err == nil {
		t.Fatal("expected an error for an unknown variant name")
	}
}

func TestResolveShorthandVariantIsCached(t *testing.T) {
	r := New()
	r.DefineEnum(&ast.EnumDecl{Name: "Shape", Variants: []ast.EnumVariant{{Name: "Circle"}}})

	first := r.ResolveShorthandVariant("Circle")
	second := r.ResolveShorthandVariant("Circle")
	if first.Enum != second.Enum {
		t.Error("a second lookup of the same variant name should return the cached result")
	}
}

func TestDefineEnumPurgesStaleCacheEntries(t *testing.T) {
	r := New()
	if res := r.ResolveShorthandVariant("Circle"); res.Err == nil {
		t.Fatal("expected a miss before any enum declares 'Circle'")
	}

	r.DefineEnum(&ast.EnumDecl{Name: "Shape", Variants: []ast.EnumVariant{{Name: "Circle", Fields: []string{"radius"}}}})

	res := r.ResolveShorthandVariant("Circle")
	if res.Err != nil {
		t.Fatal("a redeclared enum must invalidate the cached absent-match result, not keep serving it")
	}
}
