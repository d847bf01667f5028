// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package types implements the struct/enum type registry described in
// spec.md §3 "TypeRegistry". Definitions are gathered once (typically
// from the top-level declarations of a Program) and then looked up
// throughout evaluation for struct init validation, enum-shorthand
// resolution, and method dispatch.
package types

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/artlang/art/v1/ast"
)

// shorthandCacheSize bounds the memoized-lookup cache for
// ResolveShorthandVariant, whose uncached cost is O(enum count) per
// call. Declarations are loaded once up front and read many times
// during evaluation, so a small LRU turns that repeated linear scan
// into an O(1) lookup for the variant names actually in use.
const shorthandCacheSize = 256

// StructDef is a registered struct declaration.
type StructDef struct {
	Name    string
	Fields  []string
	Methods map[string]*ast.FuncDecl
}

// HasField reports whether name is a declared field of the struct.
func (d *StructDef) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// EnumVariantDef is one variant of a registered enum declaration.
type EnumVariantDef struct {
	Name  string
	Arity int
}

// EnumDef is a registered enum declaration.
type EnumDef struct {
	Name     string
	Variants map[string]EnumVariantDef
	Methods  map[string]*ast.FuncDecl
}

// Registry is Art's TypeRegistry (spec.md §3): name-indexed struct and
// enum definitions, populated once and read many times.
type Registry struct {
	structs map[string]*StructDef
	enums   map[string]*EnumDef

	shorthand *lru.Cache[string, ResolveVariantResult]
}

func New() *Registry {
	c, _ := lru.New[string, ResolveVariantResult](shorthandCacheSize)
	return &Registry{
		structs:   make(map[string]*StructDef),
		enums:     make(map[string]*EnumDef),
		shorthand: c,
	}
}

// DefineStruct registers a struct declaration. A later declaration with
// the same name replaces the earlier one — redeclaration diagnostics, if
// any, are the parser/static-check layer's concern, not the registry's.
func (r *Registry) DefineStruct(decl *ast.StructDecl) {
	def := &StructDef{Name: decl.Name, Fields: decl.Fields, Methods: make(map[string]*ast.FuncDecl)}
	for _, m := range decl.Methods {
		def.Methods[m.Name] = m
	}
	r.structs[decl.Name] = def
}

// DefineEnum registers an enum declaration.
func (r *Registry) DefineEnum(decl *ast.EnumDecl) {
	def := &EnumDef{Name: decl.Name, Variants: make(map[string]EnumVariantDef), Methods: make(map[string]*ast.FuncDecl)}
	for _, v := range decl.Variants {
		def.Variants[v.Name] = EnumVariantDef{Name: v.Name, Arity: len(v.Fields)}
	}
	for _, m := range decl.Methods {
		def.Methods[m.Name] = m
	}
	r.enums[decl.Name] = def
	r.shorthand.Purge() // a new/redeclared enum can shadow or add variant names
}

// LoadProgram walks every top-level StructDecl/EnumDecl in prog and
// registers it. Function declarations and other statements are ignored.
func (r *Registry) LoadProgram(prog *ast.Program) {
	for _, s := range prog.Statements {
		switch n := s.(type) {
		case *ast.StructDecl:
			r.DefineStruct(n)
		case *ast.EnumDecl:
			r.DefineEnum(n)
		}
	}
}

func (r *Registry) Struct(name string) (*StructDef, bool) {
	d, ok := r.structs[name]
	return d, ok
}

func (r *Registry) Enum(name string) (*EnumDef, bool) {
	d, ok := r.enums[name]
	return d, ok
}

// ResolveVariantResult is the outcome of shorthand enum-variant lookup.
type ResolveVariantResult struct {
	Enum    *EnumDef
	Variant EnumVariantDef
	Err     error
}

// ResolveShorthandVariant searches every registered enum for a unique
// variant named variantName, per spec.md §4.6 "Enum init" shorthand form:
// "ambiguous or absent matches emit a diagnostic".
func (r *Registry) ResolveShorthandVariant(variantName string) ResolveVariantResult {
	if cached, ok := r.shorthand.Get(variantName); ok {
		return cached
	}

	var matches []*EnumDef
	for _, e := range r.enums {
		if _, ok := e.Variants[variantName]; ok {
			matches = append(matches, e)
		}
	}

	var res ResolveVariantResult
	switch len(matches) {
	case 0:
		res = ResolveVariantResult{Err: fmt.Errorf("no enum variant named %q", variantName)}
	case 1:
		res = ResolveVariantResult{Enum: matches[0], Variant: matches[0].Variants[variantName]}
	default:
		res = ResolveVariantResult{Err: fmt.Errorf("ambiguous enum variant %q: matches %d enums", variantName, len(matches))}
	}
	r.shorthand.Add(variantName, res)
	return res
}
