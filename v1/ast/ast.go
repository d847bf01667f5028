// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ast defines the typed AST that the lexer/parser (out of scope
// for this module, see spec.md §1) hands to the evaluator. These types are
// the contract named in spec.md §6 ("Parser handoff (in)"): a Program is an
// ordered sequence of Statements over this AST.
package ast

import "github.com/artlang/art/v1/diag"

// Node is implemented by every AST node.
type Node interface {
	Span() diag.Span
}

// Program is the parser's output: an ordered sequence of top-level
// statements.
type Program struct {
	Statements []Stmt
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Pattern is implemented by every match-arm pattern node.
type Pattern interface {
	Node
	patternNode()
}

type base struct {
	Pos diag.Span
}

func (b base) Span() diag.Span { return b.Pos }

// --- Statements ---

// LetStmt binds Value to Name in the current scope (spec §4.3).
type LetStmt struct {
	base
	Name  string
	Value Expr
}

func (*LetStmt) stmtNode() {}

// ReturnStmt unwinds the enclosing function body (spec §4.6). Value is nil
// for a bare `return`.
type ReturnStmt struct {
	base
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

// ExprStmt evaluates an expression for its side effects, discarding the
// result.
type ExprStmt struct {
	base
	Value Expr
}

func (*ExprStmt) stmtNode() {}

// Block introduces a new lexical scope (spec §4.3).
type Block struct {
	base
	Statements []Stmt
}

func (*Block) stmtNode() {}

// PerformantBlock is a lexical block whose composite allocations are
// tagged with a fresh arena id (spec §4.2, §4.7).
type PerformantBlock struct {
	base
	Body *Block
}

func (*PerformantBlock) stmtNode() {}

// Param is a function parameter.
type Param struct {
	Name string
}

// FuncDecl declares a named function. Rejected inside a PerformantBlock by
// the static check in spec §4.7 (closures could capture arena values).
type FuncDecl struct {
	base
	Name   string
	Params []Param
	Body   *Block
}

func (*FuncDecl) stmtNode() {}

// StructDecl declares a struct type in the type registry (spec §4.1, §3).
type StructDecl struct {
	base
	Name    string
	Fields  []string
	Methods []*FuncDecl
}

func (*StructDecl) stmtNode() {}

// EnumVariant is one variant of an EnumDecl; Arity is len(Fields).
type EnumVariant struct {
	Name   string
	Fields []string
}

// EnumDecl declares an enum type in the type registry.
type EnumDecl struct {
	base
	Name     string
	Variants []EnumVariant
	Methods  []*FuncDecl
}

func (*EnumDecl) stmtNode() {}

// --- Expressions ---

// Ident references a bound name.
type Ident struct {
	base
	Name string
}

func (*Ident) exprNode() {}

// IntLit is a 64-bit signed integer literal.
type IntLit struct {
	base
	Value int64
}

func (*IntLit) exprNode() {}

// FloatLit is a 64-bit IEEE float literal.
type FloatLit struct {
	base
	Value float64
}

func (*FloatLit) exprNode() {}

// BoolLit is a boolean literal.
type BoolLit struct {
	base
	Value bool
}

func (*BoolLit) exprNode() {}

// StringSegment is one piece of an interpolated string literal (spec
// SPEC_FULL.md, "String interpolation"). Exactly one of Literal/Expr is set.
type StringSegment struct {
	Literal string
	Expr    Expr
}

// StringLit is an immutable shared-text literal, optionally built from
// interpolated `${expr}` segments.
type StringLit struct {
	base
	Segments []StringSegment
}

func (*StringLit) exprNode() {}

// Interpolated reports whether this literal contains any `${expr}` segment.
func (s *StringLit) Interpolated() bool {
	for _, seg := range s.Segments {
		if seg.Expr != nil {
			return true
		}
	}
	return false
}

// BinOp enumerates binary operators.
type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
	OpEq  BinOp = "=="
	OpNe  BinOp = "!="
	OpLt  BinOp = "<"
	OpLe  BinOp = "<="
	OpGt  BinOp = ">"
	OpGe  BinOp = ">="
	OpAnd BinOp = "&&"
	OpOr  BinOp = "||"
)

// BinaryExpr applies Op to Left and Right (spec §4.6 numeric promotion
// rules).
type BinaryExpr struct {
	base
	Op    BinOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryOp enumerates unary operators.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// UnaryExpr applies Op to Operand.
type UnaryExpr struct {
	base
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// Grouping is a parenthesized expression, preserved so the IR lowering in
// spec §4.8 can recognize the documented lowerable subset.
type Grouping struct {
	base
	Inner Expr
}

func (*Grouping) exprNode() {}

// CallExpr invokes Callee (a Function, Builtin, or method) with Args.
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// ArrayLit constructs an Array value, heapified after construction (spec
// §3).
type ArrayLit struct {
	base
	Elements []Expr
}

func (*ArrayLit) exprNode() {}

// FieldInit is one field assignment in a StructInit.
type FieldInit struct {
	Name  string
	Value Expr
}

// StructInit constructs a StructInstance (spec §4.6 "Struct init").
type StructInit struct {
	base
	Type   string
	Fields []FieldInit
}

func (*StructInit) exprNode() {}

// EnumInit constructs an EnumInstance. Enum is nil for the shorthand form
// (spec §4.6 "Enum init").
type EnumInit struct {
	base
	Enum    *string
	Variant string
	Args    []Expr
}

func (*EnumInit) exprNode() {}

// FieldAccess resolves Name on Receiver: array builtin field, struct field,
// method lookup, or enum method lookup (spec §4.6 "Field access").
type FieldAccess struct {
	base
	Receiver Expr
	Name     string
}

func (*FieldAccess) exprNode() {}

// FuncLit is an anonymous function literal (a closure).
type FuncLit struct {
	base
	Params []Param
	Body   *Block
}

func (*FuncLit) exprNode() {}

// IfExpr is the only form of conditional; its arms are Blocks so it can
// double as a statement (an ExprStmt wrapping it) or a value-producing
// expression when the arms end in a trailing expression statement.
type IfExpr struct {
	base
	Cond Expr
	Then *Block
	Else *Block // nil if there is no else; may itself be a single-statement
	// block containing another IfExpr for `else if` chains.
}

func (*IfExpr) exprNode() {}

// MatchArm is one arm of a MatchExpr.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // optional
	Body    *Block
}

// MatchExpr pattern-matches Scrutinee against Arms in order (spec §4.6
// "Pattern matching").
type MatchExpr struct {
	base
	Scrutinee Expr
	Arms      []MatchArm
}

func (*MatchExpr) exprNode() {}

// WeakExpr produces a WeakRef to the heap object Target resolves to.
type WeakExpr struct {
	base
	Target Expr
}

func (*WeakExpr) exprNode() {}

// UnownedExpr produces an UnownedRef to the heap object Target resolves to.
type UnownedExpr struct {
	base
	Target Expr
}

func (*UnownedExpr) exprNode() {}

// AtomicExpr constructs a heap-backed Atomic integer cell.
type AtomicExpr struct {
	base
	Init Expr
}

func (*AtomicExpr) exprNode() {}

// MutexExpr constructs a heap-backed Mutex cell.
type MutexExpr struct {
	base
}

func (*MutexExpr) exprNode() {}

// SendExpr is the actor/mailbox extension's send builtin call site (spec
// §4.7 "Send-safety lint", SPEC_FULL.md "Actor/mailbox extension").
type SendExpr struct {
	base
	Target  Expr
	Payload Expr
}

func (*SendExpr) exprNode() {}

// --- Patterns ---

// LiteralPattern matches by value equality.
type LiteralPattern struct {
	base
	Value Expr
}

func (*LiteralPattern) patternNode() {}

// WildcardPattern matches anything and binds nothing.
type WildcardPattern struct {
	base
}

func (*WildcardPattern) patternNode() {}

// BindingPattern matches anything and introduces Name.
type BindingPattern struct {
	base
	Name string
}

func (*BindingPattern) patternNode() {}

// EnumVariantPattern matches an EnumInstance by (optionally qualified)
// variant name and recursively matches Fields against the payload.
type EnumVariantPattern struct {
	base
	Enum    *string
	Variant string
	Fields  []Pattern
}

func (*EnumVariantPattern) patternNode() {}

func NewBase(sp diag.Span) base { return base{Pos: sp} }
