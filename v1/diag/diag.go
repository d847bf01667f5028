// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package diag defines the diagnostic types produced by every stage of the
// Art runtime: the lexer/parser (external to this module), the static
// checks, and the evaluator itself. Diagnostics are accumulated rather than
// returned as Go errors so that execution can continue per the spec's
// accumulate-and-continue error policy.
package diag

import "fmt"

// Kind identifies which stage produced a Diagnostic.
type Kind string

const (
	Lex      Kind = "lex"
	Parse    Kind = "parse"
	Type     Kind = "type"
	Runtime  Kind = "runtime"
	Internal Kind = "internal"
)

// Span locates a Diagnostic in source text.
type Span struct {
	Start, End int
	Line, Col  int
}

// Diagnostic is the shared error/warning representation handed off from the
// parser and produced internally by static checks and the evaluator.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
	Notes   []string
}

func (d Diagnostic) String() string {
	if len(d.Notes) == 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", d.Kind, d.Message, d.Notes)
}

func Runtimef(format string, args ...any) Diagnostic {
	return Diagnostic{Kind: Runtime, Message: fmt.Sprintf(format, args...)}
}

func Typef(format string, args ...any) Diagnostic {
	return Diagnostic{Kind: Type, Message: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...any) Diagnostic {
	return Diagnostic{Kind: Internal, Message: fmt.Sprintf(format, args...)}
}

// WithNote appends a note (e.g. a "did you mean" suggestion) and returns the
// Diagnostic by value for chaining at the call site.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithSpan attaches the source location of node, for diagnostics
// constructed before the AST node carrying the span is in scope.
func (d Diagnostic) WithSpan(sp Span) Diagnostic {
	d.Span = sp
	return d
}

// Sink accumulates diagnostics in source order. It is not safe for
// concurrent use: the evaluator is single-threaded per spec §5.
type Sink struct {
	items []Diagnostic
}

func (s *Sink) Add(d Diagnostic) {
	s.items = append(s.items, d)
}

func (s *Sink) Addf(kind Kind, format string, args ...any) {
	s.Add(Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Take drains and returns all accumulated diagnostics, matching the
// evaluator's take_diagnostics operation from §4.6.
func (s *Sink) Take() []Diagnostic {
	out := s.items
	s.items = nil
	return out
}

// Len reports the number of diagnostics currently buffered, without
// draining them.
func (s *Sink) Len() int {
	return len(s.items)
}
