// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package value defines Art's runtime Value sum type (spec.md §3). Value is
// a small closed tagged union; composite variants (Array, Struct, Enum) are
// always stored behind a HeapComposite handle once constructed, never
// inline, so that the heap (package heap) is the single place that owns
// composite lifetime bookkeeping.
package value

import "fmt"

// Handle is an opaque, process-unique heap object identifier. It is never
// reused within a process (spec.md §3 "Handle").
type Handle uint64

// Kind discriminates the Value tagged union.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindOptional
	KindFunction
	KindBuiltin
	KindHeapComposite
	KindWeakRef
	KindUnownedRef
	KindAtomic
	KindMutex
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindOptional:
		return "Optional"
	case KindFunction:
		return "Function"
	case KindBuiltin:
		return "Builtin"
	case KindHeapComposite:
		return "HeapComposite"
	case KindWeakRef:
		return "WeakRef"
	case KindUnownedRef:
		return "UnownedRef"
	case KindAtomic:
		return "Atomic"
	case KindMutex:
		return "Mutex"
	default:
		return "Unknown"
	}
}

// Optional models Art's present/absent Value (spec.md §3 "Optional").
type Optional struct {
	Present bool
	Inner   *Value
}

func Absent() Optional { return Optional{} }

func Some(v Value) Optional { return Optional{Present: true, Inner: &v} }

// FieldValue is one field of a StructInstance.
type FieldValue struct {
	Name  string
	Value Value
}

// CompositeKind discriminates the payload a heap object holds once a
// composite literal is constructed. Composite variants are always stored
// behind a HeapComposite handle (spec.md §3): the Value a program
// manipulates directly is KindHeapComposite, and the heap object the
// handle resolves to carries one of these three shapes.
type CompositeKind uint8

const (
	CompositeArray CompositeKind = iota
	CompositeStruct
	CompositeEnum
)

// Composite is the heapified representation of an Array, StructInstance,
// or EnumInstance (spec.md §3). Only the fields relevant to Kind are
// populated, following the same fat-struct discipline as Value itself.
type Composite struct {
	Kind CompositeKind

	// CompositeArray
	Elements []Value

	// CompositeStruct
	StructType string
	Fields     []FieldValue

	// CompositeEnum
	Enum    string
	Variant string
	Values  []Value
}

func NewArray(elements []Value) Composite {
	return Composite{Kind: CompositeArray, Elements: elements}
}

func NewStruct(typeName string, fields []FieldValue) Composite {
	return Composite{Kind: CompositeStruct, StructType: typeName, Fields: fields}
}

func NewEnum(enum, variant string, values []Value) Composite {
	return Composite{Kind: CompositeEnum, Enum: enum, Variant: variant, Values: values}
}

// Get looks up a struct field by name.
func (c *Composite) Get(name string) (Value, bool) {
	if c.Kind != CompositeStruct {
		return Value{}, false
	}
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Children returns every Value nested directly inside the composite (array
// elements, struct field values, or enum payload values) — used by the
// heap to find strong-composite children one level deep (spec.md §4.1).
func (c *Composite) Children() []Value {
	switch c.Kind {
	case CompositeArray:
		return c.Elements
	case CompositeStruct:
		out := make([]Value, len(c.Fields))
		for i, f := range c.Fields {
			out[i] = f.Value
		}
		return out
	case CompositeEnum:
		return c.Values
	default:
		return nil
	}
}

// Function is a closure: a name, parameter list, and a weak link to the
// environment it closed over (spec.md §3 "Function"). The Closure field
// holds an environment handle (see package environment) rather than a Go
// pointer so that releasing the defining scope can be observed; it is
// represented here as an opaque value to avoid an import cycle with
// package environment, which itself depends on package value.
type Function struct {
	Name       string
	Params     []string
	Body       any // *ast.Block; declared any to avoid importing package ast here.
	Closure    ClosureRef
	BoundSelf  *Value // non-nil when this Function is a bound method.
}

// ClosureRef is an opaque handle to a defining environment frame, resolved
// by package environment. Functions built from declarations and literals
// always carry one; a zero value means "no closure" and occurs only for
// bound methods and Functions constructed directly.
type ClosureRef struct {
	ID      uint64
	Present bool
}

// Builtin identifies one of the closed set of builtin operations,
// discriminated at call time (spec.md §9 "Dynamic dispatch").
type Builtin string

// HeapKind further discriminates a HeapComposite's backing value for
// builtins that need to special-case Atomic/Mutex cells (spec.md §3).
type HeapKind uint8

const (
	HeapNone HeapKind = iota
	HeapAtomic
	HeapMutex
)

// Value is the tagged union described by spec.md §3. Only one of the
// payload fields is meaningful for a given Kind; Go lacks tagged unions so
// this mirrors the common "fat struct" idiom used throughout the teacher
// codebase (e.g. arena.Node's vRaw/vStr/vType discriminated fields).
type Value struct {
	Kind Kind

	I     int64
	F     float64
	B     bool
	S     string
	Opt   Optional
	Fn    *Function
	Bltn  Builtin
	Heap  Handle // valid for KindHeapComposite/KindWeakRef/KindUnownedRef/KindAtomic/KindMutex
}

func Int(v int64) Value     { return Value{Kind: KindInt, I: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, F: v} }
func Bool(v bool) Value     { return Value{Kind: KindBool, B: v} }
func Str(v string) Value    { return Value{Kind: KindString, S: v} }
func Opt(o Optional) Value  { return Value{Kind: KindOptional, Opt: o} }
func Fn(f *Function) Value  { return Value{Kind: KindFunction, Fn: f} }
func Blt(b Builtin) Value   { return Value{Kind: KindBuiltin, Bltn: b} }

func HeapRef(h Handle) Value    { return Value{Kind: KindHeapComposite, Heap: h} }
func Weak(h Handle) Value       { return Value{Kind: KindWeakRef, Heap: h} }
func Unowned(h Handle) Value    { return Value{Kind: KindUnownedRef, Heap: h} }
func AtomicRef(h Handle) Value  { return Value{Kind: KindAtomic, Heap: h} }
func MutexRef(h Handle) Value   { return Value{Kind: KindMutex, Heap: h} }

// IsHeapRef reports whether v carries a Handle of any of the heap-backed
// kinds (composite, weak, unowned, atomic, mutex).
func (v Value) IsHeapRef() bool {
	switch v.Kind {
	case KindHeapComposite, KindWeakRef, KindUnownedRef, KindAtomic, KindMutex:
		return true
	default:
		return false
	}
}

// Truthy implements spec.md §4.6 "Truthiness".
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindOptional:
		return v.Opt.Present
	case KindInt:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	case KindString:
		return v.S != ""
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindString:
		return v.S
	case KindOptional:
		if v.Opt.Present {
			return fmt.Sprintf("Some(%s)", v.Opt.Inner.String())
		}
		return "None"
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}
