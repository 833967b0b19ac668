package layout

import (
	"fmt"
	"strings"
)

// Type describes a machine-level type shape. Types carry no values; they
// exist so the layout engine can answer size, alignment and field-offset
// queries for the interpreter.
type Type interface {
	typeNode()
	String() string
}

// IntType is a fixed-width integer. Bits must be one of 8, 16, 32, 64, 128.
type IntType struct {
	Bits   int
	Signed bool
}

func (IntType) typeNode() {}

func (t IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}

// BoolType is a one-byte boolean.
type BoolType struct{}

func (BoolType) typeNode() {}

func (BoolType) String() string { return "bool" }

// PointerType is a thin pointer to a sized element type. References to
// unsized element types are fat and carry extra metadata alongside the
// address; the pointer itself is still described by this node.
type PointerType struct {
	Elem Type
}

func (PointerType) typeNode() {}

func (t PointerType) String() string { return "*" + t.Elem.String() }

// ArrayType is a fixed-length sequence of one element type.
type ArrayType struct {
	Elem Type
	Len  uint64
}

func (ArrayType) typeNode() {}

func (t ArrayType) String() string { return fmt.Sprintf("[%d]%s", t.Len, t.Elem) }

// SliceType is an unsized sequence. It cannot be held by value; it is only
// reachable through a fat reference carrying the element count.
type SliceType struct {
	Elem Type
}

func (SliceType) typeNode() {}

func (t SliceType) String() string { return "[]" + t.Elem.String() }

// TupleType is a product of field types. Structs and tuples share this
// node; an empty tuple is the unit (zero-sized) type.
type TupleType struct {
	Fields []Type
}

func (TupleType) typeNode() {}

func (t TupleType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Variant is one alternative of a sum type.
type Variant struct {
	Name   string
	Fields []Type
}

// SumType is a tagged union. The discriminant is stored as an unsigned
// integer of TagBits width at offset zero; variant fields follow it.
type SumType struct {
	Name     string
	TagBits  int
	Variants []Variant
}

func (SumType) typeNode() {}

func (t SumType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("sum/%d", len(t.Variants))
}

// Unit returns the zero-sized empty tuple type.
func Unit() TupleType { return TupleType{} }

// Int is shorthand for a signed IntType.
func Int(bits int) IntType { return IntType{Bits: bits, Signed: true} }

// Uint is shorthand for an unsigned IntType.
func Uint(bits int) IntType { return IntType{Bits: bits, Signed: false} }
