package mir

import (
	"github.com/holiman/uint256"

	"mirvm/interpreter-go/pkg/layout"
)

//-----------------------------------------------------------------------------
// Places
//-----------------------------------------------------------------------------

// Place names an addressable location: a local plus a projection chain.
type Place struct {
	Local Local
	Proj  []Projection
}

// Projection is one step refining a place.
type Projection interface{ projNode() }

// FieldProj selects field Index of a tuple, struct or variant.
type FieldProj struct {
	Index int
}

// DowncastProj narrows a sum-type place to variant Variant.
type DowncastProj struct {
	Variant int
}

// DerefProj follows the pointer stored in the place.
type DerefProj struct{}

// IndexProj selects element Index of an array or slice.
type IndexProj struct {
	Index uint64
}

func (FieldProj) projNode()    {}
func (DowncastProj) projNode() {}
func (DerefProj) projNode()    {}
func (IndexProj) projNode()    {}

//-----------------------------------------------------------------------------
// Operands
//-----------------------------------------------------------------------------

// Operand is either an immediate constant or a reference to a place.
type Operand interface{ operandNode() }

// ConstOperand is an immediate typed bit pattern.
type ConstOperand struct {
	Type  layout.Type
	Value *uint256.Int
}

// CopyOperand reads the value currently stored at a place.
type CopyOperand struct {
	Place Place
}

// MoveOperand reads a place whose value the producer promises is not used
// again. The interpreter treats it like a copy.
type MoveOperand struct {
	Place Place
}

func (ConstOperand) operandNode() {}
func (CopyOperand) operandNode()  {}
func (MoveOperand) operandNode()  {}

//-----------------------------------------------------------------------------
// Rvalues
//-----------------------------------------------------------------------------

// Rvalue is a value-producing expression evaluated into a destination.
type Rvalue interface{ rvalueNode() }

// UseRvalue copies an operand unchanged.
type UseRvalue struct {
	Operand Operand
}

// BinaryOpRvalue computes Op over two operands, ignoring overflow.
type BinaryOpRvalue struct {
	Op    BinOp
	Left  Operand
	Right Operand
}

// CheckedBinaryOpRvalue computes Op and pairs the wrapped result with an
// overflow flag.
type CheckedBinaryOpRvalue struct {
	Op    BinOp
	Left  Operand
	Right Operand
}

// UnaryOpRvalue computes Op over one operand.
type UnaryOpRvalue struct {
	Op      UnOp
	Operand Operand
}

// AggregateRvalue builds a composite value field by field. For sum types,
// Variant selects the alternative whose tag is written first; ActiveField,
// when non-nil, overrides the sequential field index for overlapping
// layouts.
type AggregateRvalue struct {
	Type        layout.Type
	Variant     int
	ActiveField *int
	Operands    []Operand
}

// RepeatRvalue fills an array destination with Count copies of one
// evaluation of Operand. Count must equal the destination array's
// declared length.
type RepeatRvalue struct {
	Operand Operand
	Count   uint64
}

// LenRvalue reads the element count of an array or slice place.
type LenRvalue struct {
	Place Place
}

// RefRvalue produces a reference to a place, fat for unsized data.
type RefRvalue struct {
	Place Place
}

// HeapAllocRvalue requests a fresh heap cell from the machine hooks.
type HeapAllocRvalue struct {
	Type layout.Type
}

// SizeOfRvalue writes the byte size of Type as a pointer-sized scalar.
type SizeOfRvalue struct {
	Type layout.Type
}

// CastKind selects the conversion family applied by a CastRvalue.
type CastKind int

const (
	// CastNumeric converts between integer and boolean scalar types,
	// truncating or sign/zero-extending as the widths require.
	CastNumeric CastKind = iota
	// CastPointer reinterprets a pointer-shaped value without changing
	// its bits.
	CastPointer
)

// CastRvalue performs a type-directed conversion of Operand into Type.
// Type must match the destination's declared type exactly.
type CastRvalue struct {
	Kind    CastKind
	Operand Operand
	Type    layout.Type
}

// DiscriminantRvalue reads the variant tag of a sum-type place.
type DiscriminantRvalue struct {
	Place Place
}

func (*UseRvalue) rvalueNode()             {}
func (*BinaryOpRvalue) rvalueNode()        {}
func (*CheckedBinaryOpRvalue) rvalueNode() {}
func (*UnaryOpRvalue) rvalueNode()         {}
func (*AggregateRvalue) rvalueNode()       {}
func (*RepeatRvalue) rvalueNode()          {}
func (*LenRvalue) rvalueNode()             {}
func (*RefRvalue) rvalueNode()             {}
func (*HeapAllocRvalue) rvalueNode()       {}
func (*SizeOfRvalue) rvalueNode()          {}
func (*CastRvalue) rvalueNode()            {}
func (*DiscriminantRvalue) rvalueNode()    {}
