package runtime

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Kind identifies the machine value category.
type Kind int

const (
	KindScalar Kind = iota
	KindPair
	KindByRef
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindPair:
		return "pair"
	case KindByRef:
		return "by_ref"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all machine values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

// ScalarKind discriminates the scalar payload.
type ScalarKind int

const (
	// ScalarUndef is an uninitialized scalar. Reading it in a computation
	// is an evaluation error.
	ScalarUndef ScalarKind = iota
	// ScalarBits is a fixed-width bit pattern.
	ScalarBits
	// ScalarPtr is an address into the machine's memory.
	ScalarPtr
)

// Scalar is the unit of primitive computation: a bit pattern tagged with
// its byte width, an address, or undef.
type Scalar struct {
	ScalarKind ScalarKind
	Bits       uint256.Int
	Size       uint8
	Ptr        Pointer
}

// BitsScalar builds a bit-pattern scalar of the given byte width.
func BitsScalar(v *uint256.Int, size uint8) Scalar {
	s := Scalar{ScalarKind: ScalarBits, Size: size}
	s.Bits.Set(v)
	return s
}

// Uint64Scalar builds a bit-pattern scalar from a uint64.
func Uint64Scalar(v uint64, size uint8) Scalar {
	s := Scalar{ScalarKind: ScalarBits, Size: size}
	s.Bits.SetUint64(v)
	return s
}

// BoolScalar builds a one-byte boolean scalar.
func BoolScalar(v bool) Scalar {
	if v {
		return Uint64Scalar(1, 1)
	}
	return Uint64Scalar(0, 1)
}

// PtrScalar builds an address scalar.
func PtrScalar(p Pointer) Scalar {
	return Scalar{ScalarKind: ScalarPtr, Ptr: p, Size: PointerSize}
}

// UndefScalar builds an uninitialized scalar.
func UndefScalar() Scalar { return Scalar{ScalarKind: ScalarUndef} }

// IsUndef reports whether the scalar is uninitialized.
func (s Scalar) IsUndef() bool { return s.ScalarKind == ScalarUndef }

// IsBits reports whether the scalar is a plain bit pattern.
func (s Scalar) IsBits() bool { return s.ScalarKind == ScalarBits }

// IsPtr reports whether the scalar is an address.
func (s Scalar) IsPtr() bool { return s.ScalarKind == ScalarPtr }

// Uint64 returns the low 64 bits of a bit-pattern scalar.
func (s Scalar) Uint64() uint64 { return s.Bits.Uint64() }

// ToBool interprets a one-byte scalar as a boolean.
func (s Scalar) ToBool() (bool, error) {
	if !s.IsBits() {
		return false, fmt.Errorf("runtime: %s scalar is not a boolean", s.ScalarKind)
	}
	switch s.Bits.Uint64() {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("runtime: invalid boolean bit pattern %s", s.Bits.Dec())
	}
}

// Equal reports exact structural equality of two scalars.
func (s Scalar) Equal(o Scalar) bool {
	if s.ScalarKind != o.ScalarKind {
		return false
	}
	switch s.ScalarKind {
	case ScalarUndef:
		return true
	case ScalarPtr:
		return s.Ptr == o.Ptr
	default:
		return s.Size == o.Size && s.Bits.Eq(&o.Bits)
	}
}

func (k ScalarKind) String() string {
	switch k {
	case ScalarUndef:
		return "undef"
	case ScalarBits:
		return "bits"
	case ScalarPtr:
		return "ptr"
	default:
		return fmt.Sprintf("scalar_kind_%d", int(k))
	}
}

func (s Scalar) String() string {
	switch s.ScalarKind {
	case ScalarUndef:
		return "undef"
	case ScalarPtr:
		return fmt.Sprintf("ptr(%d+%d)", s.Ptr.Alloc, s.Ptr.Offset)
	default:
		return fmt.Sprintf("bits(%s, %d)", s.Bits.Dec(), s.Size)
	}
}

//-----------------------------------------------------------------------------
// Composite values
//-----------------------------------------------------------------------------

// ScalarValue wraps a single scalar.
type ScalarValue struct {
	Scalar Scalar
}

func (ScalarValue) Kind() Kind { return KindScalar }

// PairValue carries two scalars: checked-operation results and fat
// references.
type PairValue struct {
	A Scalar
	B Scalar
}

func (PairValue) Kind() Kind { return KindPair }

// ByRefValue is a value that lives in memory at Ptr. Meta carries the
// element count for unsized data and is undef otherwise.
type ByRefValue struct {
	Ptr  Pointer
	Meta Scalar
}

func (ByRefValue) Kind() Kind { return KindByRef }
