package interpreter

import (
	"reflect"

	"github.com/holiman/uint256"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// cast performs a type-directed conversion of src into dest. The cast's
// declared target type must match the destination's declared type; a
// mismatch is a bug in the IR producer, not an evaluable-program property.
func (ec *EvalContext) cast(src TypedValue, kind mir.CastKind, target layout.Type, dest PlaceTy) error {
	assertf(reflect.DeepEqual(target, dest.Layout.Type),
		"cast target %s does not match destination type %s", target, dest.Layout.Type)

	switch kind {
	case mir.CastNumeric:
		val, err := ec.definedScalar(src)
		if err != nil {
			return err
		}
		out, err := ec.numericCast(val, src.Layout, dest.Layout)
		if err != nil {
			return err
		}
		return ec.writeScalar(out, dest)

	case mir.CastPointer:
		// Pointer-shaped casts pass the bits through unchanged.
		if _, ok := dest.Layout.Type.(layout.PointerType); !ok {
			return ec.newUnsupportedError("pointer cast into non-pointer type %s", dest.Layout.Type)
		}
		val, err := ec.definedScalar(src)
		if err != nil {
			return err
		}
		return ec.writeScalar(val, dest)

	default:
		return ec.newUnsupportedError("cast kind %d", kind)
	}
}

// numericCast converts an integer or boolean bit pattern between scalar
// widths, sign-extending when the source is a signed integer.
func (ec *EvalContext) numericCast(val runtime.Scalar, from, to *layout.Layout) (runtime.Scalar, error) {
	if !val.IsBits() {
		return runtime.Scalar{}, ec.newInvalidValueError("numeric cast of address value")
	}
	var srcBits int
	var srcSigned bool
	switch t := from.Type.(type) {
	case layout.IntType:
		srcBits, srcSigned = t.Bits, t.Signed
	case layout.BoolType:
		srcBits, srcSigned = 8, false
	default:
		return runtime.Scalar{}, ec.newUnsupportedError("numeric cast from %s", from.Type)
	}

	var dstBits int
	switch t := to.Type.(type) {
	case layout.IntType:
		dstBits = t.Bits
	default:
		return runtime.Scalar{}, ec.newUnsupportedError("numeric cast into %s", to.Type)
	}

	wide := new(uint256.Int).Set(&val.Bits)
	if srcSigned && srcBits < dstBits {
		wide = signExtend(wide, srcBits)
	}
	wide.And(wide, widthMask(dstBits))
	return runtime.BitsScalar(wide, uint8(dstBits/8)), nil
}
