package interpreter

import (
	"github.com/holiman/uint256"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// intShape extracts width and signedness from a scalar operand layout.
func (ec *EvalContext) intShape(l *layout.Layout) (bits int, signed bool, err error) {
	switch t := l.Type.(type) {
	case layout.IntType:
		return t.Bits, t.Signed, nil
	case layout.BoolType:
		return 8, false, nil
	default:
		return 0, false, ec.newInvalidValueError("binary operation on non-scalar type %s", l.Type)
	}
}

func widthMask(bits int) *uint256.Int {
	mask := new(uint256.Int)
	if bits >= 256 {
		return mask.Not(mask)
	}
	mask.Lsh(uint256.NewInt(1), uint(bits))
	return mask.Sub(mask, uint256.NewInt(1))
}

// signExtend widens v from the given bit width to the full 256-bit two's
// complement representation.
func signExtend(v *uint256.Int, bits int) *uint256.Int {
	out := new(uint256.Int).Set(v)
	signBit := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bits-1))
	if new(uint256.Int).And(out, signBit).IsZero() {
		return out
	}
	return out.Or(out, new(uint256.Int).Not(widthMask(bits)))
}

// binOp computes one binary operation. The boolean result reports
// overflow: the mathematical result differed from the wrapped result.
func (ec *EvalContext) binOp(op mir.BinOp, left, right runtime.Scalar, l *layout.Layout) (runtime.Scalar, bool, error) {
	if left.IsUndef() || right.IsUndef() {
		return runtime.Scalar{}, false, ec.newInvalidValueError("binary %s on undefined bytes", op)
	}
	if !left.IsBits() || !right.IsBits() {
		return runtime.Scalar{}, false, ec.newInvalidValueError("binary %s on address values", op)
	}
	bits, signed, err := ec.intShape(l)
	if err != nil {
		return runtime.Scalar{}, false, err
	}
	mask := widthMask(bits)
	size := uint8(bits / 8)

	lv := new(uint256.Int).Set(&left.Bits)
	rv := new(uint256.Int).Set(&right.Bits)
	if signed {
		lv = signExtend(lv, bits)
		rv = signExtend(rv, bits)
	}

	if op.IsComparison() {
		return runtime.BoolScalar(compareBits(op, lv, rv, signed)), false, nil
	}

	full := new(uint256.Int)
	switch op {
	case mir.BinAdd:
		full.Add(lv, rv)
	case mir.BinSub:
		full.Sub(lv, rv)
	case mir.BinMul:
		full.Mul(lv, rv)
	case mir.BinDiv, mir.BinRem:
		if rv.IsZero() {
			return runtime.Scalar{}, false, ec.newDivisionByZeroError(op)
		}
		if signed {
			if op == mir.BinDiv {
				full.SDiv(lv, rv)
			} else {
				full.SMod(lv, rv)
			}
		} else {
			if op == mir.BinDiv {
				full.Div(lv, rv)
			} else {
				full.Mod(lv, rv)
			}
		}
	case mir.BinBitAnd:
		full.And(lv, rv)
	case mir.BinBitOr:
		full.Or(lv, rv)
	case mir.BinBitXor:
		full.Xor(lv, rv)
	case mir.BinShl, mir.BinShr:
		shift := right.Bits.Uint64()
		oversized := !right.Bits.IsUint64() || shift >= uint64(bits)
		masked := uint(shift % uint64(bits))
		if op == mir.BinShl {
			full.Lsh(lv, masked)
		} else if signed {
			full.SRsh(lv, masked)
		} else {
			full.Rsh(new(uint256.Int).And(lv, mask), masked)
		}
		wrapped := new(uint256.Int).And(full, mask)
		return runtime.BitsScalar(wrapped, size), oversized, nil
	default:
		return runtime.Scalar{}, false, ec.newUnsupportedError("binary operator %s", op)
	}

	wrapped := new(uint256.Int).And(full, mask)
	overflow := false
	if signed {
		overflow = !signExtend(wrapped, bits).Eq(full)
	} else {
		overflow = !wrapped.Eq(full)
	}
	return runtime.BitsScalar(wrapped, size), overflow, nil
}

func compareBits(op mir.BinOp, lv, rv *uint256.Int, signed bool) bool {
	var lt, gt bool
	if signed {
		lt, gt = lv.Slt(rv), lv.Sgt(rv)
	} else {
		lt, gt = lv.Lt(rv), lv.Gt(rv)
	}
	eq := lv.Eq(rv)
	switch op {
	case mir.BinEq:
		return eq
	case mir.BinNe:
		return !eq
	case mir.BinLt:
		return lt
	case mir.BinLe:
		return lt || eq
	case mir.BinGt:
		return gt
	case mir.BinGe:
		return gt || eq
	default:
		return false
	}
}

// binOpIgnoreOverflow computes op and writes the wrapped result.
func (ec *EvalContext) binOpIgnoreOverflow(op mir.BinOp, left, right runtime.Scalar, l *layout.Layout, dest PlaceTy) error {
	result, _, err := ec.binOp(op, left, right, l)
	if err != nil {
		return err
	}
	return ec.writeScalar(result, dest)
}

// binOpWithOverflow computes op and writes the wrapped result paired with
// the overflow flag.
func (ec *EvalContext) binOpWithOverflow(op mir.BinOp, left, right runtime.Scalar, l *layout.Layout, dest PlaceTy) error {
	result, overflow, err := ec.binOp(op, left, right, l)
	if err != nil {
		return err
	}
	return ec.writeValue(runtime.PairValue{A: result, B: runtime.BoolScalar(overflow)}, dest)
}

// unaryOp computes a unary operation against the destination layout.
func (ec *EvalContext) unaryOp(op mir.UnOp, val runtime.Scalar, l *layout.Layout) (runtime.Scalar, error) {
	if !val.IsBits() {
		return runtime.Scalar{}, ec.newInvalidValueError("unary %s on address value", op)
	}
	switch t := l.Type.(type) {
	case layout.BoolType:
		if op != mir.UnNot {
			return runtime.Scalar{}, ec.newUnsupportedError("unary %s on bool", op)
		}
		b, err := val.ToBool()
		if err != nil {
			return runtime.Scalar{}, ec.newInvalidValueError("%v", err)
		}
		return runtime.BoolScalar(!b), nil
	case layout.IntType:
		mask := widthMask(t.Bits)
		size := uint8(t.Bits / 8)
		out := new(uint256.Int)
		switch op {
		case mir.UnNot:
			out.Xor(&val.Bits, mask)
		case mir.UnNeg:
			if !t.Signed {
				return runtime.Scalar{}, ec.newUnsupportedError("negation of unsigned type %s", t)
			}
			out.Sub(out, &val.Bits)
			out.And(out, mask)
		default:
			return runtime.Scalar{}, ec.newUnsupportedError("unary operator %s", op)
		}
		return runtime.BitsScalar(out, size), nil
	default:
		return runtime.Scalar{}, ec.newInvalidValueError("unary %s on non-scalar type %s", op, l.Type)
	}
}
