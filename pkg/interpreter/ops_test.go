package interpreter

import (
	"testing"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

func opScalar(ty layout.IntType, v int64) runtime.Scalar {
	c := mir.ConstInt(ty, v)
	return runtime.BitsScalar(c.Value, uint8(ty.Bits/8))
}

func opLayout(t *testing.T, ty layout.Type) *layout.Layout {
	t.Helper()
	l, err := layout.Of(ty)
	if err != nil {
		t.Fatalf("layout of %s: %v", ty, err)
	}
	return l
}

func TestBinOpArithmetic(t *testing.T) {
	ec := New(ConstMachine{}, nil)
	cases := []struct {
		name         string
		ty           layout.IntType
		op           mir.BinOp
		left, right  int64
		want         uint64
		wantOverflow bool
	}{
		{"add", layout.Uint(32), mir.BinAdd, 2, 3, 5, false},
		{"add_wraps_u8", layout.Uint(8), mir.BinAdd, 200, 100, 44, true},
		{"sub_wraps_u8", layout.Uint(8), mir.BinSub, 1, 2, 0xFF, true},
		{"sub_signed_no_overflow", layout.Int(8), mir.BinSub, 1, 2, 0xFF, false},
		{"mul", layout.Uint(16), mir.BinMul, 300, 300, 0x5F90, true},
		{"mul_i8_overflow", layout.Int(8), mir.BinMul, 100, 2, 200 & 0xFF, true},
		{"div_unsigned", layout.Uint(32), mir.BinDiv, 7, 2, 3, false},
		{"div_signed", layout.Int(32), mir.BinDiv, -7, 2, 0xFFFFFFFD, false},
		{"rem_signed", layout.Int(32), mir.BinRem, -7, 2, 0xFFFFFFFF, false},
		{"and", layout.Uint(8), mir.BinBitAnd, 0b1100, 0b1010, 0b1000, false},
		{"or", layout.Uint(8), mir.BinBitOr, 0b1100, 0b1010, 0b1110, false},
		{"xor", layout.Uint(8), mir.BinBitXor, 0b1100, 0b1010, 0b0110, false},
		{"shl", layout.Uint(8), mir.BinShl, 1, 3, 8, false},
		{"shl_oversized", layout.Uint(8), mir.BinShl, 1, 8, 1, true},
		{"shr_unsigned", layout.Uint(8), mir.BinShr, 0x80, 1, 0x40, false},
		{"shr_signed", layout.Int(8), mir.BinShr, -2, 1, 0xFF, false},
	}
	for _, tc := range cases {
		got, overflow, err := ec.binOp(tc.op, opScalar(tc.ty, tc.left), opScalar(tc.ty, tc.right), opLayout(t, tc.ty))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !got.IsBits() || got.Uint64() != tc.want {
			t.Fatalf("%s: got %s, want bits %#x", tc.name, got, tc.want)
		}
		if overflow != tc.wantOverflow {
			t.Fatalf("%s: overflow got %v, want %v", tc.name, overflow, tc.wantOverflow)
		}
		if got.Size != uint8(tc.ty.Bits/8) {
			t.Fatalf("%s: result size got %d, want %d", tc.name, got.Size, tc.ty.Bits/8)
		}
	}
}

func TestBinOpComparisons(t *testing.T) {
	ec := New(ConstMachine{}, nil)
	cases := []struct {
		name        string
		ty          layout.IntType
		op          mir.BinOp
		left, right int64
		want        bool
	}{
		{"eq", layout.Uint(32), mir.BinEq, 4, 4, true},
		{"ne", layout.Uint(32), mir.BinNe, 4, 4, false},
		{"lt_unsigned", layout.Uint(8), mir.BinLt, 1, 255, true},
		{"lt_signed", layout.Int(8), mir.BinLt, -1, 1, true},
		{"gt_signed", layout.Int(8), mir.BinGt, 1, -1, true},
		{"le_equal", layout.Int(32), mir.BinLe, 3, 3, true},
		{"ge_signed", layout.Int(32), mir.BinGe, -3, -4, true},
	}
	for _, tc := range cases {
		got, overflow, err := ec.binOp(tc.op, opScalar(tc.ty, tc.left), opScalar(tc.ty, tc.right), opLayout(t, tc.ty))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if overflow {
			t.Fatalf("%s: comparison reported overflow", tc.name)
		}
		b, err := got.ToBool()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if b != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, b, tc.want)
		}
	}
}

func TestBinOpWideWidths(t *testing.T) {
	ec := New(ConstMachine{}, nil)
	ty := layout.Uint(128)
	l := opLayout(t, ty)

	// (1<<127) + (1<<127) wraps to zero at 128 bits.
	half := opScalar(ty, 1)
	shift := opScalar(ty, 127)
	high, _, err := ec.binOp(mir.BinShl, half, shift, l)
	if err != nil {
		t.Fatalf("shl: %v", err)
	}
	sum, overflow, err := ec.binOp(mir.BinAdd, high, high, l)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !sum.Bits.IsZero() || !overflow {
		t.Fatalf("got %s overflow=%v, want zero with overflow", sum, overflow)
	}
}

func TestBinOpRejectsPointerOperands(t *testing.T) {
	ec := New(ConstMachine{}, nil)
	ptr := runtime.PtrScalar(runtime.Pointer{Alloc: 1})
	_, _, err := ec.binOp(mir.BinAdd, ptr, opScalar(layout.Uint(64), 1), opLayout(t, layout.Uint(64)))
	if !IsKind(err, ErrInvalidValue) {
		t.Fatalf("got %v, want %s", err, ErrInvalidValue)
	}
}

func TestUnaryOps(t *testing.T) {
	ec := New(ConstMachine{}, nil)

	got, err := ec.unaryOp(mir.UnNot, runtime.BoolScalar(true), opLayout(t, layout.BoolType{}))
	if err != nil {
		t.Fatalf("not bool: %v", err)
	}
	if b, _ := got.ToBool(); b {
		t.Fatalf("!true: got %s, want false", got)
	}

	got, err = ec.unaryOp(mir.UnNot, opScalar(layout.Uint(8), 0b1010), opLayout(t, layout.Uint(8)))
	if err != nil {
		t.Fatalf("not u8: %v", err)
	}
	if got.Uint64() != 0b11110101 {
		t.Fatalf("^0b1010: got %s, want 0b11110101", got)
	}

	got, err = ec.unaryOp(mir.UnNeg, opScalar(layout.Int(32), 5), opLayout(t, layout.Int(32)))
	if err != nil {
		t.Fatalf("neg i32: %v", err)
	}
	if got.Uint64() != 0xFFFFFFFB {
		t.Fatalf("-5: got %s, want two's complement 0xFFFFFFFB", got)
	}

	if _, err := ec.unaryOp(mir.UnNeg, opScalar(layout.Uint(32), 5), opLayout(t, layout.Uint(32))); !IsKind(err, ErrUnsupported) {
		t.Fatalf("negating unsigned: got %v, want %s", err, ErrUnsupported)
	}
}
