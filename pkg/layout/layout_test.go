package layout

import "testing"

func mustOf(t *testing.T, ty Type) *Layout {
	t.Helper()
	l, err := Of(ty)
	if err != nil {
		t.Fatalf("layout of %s: %v", ty, err)
	}
	return l
}

func TestIntAndBoolLayouts(t *testing.T) {
	cases := []struct {
		ty    Type
		size  uint64
		align uint64
	}{
		{Uint(8), 1, 1},
		{Int(16), 2, 2},
		{Int(32), 4, 4},
		{Uint(64), 8, 8},
		{Int(128), 16, 8},
		{BoolType{}, 1, 1},
	}
	for _, tc := range cases {
		l := mustOf(t, tc.ty)
		if l.Size != tc.size || l.Align != tc.align {
			t.Fatalf("%s: got size=%d align=%d, want size=%d align=%d",
				tc.ty, l.Size, l.Align, tc.size, tc.align)
		}
	}
}

func TestInvalidIntWidth(t *testing.T) {
	if _, err := Of(IntType{Bits: 24, Signed: true}); err == nil {
		t.Fatalf("expected error for 24-bit integer")
	}
}

func TestTupleFieldOffsets(t *testing.T) {
	l := mustOf(t, TupleType{Fields: []Type{Uint(8), Uint(32), Uint(8)}})
	wantOffsets := []uint64{0, 4, 8}
	for i, want := range wantOffsets {
		if l.Fields[i].Offset != want {
			t.Fatalf("field %d: got offset %d, want %d", i, l.Fields[i].Offset, want)
		}
	}
	if l.Size != 12 || l.Align != 4 {
		t.Fatalf("got size=%d align=%d, want size=12 align=4", l.Size, l.Align)
	}
}

func TestUnitIsZeroSized(t *testing.T) {
	l := mustOf(t, Unit())
	if !l.ZeroSized || l.Size != 0 {
		t.Fatalf("unit layout: got size=%d zero_sized=%v", l.Size, l.ZeroSized)
	}
}

func TestArrayLayout(t *testing.T) {
	l := mustOf(t, ArrayType{Elem: Uint(32), Len: 4})
	if l.Size != 16 || l.Count != 4 || l.Elem.Size != 4 {
		t.Fatalf("array layout: got size=%d count=%d elem=%d", l.Size, l.Count, l.Elem.Size)
	}
	empty := mustOf(t, ArrayType{Elem: Uint(32), Len: 0})
	if !empty.ZeroSized {
		t.Fatalf("zero-length array should be zero-sized")
	}
}

func TestSliceIsUnsized(t *testing.T) {
	l := mustOf(t, SliceType{Elem: Uint(8)})
	if !l.Unsized {
		t.Fatalf("slice layout should be unsized")
	}
	if _, err := Of(TupleType{Fields: []Type{SliceType{Elem: Uint(8)}}}); err == nil {
		t.Fatalf("unsized field held by value should fail")
	}
}

func TestFatPointerLayout(t *testing.T) {
	thin := mustOf(t, PointerType{Elem: Uint(64)})
	if thin.Size != PointerSize {
		t.Fatalf("thin pointer: got size %d, want %d", thin.Size, PointerSize)
	}
	fat := mustOf(t, PointerType{Elem: SliceType{Elem: Uint(8)}})
	if fat.Size != 2*PointerSize {
		t.Fatalf("fat pointer: got size %d, want %d", fat.Size, 2*PointerSize)
	}
}

func TestSumTypeLayout(t *testing.T) {
	opt := SumType{
		Name:    "OptionU32",
		TagBits: 8,
		Variants: []Variant{
			{Name: "None"},
			{Name: "Some", Fields: []Type{Uint(32)}},
		},
	}
	l := mustOf(t, opt)
	if l.TagSize != 1 {
		t.Fatalf("tag size: got %d, want 1", l.TagSize)
	}
	some, err := l.Variant(1)
	if err != nil {
		t.Fatalf("variant 1: %v", err)
	}
	if got := some.Fields[0].Offset; got != 4 {
		t.Fatalf("Some field offset: got %d, want 4 (tag plus padding)", got)
	}
	if l.Size != 8 {
		t.Fatalf("sum size: got %d, want 8", l.Size)
	}
	if _, err := l.Variant(2); err == nil {
		t.Fatalf("variant out of range should fail")
	}
}
