package runtime

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
)

func TestScalarRoundTrip(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(8, 8)

	if err := m.WriteScalar(p, Uint64Scalar(0xCAFE, 4), 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := m.ReadScalar(p, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsBits() || got.Uint64() != 0xCAFE || got.Size != 4 {
		t.Fatalf("got %s, want bits 0xCAFE size 4", got)
	}
}

func TestReadUninitializedYieldsUndef(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(8, 8)

	got, err := m.ReadScalar(p, 8)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsUndef() {
		t.Fatalf("got %s, want undef", got)
	}

	// Half-written ranges are still undef as a whole.
	if err := m.WriteScalar(p, Uint64Scalar(1, 4), 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = m.ReadScalar(p, 8)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsUndef() {
		t.Fatalf("got %s, want undef for partially initialized range", got)
	}
}

func TestWriteUndefDeinitializes(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(4, 4)

	if err := m.WriteScalar(p, Uint64Scalar(7, 4), 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.WriteScalar(p, UndefScalar(), 4); err != nil {
		t.Fatalf("write undef: %v", err)
	}
	got, err := m.ReadScalar(p, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsUndef() {
		t.Fatalf("got %s, want undef after undef write", got)
	}
}

func TestPointerRoundTrip(t *testing.T) {
	m := NewMemory()
	target := m.Allocate(16, 8)
	cell := m.Allocate(8, 8)

	want := target.WithOffset(4)
	if err := m.WriteScalar(cell, PtrScalar(want), PointerSize); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := m.ReadScalar(cell, PointerSize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsPtr() || got.Ptr != want {
		t.Fatalf("got %s, want pointer %v", got, want)
	}
}

func TestPartialPointerReadFails(t *testing.T) {
	m := NewMemory()
	target := m.Allocate(8, 8)
	cell := m.Allocate(8, 8)

	if err := m.WriteScalar(cell, PtrScalar(target), PointerSize); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := m.ReadScalar(cell, 4); err == nil {
		t.Fatalf("partial read of a stored pointer should fail")
	}
}

func TestOverwriteClearsRelocation(t *testing.T) {
	m := NewMemory()
	target := m.Allocate(8, 8)
	cell := m.Allocate(8, 8)

	if err := m.WriteScalar(cell, PtrScalar(target), PointerSize); err != nil {
		t.Fatalf("write pointer: %v", err)
	}
	if err := m.WriteScalar(cell, Uint64Scalar(5, 8), 8); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := m.ReadScalar(cell, 8)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsBits() || got.Uint64() != 5 {
		t.Fatalf("got %s, want bits 5 after overwrite", got)
	}
}

func TestWideScalarRoundTrip(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(16, 8)

	want := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	want.Or(want, uint256.NewInt(0x1234))
	if err := m.WriteScalar(p, BitsScalar(want, 16), 16); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := m.ReadScalar(p, 16)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsBits() || !got.Bits.Eq(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestOutOfBoundsAccess(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(4, 4)

	if err := m.WriteScalar(p.WithOffset(2), Uint64Scalar(1, 4), 4); err == nil {
		t.Fatalf("out of bounds write should fail")
	}
	if _, err := m.ReadScalar(p.WithOffset(4), 1); err == nil {
		t.Fatalf("out of bounds read should fail")
	}
}

func TestFreeAndDeadAccess(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(4, 4)

	if err := m.Free(p.Alloc); err != nil {
		t.Fatalf("free: %v", err)
	}
	if err := m.Free(p.Alloc); err == nil {
		t.Fatalf("double free should fail")
	}
	if _, err := m.ReadScalar(p, 4); err == nil {
		t.Fatalf("read of freed allocation should fail")
	}
}

func TestCopyCarriesInitAndRelocations(t *testing.T) {
	m := NewMemory()
	target := m.Allocate(8, 8)
	src := m.Allocate(16, 8)
	dst := m.Allocate(16, 8)

	if err := m.WriteScalar(src, PtrScalar(target), PointerSize); err != nil {
		t.Fatalf("write pointer: %v", err)
	}
	// Bytes 8..16 of src stay uninitialized.
	if err := m.Copy(src, dst, 16); err != nil {
		t.Fatalf("copy: %v", err)
	}

	got, err := m.ReadScalar(dst, PointerSize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsPtr() || got.Ptr != target {
		t.Fatalf("got %s, want relocated pointer %v", got, target)
	}
	tail, err := m.ReadScalar(dst.WithOffset(8), 8)
	if err != nil {
		t.Fatalf("read tail: %v", err)
	}
	if !tail.IsUndef() {
		t.Fatalf("got %s, want undef tail after copy", tail)
	}
}

func TestCopyRepeatedly(t *testing.T) {
	m := NewMemory()
	src := m.Allocate(4, 4)
	dst := m.Allocate(16, 4)

	if err := m.WriteScalar(src, Uint64Scalar(9, 4), 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.CopyRepeatedly(src, dst, 4, 4); err != nil {
		t.Fatalf("copy repeatedly: %v", err)
	}
	for i := uint64(0); i < 4; i++ {
		got, err := m.ReadScalar(dst.WithOffset(i*4), 4)
		if err != nil {
			t.Fatalf("read slot %d: %v", i, err)
		}
		if !got.IsBits() || got.Uint64() != 9 {
			t.Fatalf("slot %d: got %s, want bits 9", i, got)
		}
	}
}

func TestSnapshotIsDeepAndStable(t *testing.T) {
	m := NewMemory()
	p := m.Allocate(8, 8)
	if err := m.WriteScalar(p, Uint64Scalar(1, 8), 8); err != nil {
		t.Fatalf("write: %v", err)
	}

	before := m.Snapshot()
	again := m.Snapshot()
	if !cmp.Equal(before, again) {
		t.Fatalf("back-to-back snapshots differ:\n%s", cmp.Diff(before, again))
	}

	if err := m.WriteScalar(p, Uint64Scalar(2, 8), 8); err != nil {
		t.Fatalf("write: %v", err)
	}
	after := m.Snapshot()
	if cmp.Equal(before, after) {
		t.Fatalf("snapshot did not observe the mutation")
	}
	// The earlier snapshot must be unaffected by the later write.
	if !cmp.Equal(before, again) {
		t.Fatalf("earlier snapshot mutated by later write")
	}
}
