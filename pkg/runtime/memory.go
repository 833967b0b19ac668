package runtime

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// PointerSize is the byte width of machine addresses.
const PointerSize = 8

// AllocID identifies one allocation.
type AllocID uint64

// Pointer addresses a byte inside an allocation. The machine has no flat
// address space; pointer arithmetic never crosses allocations.
type Pointer struct {
	Alloc  AllocID
	Offset uint64
}

// WithOffset returns the pointer advanced by n bytes.
func (p Pointer) WithOffset(n uint64) Pointer {
	return Pointer{Alloc: p.Alloc, Offset: p.Offset + n}
}

// Allocation is one block of machine memory. Init tracks per-byte
// initialization; Relocs records offsets holding stored pointers.
type Allocation struct {
	Bytes  []byte
	Init   []bool
	Relocs map[uint64]Pointer
	Align  uint64
}

// Memory is the machine's allocation table.
type Memory struct {
	next   AllocID
	allocs map[AllocID]*Allocation
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{next: 1, allocs: make(map[AllocID]*Allocation)}
}

// Allocate reserves size bytes with the given alignment. The new
// allocation is entirely uninitialized.
func (m *Memory) Allocate(size, align uint64) Pointer {
	if align == 0 {
		align = 1
	}
	id := m.next
	m.next++
	m.allocs[id] = &Allocation{
		Bytes:  make([]byte, size),
		Init:   make([]bool, size),
		Relocs: make(map[uint64]Pointer),
		Align:  align,
	}
	return Pointer{Alloc: id}
}

// Free releases an allocation. Double frees and unknown ids fail.
func (m *Memory) Free(id AllocID) error {
	if _, ok := m.allocs[id]; !ok {
		return fmt.Errorf("memory: free of unknown allocation %d", id)
	}
	delete(m.allocs, id)
	return nil
}

// AllocationSize returns the byte size of an allocation.
func (m *Memory) AllocationSize(id AllocID) (uint64, error) {
	a, err := m.allocation(id)
	if err != nil {
		return 0, err
	}
	return uint64(len(a.Bytes)), nil
}

func (m *Memory) allocation(id AllocID) (*Allocation, error) {
	a, ok := m.allocs[id]
	if !ok {
		return nil, fmt.Errorf("memory: access to dead allocation %d", id)
	}
	return a, nil
}

func (m *Memory) checkRange(a *Allocation, p Pointer, size uint64) error {
	if p.Offset+size > uint64(len(a.Bytes)) {
		return fmt.Errorf("memory: access of %d bytes at %d+%d out of bounds (allocation is %d bytes)",
			size, p.Alloc, p.Offset, len(a.Bytes))
	}
	return nil
}

// ReadScalar reads a scalar of the given byte width. Uninitialized bytes
// yield an undef scalar; a stored pointer round-trips as a pointer scalar.
func (m *Memory) ReadScalar(p Pointer, size uint64) (Scalar, error) {
	if size == 0 || size > 32 {
		return Scalar{}, fmt.Errorf("memory: invalid scalar read size %d", size)
	}
	a, err := m.allocation(p.Alloc)
	if err != nil {
		return Scalar{}, err
	}
	if err := m.checkRange(a, p, size); err != nil {
		return Scalar{}, err
	}
	for i := uint64(0); i < size; i++ {
		if !a.Init[p.Offset+i] {
			return UndefScalar(), nil
		}
	}
	if target, ok := a.Relocs[p.Offset]; ok && size == PointerSize {
		return PtrScalar(target), nil
	}
	for off := range a.Relocs {
		if off+PointerSize > p.Offset && off < p.Offset+size {
			return Scalar{}, fmt.Errorf("memory: partial read of stored pointer at %d+%d", p.Alloc, off)
		}
	}
	bits := new(uint256.Int)
	for i := int(size) - 1; i >= 0; i-- {
		bits.Lsh(bits, 8)
		bits.Or(bits, uint256.NewInt(uint64(a.Bytes[p.Offset+uint64(i)])))
	}
	return BitsScalar(bits, uint8(size)), nil
}

// WriteScalar stores a scalar at the given byte width. Writing undef
// de-initializes the range.
func (m *Memory) WriteScalar(p Pointer, s Scalar, size uint64) error {
	if size == 0 || size > 32 {
		return fmt.Errorf("memory: invalid scalar write size %d", size)
	}
	a, err := m.allocation(p.Alloc)
	if err != nil {
		return err
	}
	if err := m.checkRange(a, p, size); err != nil {
		return err
	}
	m.clearRelocs(a, p.Offset, size)
	switch s.ScalarKind {
	case ScalarUndef:
		for i := uint64(0); i < size; i++ {
			a.Init[p.Offset+i] = false
		}
		return nil
	case ScalarPtr:
		if size != PointerSize {
			return fmt.Errorf("memory: pointer write of %d bytes", size)
		}
		putUint64LE(a.Bytes[p.Offset:p.Offset+size], s.Ptr.Offset)
		a.Relocs[p.Offset] = s.Ptr
	default:
		b32 := s.Bits.Bytes32()
		for i := uint64(0); i < size; i++ {
			a.Bytes[p.Offset+i] = b32[31-i]
		}
	}
	for i := uint64(0); i < size; i++ {
		a.Init[p.Offset+i] = true
	}
	return nil
}

// Copy moves size bytes between allocations, carrying initialization
// state and stored pointers along.
func (m *Memory) Copy(src, dst Pointer, size uint64) error {
	if size == 0 {
		return nil
	}
	sa, err := m.allocation(src.Alloc)
	if err != nil {
		return errors.Wrap(err, "copy source")
	}
	da, err := m.allocation(dst.Alloc)
	if err != nil {
		return errors.Wrap(err, "copy destination")
	}
	if err := m.checkRange(sa, src, size); err != nil {
		return errors.Wrap(err, "copy source")
	}
	if err := m.checkRange(da, dst, size); err != nil {
		return errors.Wrap(err, "copy destination")
	}
	bytes := make([]byte, size)
	init := make([]bool, size)
	copy(bytes, sa.Bytes[src.Offset:src.Offset+size])
	copy(init, sa.Init[src.Offset:src.Offset+size])
	relocs := make(map[uint64]Pointer)
	for off, target := range sa.Relocs {
		if off >= src.Offset && off+PointerSize <= src.Offset+size {
			relocs[off-src.Offset] = target
		}
	}
	m.clearRelocs(da, dst.Offset, size)
	copy(da.Bytes[dst.Offset:dst.Offset+size], bytes)
	copy(da.Init[dst.Offset:dst.Offset+size], init)
	for off, target := range relocs {
		da.Relocs[dst.Offset+off] = target
	}
	return nil
}

// CopyRepeatedly replicates the source range into count consecutive slots
// starting at dst. Replication always reads the already-written source
// forward, so adjacent ranges stay safe.
func (m *Memory) CopyRepeatedly(src, dst Pointer, size, count uint64) error {
	for i := uint64(0); i < count; i++ {
		if err := m.Copy(src, dst.WithOffset(i*size), size); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) clearRelocs(a *Allocation, offset, size uint64) {
	for off := range a.Relocs {
		if off+PointerSize > offset && off < offset+size {
			delete(a.Relocs, off)
		}
	}
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < len(b) && i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

//-----------------------------------------------------------------------------
// Snapshots
//-----------------------------------------------------------------------------

// AllocationSnapshot is the frozen image of one allocation.
type AllocationSnapshot struct {
	Bytes  []byte
	Init   []bool
	Relocs map[uint64]Pointer
}

// MemorySnapshot is a deep, immutable copy of the whole memory shape,
// keyed and ordered by allocation id for stable comparison.
type MemorySnapshot struct {
	IDs    []AllocID
	Allocs map[AllocID]AllocationSnapshot
}

// Snapshot deep-copies the current memory state.
func (m *Memory) Snapshot() MemorySnapshot {
	snap := MemorySnapshot{Allocs: make(map[AllocID]AllocationSnapshot, len(m.allocs))}
	for id, a := range m.allocs {
		bytes := make([]byte, len(a.Bytes))
		init := make([]bool, len(a.Init))
		copy(bytes, a.Bytes)
		copy(init, a.Init)
		relocs := make(map[uint64]Pointer, len(a.Relocs))
		for off, target := range a.Relocs {
			relocs[off] = target
		}
		snap.IDs = append(snap.IDs, id)
		snap.Allocs[id] = AllocationSnapshot{Bytes: bytes, Init: init, Relocs: relocs}
	}
	sort.Slice(snap.IDs, func(i, j int) bool { return snap.IDs[i] < snap.IDs[j] })
	return snap
}
