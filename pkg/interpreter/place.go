package interpreter

import (
	"github.com/pkg/errors"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// PlaceTy is a resolved destination: an addressable location paired with
// its layout. For unsized places Meta carries the element count.
type PlaceTy struct {
	Ptr    runtime.Pointer
	Meta   runtime.Scalar
	Layout *layout.Layout
}

// evalPlace resolves an IR place against the current frame.
func (ec *EvalContext) evalPlace(p mir.Place) (PlaceTy, error) {
	pt, err := ec.localPlace(ec.frame(), p.Local)
	if err != nil {
		return PlaceTy{}, err
	}
	for _, proj := range p.Proj {
		switch pr := proj.(type) {
		case mir.FieldProj:
			pt, err = ec.placeField(pt, pr.Index)
		case mir.DowncastProj:
			pt, err = ec.placeDowncast(pt, pr.Variant)
		case mir.DerefProj:
			pt, err = ec.placeDeref(pt)
		case mir.IndexProj:
			pt, err = ec.placeIndex(pt, pr.Index)
		default:
			return PlaceTy{}, ec.newInternalError("unknown place projection %T", proj)
		}
		if err != nil {
			return PlaceTy{}, err
		}
	}
	return pt, nil
}

// placeField narrows a place to field i of its layout.
func (ec *EvalContext) placeField(pt PlaceTy, i int) (PlaceTy, error) {
	slot, err := pt.Layout.Field(i)
	if err != nil {
		return PlaceTy{}, errors.Wrap(err, "field projection")
	}
	return PlaceTy{Ptr: pt.Ptr.WithOffset(slot.Offset), Layout: slot.Layout}, nil
}

// placeDowncast produces the variant-narrowed view of a sum-type place.
// The underlying storage is unchanged; only the layout view shifts.
func (ec *EvalContext) placeDowncast(pt PlaceTy, variant int) (PlaceTy, error) {
	v, err := pt.Layout.Variant(variant)
	if err != nil {
		return PlaceTy{}, errors.Wrap(err, "downcast projection")
	}
	return PlaceTy{Ptr: pt.Ptr, Meta: pt.Meta, Layout: v}, nil
}

// placeDeref follows the reference stored at pt.
func (ec *EvalContext) placeDeref(pt PlaceTy) (PlaceTy, error) {
	elem := pt.Layout.Elem
	if _, ok := pt.Layout.Type.(layout.PointerType); !ok || elem == nil {
		return PlaceTy{}, ec.newInvalidValueError("dereference of non-pointer type %s", pt.Layout.Type)
	}
	addr, err := ec.memory.ReadScalar(pt.Ptr, layout.PointerSize)
	if err != nil {
		return PlaceTy{}, err
	}
	if addr.IsUndef() {
		return PlaceTy{}, ec.newInvalidValueError("dereference of undefined pointer")
	}
	if !addr.IsPtr() {
		return PlaceTy{}, ec.newInvalidValueError("dereference of non-address bit pattern %s", addr)
	}
	out := PlaceTy{Ptr: addr.Ptr, Layout: elem}
	if elem.Unsized {
		meta, err := ec.memory.ReadScalar(pt.Ptr.WithOffset(layout.PointerSize), layout.PointerSize)
		if err != nil {
			return PlaceTy{}, err
		}
		if !meta.IsBits() {
			return PlaceTy{}, ec.newInvalidValueError("fat reference carries invalid metadata %s", meta)
		}
		out.Meta = meta
	}
	return out, nil
}

// placeIndex narrows an array or slice place to element i.
func (ec *EvalContext) placeIndex(pt PlaceTy, i uint64) (PlaceTy, error) {
	elem := pt.Layout.Elem
	if elem == nil {
		return PlaceTy{}, ec.newInvalidValueError("index projection on non-sequence type %s", pt.Layout.Type)
	}
	length, err := ec.placeLen(pt)
	if err != nil {
		return PlaceTy{}, err
	}
	if i >= length {
		return PlaceTy{}, ec.newInvalidValueError("index %d out of bounds for length %d", i, length)
	}
	return PlaceTy{Ptr: pt.Ptr.WithOffset(i * elem.Size), Layout: elem}, nil
}

// materialize turns a place into concrete storage. Places in this machine
// are always memory-backed, so this validates rather than relocates.
func (ec *EvalContext) materialize(pt PlaceTy) (PlaceTy, error) {
	if _, err := ec.memory.AllocationSize(pt.Ptr.Alloc); err != nil {
		return PlaceTy{}, err
	}
	return pt, nil
}

// placeLen reads the element count of a sequence place.
func (ec *EvalContext) placeLen(pt PlaceTy) (uint64, error) {
	switch pt.Layout.Type.(type) {
	case layout.ArrayType:
		return pt.Layout.Count, nil
	case layout.SliceType:
		if !pt.Meta.IsBits() {
			return 0, ec.newInvalidValueError("unsized place has no element count")
		}
		return pt.Meta.Uint64(), nil
	default:
		return 0, ec.newInternalError("length query on non-sequence type %s", pt.Layout.Type)
	}
}
