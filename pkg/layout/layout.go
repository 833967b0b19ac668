package layout

import (
	"fmt"
)

// PointerSize is the byte width of addresses on the evaluation target.
// The machine models a 64-bit target; Len and SizeOf results are written
// at this width.
const PointerSize = 8

// PointerAlign is the required alignment of addresses.
const PointerAlign = 8

// FieldSlot pairs a field layout with its byte offset inside the parent.
type FieldSlot struct {
	Offset uint64
	Layout *Layout
}

// Layout is the computed shape of one type: total size, alignment and the
// offsets of any fields. A Layout is immutable once returned by Of.
type Layout struct {
	Type   Type
	Size   uint64
	Align  uint64
	Fields []FieldSlot

	// Variants holds one layout per sum-type alternative. Each variant
	// layout describes the fields of that alternative with offsets that
	// already account for the leading tag word.
	Variants []*Layout

	// Elem and Count describe array and slice element shapes.
	Elem  *Layout
	Count uint64

	// TagSize is the discriminant width in bytes for sum types.
	TagSize uint64

	Unsized   bool
	ZeroSized bool
}

// Of computes the layout of t. It fails for malformed types (invalid
// integer widths, unsized types embedded by value).
func Of(t Type) (*Layout, error) {
	switch ty := t.(type) {
	case IntType:
		switch ty.Bits {
		case 8, 16, 32, 64, 128:
		default:
			return nil, fmt.Errorf("layout: invalid integer width %d", ty.Bits)
		}
		size := uint64(ty.Bits / 8)
		align := size
		if align > PointerAlign {
			align = PointerAlign
		}
		return &Layout{Type: ty, Size: size, Align: align}, nil

	case BoolType:
		return &Layout{Type: ty, Size: 1, Align: 1}, nil

	case PointerType:
		elem, err := Of(ty.Elem)
		if err != nil {
			return nil, err
		}
		size := uint64(PointerSize)
		if elem.Unsized {
			// Fat reference: address plus element count.
			size = 2 * PointerSize
		}
		return &Layout{Type: ty, Size: size, Align: PointerAlign, Elem: elem}, nil

	case ArrayType:
		elem, err := Of(ty.Elem)
		if err != nil {
			return nil, err
		}
		if elem.Unsized {
			return nil, fmt.Errorf("layout: array of unsized element %s", ty.Elem)
		}
		l := &Layout{
			Type:  ty,
			Size:  elem.Size * ty.Len,
			Align: elem.Align,
			Elem:  elem,
			Count: ty.Len,
		}
		l.ZeroSized = l.Size == 0
		return l, nil

	case SliceType:
		elem, err := Of(ty.Elem)
		if err != nil {
			return nil, err
		}
		if elem.Unsized {
			return nil, fmt.Errorf("layout: slice of unsized element %s", ty.Elem)
		}
		return &Layout{Type: ty, Align: elem.Align, Elem: elem, Unsized: true}, nil

	case TupleType:
		fields, size, align, err := layoutFields(ty.Fields, 0)
		if err != nil {
			return nil, err
		}
		l := &Layout{Type: ty, Size: size, Align: align, Fields: fields}
		l.ZeroSized = l.Size == 0
		return l, nil

	case SumType:
		switch ty.TagBits {
		case 8, 16, 32, 64:
		default:
			return nil, fmt.Errorf("layout: invalid tag width %d for %s", ty.TagBits, ty)
		}
		if len(ty.Variants) == 0 {
			return nil, fmt.Errorf("layout: sum type %s has no variants", ty)
		}
		tagSize := uint64(ty.TagBits / 8)
		l := &Layout{Type: ty, Size: tagSize, Align: tagSize, TagSize: tagSize}
		for _, v := range ty.Variants {
			fields, size, align, err := layoutFields(v.Fields, tagSize)
			if err != nil {
				return nil, err
			}
			variant := &Layout{
				Type:    TupleType{Fields: v.Fields},
				Size:    size,
				Align:   align,
				Fields:  fields,
				TagSize: tagSize,
			}
			l.Variants = append(l.Variants, variant)
			if size > l.Size {
				l.Size = size
			}
			if align > l.Align {
				l.Align = align
			}
		}
		l.Size = alignUp(l.Size, l.Align)
		for _, v := range l.Variants {
			v.Size = l.Size
			v.Align = l.Align
		}
		return l, nil

	default:
		return nil, fmt.Errorf("layout: unknown type %T", t)
	}
}

// layoutFields lays out a field list C-style starting at base, returning
// the slots, the padded total size and the overall alignment.
func layoutFields(types []Type, base uint64) ([]FieldSlot, uint64, uint64, error) {
	offset := base
	align := uint64(1)
	if base > 0 {
		align = base
	}
	var fields []FieldSlot
	for _, ft := range types {
		fl, err := Of(ft)
		if err != nil {
			return nil, 0, 0, err
		}
		if fl.Unsized {
			return nil, 0, 0, fmt.Errorf("layout: unsized field %s held by value", ft)
		}
		if fl.Align > 0 {
			offset = alignUp(offset, fl.Align)
		}
		fields = append(fields, FieldSlot{Offset: offset, Layout: fl})
		offset += fl.Size
		if fl.Align > align {
			align = fl.Align
		}
	}
	return fields, alignUp(offset, align), align, nil
}

func alignUp(n, align uint64) uint64 {
	if align == 0 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + align - rem
}

// Field returns the slot for field i, valid for tuple and variant layouts.
func (l *Layout) Field(i int) (FieldSlot, error) {
	if i < 0 || i >= len(l.Fields) {
		return FieldSlot{}, fmt.Errorf("layout: field %d out of range for %s", i, l.Type)
	}
	return l.Fields[i], nil
}

// Variant returns the layout view of sum-type alternative i.
func (l *Layout) Variant(i int) (*Layout, error) {
	if i < 0 || i >= len(l.Variants) {
		return nil, fmt.Errorf("layout: variant %d out of range for %s", i, l.Type)
	}
	return l.Variants[i], nil
}

// IsSum reports whether the layout describes a tagged union.
func (l *Layout) IsSum() bool { return len(l.Variants) > 0 }
