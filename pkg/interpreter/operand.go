package interpreter

import (
	"github.com/pkg/errors"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// TypedValue pairs a machine value with its layout.
type TypedValue struct {
	Value  runtime.Value
	Layout *layout.Layout
}

// evalOperand resolves an operand to a typed value. When hint is non-nil
// it is used as the operand's layout instead of recomputing it.
func (ec *EvalContext) evalOperand(op mir.Operand, hint *layout.Layout) (TypedValue, error) {
	switch o := op.(type) {
	case mir.ConstOperand:
		lay := hint
		if lay == nil {
			var err error
			lay, err = layout.Of(o.Type)
			if err != nil {
				return TypedValue{}, errors.Wrap(err, "constant operand")
			}
		}
		return TypedValue{
			Value:  runtime.ScalarValue{Scalar: runtime.BitsScalar(o.Value, uint8(lay.Size))},
			Layout: lay,
		}, nil
	case mir.CopyOperand:
		return ec.placeOperand(o.Place, hint)
	case mir.MoveOperand:
		return ec.placeOperand(o.Place, hint)
	default:
		return TypedValue{}, ec.newInternalError("unknown operand %T", op)
	}
}

func (ec *EvalContext) placeOperand(p mir.Place, hint *layout.Layout) (TypedValue, error) {
	pt, err := ec.evalPlace(p)
	if err != nil {
		return TypedValue{}, err
	}
	lay := pt.Layout
	if hint != nil {
		lay = hint
	}
	return TypedValue{
		Value:  runtime.ByRefValue{Ptr: pt.Ptr, Meta: pt.Meta},
		Layout: lay,
	}, nil
}

// evalOperandAndReadScalar resolves an operand down to a single scalar.
func (ec *EvalContext) evalOperandAndReadScalar(op mir.Operand) (runtime.Scalar, *layout.Layout, error) {
	tv, err := ec.evalOperand(op, nil)
	if err != nil {
		return runtime.Scalar{}, nil, err
	}
	s, err := ec.readScalar(tv)
	if err != nil {
		return runtime.Scalar{}, nil, err
	}
	return s, tv.Layout, nil
}

// readScalar extracts the scalar of a scalar-shaped typed value, loading
// from memory when the value is by-ref.
func (ec *EvalContext) readScalar(tv TypedValue) (runtime.Scalar, error) {
	switch v := tv.Value.(type) {
	case runtime.ScalarValue:
		return v.Scalar, nil
	case runtime.ByRefValue:
		return ec.memory.ReadScalar(v.Ptr, tv.Layout.Size)
	case runtime.PairValue:
		return runtime.Scalar{}, ec.newInvalidValueError("expected a scalar, found a pair")
	default:
		return runtime.Scalar{}, ec.newInternalError("unknown value kind %s", tv.Value.Kind())
	}
}

// definedScalar is readScalar plus the undef check: computations may not
// consume uninitialized bits.
func (ec *EvalContext) definedScalar(tv TypedValue) (runtime.Scalar, error) {
	s, err := ec.readScalar(tv)
	if err != nil {
		return runtime.Scalar{}, err
	}
	if s.IsUndef() {
		return runtime.Scalar{}, ec.newInvalidValueError("read of undefined bytes")
	}
	return s, nil
}

//-----------------------------------------------------------------------------
// Writes
//-----------------------------------------------------------------------------

// writeScalar stores a scalar into a destination at the destination's
// width.
func (ec *EvalContext) writeScalar(s runtime.Scalar, dest PlaceTy) error {
	return ec.memory.WriteScalar(dest.Ptr, s, dest.Layout.Size)
}

// writeValue stores any machine value into a destination.
func (ec *EvalContext) writeValue(v runtime.Value, dest PlaceTy) error {
	switch val := v.(type) {
	case runtime.ScalarValue:
		return ec.writeScalar(val.Scalar, dest)
	case runtime.PairValue:
		// Pairs land in two-field layouts: checked-op results and fat
		// references.
		if len(dest.Layout.Fields) == 2 {
			a, err := ec.placeField(dest, 0)
			if err != nil {
				return err
			}
			b, err := ec.placeField(dest, 1)
			if err != nil {
				return err
			}
			if err := ec.writeScalar(val.A, a); err != nil {
				return err
			}
			return ec.writeScalar(val.B, b)
		}
		if dest.Layout.Size == 2*layout.PointerSize {
			if err := ec.memory.WriteScalar(dest.Ptr, val.A, layout.PointerSize); err != nil {
				return err
			}
			return ec.memory.WriteScalar(dest.Ptr.WithOffset(layout.PointerSize), val.B, layout.PointerSize)
		}
		return ec.newInternalError("pair value written into %s", dest.Layout.Type)
	case runtime.ByRefValue:
		return ec.memory.Copy(val.Ptr, dest.Ptr, dest.Layout.Size)
	default:
		return ec.newInternalError("unknown value kind %s", v.Kind())
	}
}

// copyValue copies a resolved operand into a destination.
func (ec *EvalContext) copyValue(tv TypedValue, dest PlaceTy) error {
	if dest.Layout.ZeroSized {
		return nil
	}
	return ec.writeValue(tv.Value, dest)
}

//-----------------------------------------------------------------------------
// Discriminants
//-----------------------------------------------------------------------------

// writeDiscriminant stores the tag selecting variant into dest. For
// non-sum destinations only variant 0 is meaningful and nothing is
// written.
func (ec *EvalContext) writeDiscriminant(variant int, dest PlaceTy) error {
	if !dest.Layout.IsSum() {
		assertf(variant == 0, "variant %d written into non-sum type %s", variant, dest.Layout.Type)
		return nil
	}
	if _, err := dest.Layout.Variant(variant); err != nil {
		return ec.newInternalError("%v", err)
	}
	tag := runtime.Uint64Scalar(uint64(variant), uint8(dest.Layout.TagSize))
	return ec.memory.WriteScalar(dest.Ptr, tag, dest.Layout.TagSize)
}

// readDiscriminant reads the tag of a sum-type place per the type's tag
// encoding.
func (ec *EvalContext) readDiscriminant(pt PlaceTy) (uint64, error) {
	if !pt.Layout.IsSum() {
		// Single-variant composites have a trivial discriminant.
		return 0, nil
	}
	tag, err := ec.memory.ReadScalar(pt.Ptr, pt.Layout.TagSize)
	if err != nil {
		return 0, err
	}
	if tag.IsUndef() {
		return 0, ec.newInvalidValueError("read of undefined discriminant")
	}
	v := tag.Uint64()
	if int(v) >= len(pt.Layout.Variants) {
		return 0, ec.newInvalidValueError("discriminant %d selects no variant of %s", v, pt.Layout.Type)
	}
	return v, nil
}
