package interpreter

import (
	"fmt"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// evalRvalueInto evaluates an assignment's right-hand side directly into
// the resolved destination. There is no separate "evaluate rvalue to a
// value" path; every branch writes its result into the memory named by
// the place.
func (ec *EvalContext) evalRvalueInto(rv mir.Rvalue, place mir.Place) error {
	dest, err := ec.evalPlace(place)
	if err != nil {
		return err
	}

	switch r := rv.(type) {
	case *mir.UseRvalue:
		// The destination layout doubles as the operand hint to avoid
		// recomputing it.
		op, err := ec.evalOperand(r.Operand, dest.Layout)
		if err != nil {
			return err
		}
		if err := ec.copyValue(op, dest); err != nil {
			return err
		}

	case *mir.BinaryOpRvalue:
		left, leftLayout, err := ec.evalOperandAndReadScalar(r.Left)
		if err != nil {
			return err
		}
		right, _, err := ec.evalOperandAndReadScalar(r.Right)
		if err != nil {
			return err
		}
		if err := ec.binOpIgnoreOverflow(r.Op, left, right, leftLayout, dest); err != nil {
			return err
		}

	case *mir.CheckedBinaryOpRvalue:
		left, leftLayout, err := ec.evalOperandAndReadScalar(r.Left)
		if err != nil {
			return err
		}
		right, _, err := ec.evalOperandAndReadScalar(r.Right)
		if err != nil {
			return err
		}
		if err := ec.binOpWithOverflow(r.Op, left, right, leftLayout, dest); err != nil {
			return err
		}

	case *mir.UnaryOpRvalue:
		tv, err := ec.evalOperand(r.Operand, nil)
		if err != nil {
			return err
		}
		val, err := ec.definedScalar(tv)
		if err != nil {
			return err
		}
		out, err := ec.unaryOp(r.Op, val, dest.Layout)
		if err != nil {
			return err
		}
		if err := ec.writeScalar(out, dest); err != nil {
			return err
		}

	case *mir.AggregateRvalue:
		if err := ec.evalAggregateInto(r, dest); err != nil {
			return err
		}

	case *mir.RepeatRvalue:
		if err := ec.evalRepeatInto(r, dest); err != nil {
			return err
		}

	case *mir.LenRvalue:
		src, err := ec.evalPlace(r.Place)
		if err != nil {
			return err
		}
		src, err = ec.materialize(src)
		if err != nil {
			return err
		}
		length, err := ec.placeLen(src)
		if err != nil {
			return err
		}
		if err := ec.writeScalar(runtime.Uint64Scalar(length, layout.PointerSize), dest); err != nil {
			return err
		}

	case *mir.RefRvalue:
		src, err := ec.evalPlace(r.Place)
		if err != nil {
			return err
		}
		src, err = ec.materialize(src)
		if err != nil {
			return err
		}
		var ref runtime.Value
		if src.Layout.Unsized {
			ref = runtime.PairValue{A: runtime.PtrScalar(src.Ptr), B: src.Meta}
		} else {
			ref = runtime.ScalarValue{Scalar: runtime.PtrScalar(src.Ptr)}
		}
		if err := ec.writeValue(ref, dest); err != nil {
			return err
		}

	case *mir.HeapAllocRvalue:
		if err := ec.machine.HeapAlloc(ec, dest); err != nil {
			return err
		}

	case *mir.SizeOfRvalue:
		l, err := layout.Of(r.Type)
		if err != nil {
			return err
		}
		if l.Unsized {
			return ec.newInternalError("size-of applied to unsized type %s", r.Type)
		}
		if err := ec.writeScalar(runtime.Uint64Scalar(l.Size, layout.PointerSize), dest); err != nil {
			return err
		}

	case *mir.CastRvalue:
		// No layout hint: cast semantics are directed by the types, not
		// by the destination shape.
		src, err := ec.evalOperand(r.Operand, nil)
		if err != nil {
			return err
		}
		if err := ec.cast(src, r.Kind, r.Type, dest); err != nil {
			return err
		}

	case *mir.DiscriminantRvalue:
		src, err := ec.evalPlace(r.Place)
		if err != nil {
			return err
		}
		tag, err := ec.readDiscriminant(src)
		if err != nil {
			return err
		}
		if err := ec.writeScalar(runtime.Uint64Scalar(tag, uint8(dest.Layout.Size)), dest); err != nil {
			return err
		}

	default:
		return ec.newUnsupportedError("rvalue %T", rv)
	}

	ec.dumpPlace(dest)
	return nil
}

// evalAggregateInto builds a composite value field by field. Sum types
// get their tag written first, then the destination narrows to the
// selected variant's layout before any field lands.
func (ec *EvalContext) evalAggregateInto(r *mir.AggregateRvalue, dest PlaceTy) error {
	fieldDest := dest
	if _, ok := r.Type.(layout.SumType); ok {
		if err := ec.writeDiscriminant(r.Variant, dest); err != nil {
			return err
		}
		narrowed, err := ec.placeDowncast(dest, r.Variant)
		if err != nil {
			return err
		}
		fieldDest = narrowed
	}
	for i, op := range r.Operands {
		tv, err := ec.evalOperand(op, nil)
		if err != nil {
			return err
		}
		// Zero-sized fields occupy no storage and are never touched.
		if tv.Layout.ZeroSized {
			continue
		}
		fieldIndex := i
		if r.ActiveField != nil {
			fieldIndex = *r.ActiveField
		}
		slot, err := ec.placeField(fieldDest, fieldIndex)
		if err != nil {
			return err
		}
		if err := ec.copyValue(tv, slot); err != nil {
			return err
		}
	}
	return nil
}

// evalRepeatInto fills an array destination with Count copies of one
// evaluation of the operand: the first slot is written directly, the
// remaining slots are bulk-replicated from it.
func (ec *EvalContext) evalRepeatInto(r *mir.RepeatRvalue, dest PlaceTy) error {
	tv, err := ec.evalOperand(r.Operand, nil)
	if err != nil {
		return err
	}
	dest, err = ec.materialize(dest)
	if err != nil {
		return err
	}
	length, err := ec.placeLen(dest)
	if err != nil {
		return err
	}
	if r.Count != length {
		return ec.newInternalError("repeat count %d does not match destination length %d", r.Count, length)
	}
	if length == 0 {
		return nil
	}
	first := PlaceTy{Ptr: dest.Ptr, Layout: dest.Layout.Elem}
	if err := ec.copyValue(tv, first); err != nil {
		return err
	}
	if length > 1 {
		elemSize := dest.Layout.Elem.Size
		rest := dest.Ptr.WithOffset(elemSize)
		if err := ec.memory.CopyRepeatedly(dest.Ptr, rest, elemSize, length-1); err != nil {
			return err
		}
	}
	return nil
}

// dumpPlace exposes the destination's final contents to the debug hook.
// Diagnostic only; failures to read are swallowed.
func (ec *EvalContext) dumpPlace(dest PlaceTy) {
	if dest.Layout.ZeroSized || dest.Layout.Size > 32 {
		ec.reporter.Debug(ec.span, fmt.Sprintf("wrote %s (%d bytes)", dest.Layout.Type, dest.Layout.Size))
		return
	}
	s, err := ec.memory.ReadScalar(dest.Ptr, dest.Layout.Size)
	if err != nil {
		return
	}
	ec.reporter.Debug(ec.span, fmt.Sprintf("wrote %s: %s", dest.Layout.Type, s))
}
