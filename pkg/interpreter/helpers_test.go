package interpreter

import (
	"testing"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// testStepCap bounds test evaluations; no fixture in this package needs
// anywhere near this many steps unless it is genuinely stuck.
const testStepCap = 1 << 16

func newTestContext(t *testing.T, bodies map[string]*mir.Body, entry string, opts ...Option) *EvalContext {
	t.Helper()
	ec := New(ConstMachine{}, bodies, opts...)
	if err := ec.PushEntry(entry, nil); err != nil {
		t.Fatalf("push entry %q: %v", entry, err)
	}
	return ec
}

// singleBody builds a one-function context whose entry is the body itself.
func singleBody(t *testing.T, b *mir.Body, opts ...Option) *EvalContext {
	t.Helper()
	return newTestContext(t, map[string]*mir.Body{b.Name: b}, b.Name, opts...)
}

// block assembles a basic block.
func block(term mir.Terminator, stmts ...mir.Statement) mir.BasicBlock {
	return mir.BasicBlock{Statements: stmts, Terminator: term}
}

// ret is the shared return terminator.
func ret() mir.Terminator { return &mir.ReturnTerminator{} }

// stepAll drives the machine to completion or the first error.
func stepAll(ec *EvalContext) error {
	for i := 0; i < testStepCap; i++ {
		more, err := ec.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	panic("test evaluation exceeded the step cap")
}

// runOK drives the machine to completion, failing the test on any error.
func runOK(t *testing.T, ec *EvalContext) {
	t.Helper()
	if err := stepAll(ec); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
}

// resultScalar reads the entry activation's result as one scalar.
func resultScalar(t *testing.T, ec *EvalContext) runtime.Scalar {
	t.Helper()
	res, err := ec.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	s, err := ec.Memory().ReadScalar(res.Ptr, res.Layout.Size)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	return s
}

// resultFieldScalar reads one field of a composite result.
func resultFieldScalar(t *testing.T, ec *EvalContext, field int) runtime.Scalar {
	t.Helper()
	res, err := ec.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	slot, err := res.Layout.Field(field)
	if err != nil {
		t.Fatalf("result field %d: %v", field, err)
	}
	s, err := ec.Memory().ReadScalar(res.Ptr.WithOffset(slot.Offset), slot.Layout.Size)
	if err != nil {
		t.Fatalf("read result field %d: %v", field, err)
	}
	return s
}

func wantBits(t *testing.T, got runtime.Scalar, value uint64, size uint8) {
	t.Helper()
	if !got.IsBits() || got.Uint64() != value || got.Size != size {
		t.Fatalf("got %s, want bits(%d, %d)", got, value, size)
	}
}

// optionU32 is the sum type most aggregate and discriminant tests use.
func optionU32() layout.SumType {
	return layout.SumType{
		Name:    "OptionU32",
		TagBits: 8,
		Variants: []layout.Variant{
			{Name: "None"},
			{Name: "Some", Fields: []layout.Type{layout.Uint(32)}},
		},
	}
}
