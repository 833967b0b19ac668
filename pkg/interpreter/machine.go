package interpreter

import (
	"mirvm/interpreter-go/pkg/mir"
)

// Machine is the pluggable capability set distinguishing evaluation
// clients. Each hook succeeds or fails independently and may be a no-op
// for a given client.
type Machine interface {
	// ValidationOp handles a validation marker for one place.
	ValidationOp(ec *EvalContext, op mir.ValidationOp, place mir.Place) error
	// EndRegion handles a region-end marker.
	EndRegion(ec *EvalContext, token mir.RegionToken) error
	// HeapAlloc services a heap-allocation rvalue by filling dest with a
	// reference to fresh storage.
	HeapAlloc(ec *EvalContext, dest PlaceTy) error
}

// ConstMachine is the baseline compile-time evaluation client: validation
// and region markers have no semantics, and there is no heap.
type ConstMachine struct{}

func (ConstMachine) ValidationOp(*EvalContext, mir.ValidationOp, mir.Place) error { return nil }

func (ConstMachine) EndRegion(*EvalContext, mir.RegionToken) error { return nil }

func (ConstMachine) HeapAlloc(ec *EvalContext, dest PlaceTy) error {
	return ec.newUnsupportedError("heap allocation is not available during constant evaluation")
}
