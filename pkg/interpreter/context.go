package interpreter

import (
	"fmt"

	"github.com/pkg/errors"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// LocalState tracks the storage backing one local slot.
type LocalState struct {
	Live  bool
	Alloc runtime.AllocID
}

// Frame is one activation record.
type Frame struct {
	Body   *mir.Body
	Block  mir.BlockID
	Stmt   int
	Locals []LocalState

	// ReturnTo is the caller block resumed when this activation returns;
	// Dest is the caller place receiving the return value. Dest is nil
	// for the entry activation, whose result lands in the context-owned
	// result place.
	ReturnTo mir.BlockID
	Dest     *PlaceTy
}

// EvalContext is one abstract machine instance: the frame stack, memory,
// loop detector and capability hooks for a single evaluation.
type EvalContext struct {
	machine  Machine
	memory   *runtime.Memory
	reporter Reporter
	control  ControlFlow
	bodies   map[string]*mir.Body

	frames []*Frame

	// span is the source location of the instruction currently executing,
	// threaded explicitly instead of living in ambient global state.
	span mir.Span

	gate     stepGate
	detector loopDetector

	result *PlaceTy
}

// Option configures an EvalContext.
type Option func(*EvalContext)

// WithReporter replaces the default no-op reporter.
func WithReporter(r Reporter) Option {
	return func(ec *EvalContext) { ec.reporter = r }
}

// WithControlFlow replaces the default control-flow evaluator.
func WithControlFlow(cf ControlFlow) Option {
	return func(ec *EvalContext) { ec.control = cf }
}

// WithDetectorPeriod overrides the loop-detector sampling period. The
// period must be a power of two.
func WithDetectorPeriod(period int64) Option {
	return func(ec *EvalContext) { ec.gate.period = period }
}

// New builds a machine over the given bodies. The machine capability set
// selects the evaluation client; ConstMachine is the baseline.
func New(machine Machine, bodies map[string]*mir.Body, opts ...Option) *EvalContext {
	ec := &EvalContext{
		machine:  machine,
		memory:   runtime.NewMemory(),
		reporter: NewZapReporter(nil),
		control:  DefaultControlFlow{},
		bodies:   bodies,
		gate:     newStepGate(),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// Memory exposes the machine's memory to collaborators and tests.
func (ec *EvalContext) Memory() *runtime.Memory { return ec.memory }

// Machine exposes the capability hook set.
func (ec *EvalContext) Machine() Machine { return ec.machine }

// Body resolves a named function body.
func (ec *EvalContext) Body(name string) (*mir.Body, error) {
	body, ok := ec.bodies[name]
	if !ok {
		return nil, fmt.Errorf("interpreter: unknown body %q", name)
	}
	return body, nil
}

// StackDepth reports the number of live activation records.
func (ec *EvalContext) StackDepth() int { return len(ec.frames) }

// frame returns the current (topmost) activation record.
func (ec *EvalContext) frame() *Frame {
	assertf(len(ec.frames) > 0, "frame access on empty stack")
	return ec.frames[len(ec.frames)-1]
}

// Frame exposes the current activation record to collaborators.
func (ec *EvalContext) Frame() *Frame { return ec.frame() }

func (ec *EvalContext) curFrame() int { return len(ec.frames) - 1 }

//-----------------------------------------------------------------------------
// Activation lifecycle
//-----------------------------------------------------------------------------

// PushFrame begins an activation of body, binding args to its argument
// locals. dest receives the return value when the activation completes.
func (ec *EvalContext) PushFrame(body *mir.Body, dest *PlaceTy, returnTo mir.BlockID, args []TypedValue) error {
	if len(args) != body.ArgCount {
		return fmt.Errorf("interpreter: %s takes %d arguments, got %d", body.Name, body.ArgCount, len(args))
	}
	frame := &Frame{
		Body:     body,
		Locals:   make([]LocalState, len(body.Locals)),
		ReturnTo: returnTo,
		Dest:     dest,
	}
	for i, decl := range body.Locals {
		l, err := layout.Of(decl.Type)
		if err != nil {
			return errors.Wrapf(err, "local %d of %s", i, body.Name)
		}
		ptr := ec.memory.Allocate(l.Size, l.Align)
		frame.Locals[i] = LocalState{Live: true, Alloc: ptr.Alloc}
	}
	ec.frames = append(ec.frames, frame)
	for i, arg := range args {
		argPlace, err := ec.localPlace(frame, mir.Local(i+1))
		if err != nil {
			return err
		}
		if err := ec.copyValue(arg, argPlace); err != nil {
			return errors.Wrapf(err, "binding argument %d of %s", i, body.Name)
		}
	}
	return nil
}

// PushEntry begins the top-level activation of the named body and
// reserves the context-owned result place.
func (ec *EvalContext) PushEntry(name string, args []TypedValue) error {
	body, err := ec.Body(name)
	if err != nil {
		return err
	}
	if len(body.Locals) == 0 {
		return fmt.Errorf("interpreter: body %q declares no return place", name)
	}
	resultLayout, err := layout.Of(body.Locals[0].Type)
	if err != nil {
		return errors.Wrapf(err, "return place of %s", name)
	}
	ptr := ec.memory.Allocate(resultLayout.Size, resultLayout.Align)
	ec.result = &PlaceTy{Ptr: ptr, Layout: resultLayout}
	return ec.PushFrame(body, ec.result, 0, args)
}

// Result returns the place holding the entry activation's return value.
// Valid once evaluation has completed.
func (ec *EvalContext) Result() (PlaceTy, error) {
	if ec.result == nil {
		return PlaceTy{}, fmt.Errorf("interpreter: no entry activation was pushed")
	}
	return *ec.result, nil
}

// popFrame completes the current activation: the return local is copied
// into the caller's destination, the frame's storage is released, and the
// caller resumes at its recorded block.
func (ec *EvalContext) popFrame() error {
	frame := ec.frame()
	if frame.Dest != nil && !frame.Dest.Layout.ZeroSized {
		retPlace, err := ec.localPlace(frame, 0)
		if err != nil {
			return err
		}
		ret := TypedValue{
			Value:  runtime.ByRefValue{Ptr: retPlace.Ptr, Meta: runtime.UndefScalar()},
			Layout: retPlace.Layout,
		}
		if err := ec.copyValue(ret, *frame.Dest); err != nil {
			return errors.Wrapf(err, "returning from %s", frame.Body.Name)
		}
	}
	for i := range frame.Locals {
		if err := ec.deallocateLocal(frame.Locals[i]); err != nil {
			return err
		}
		frame.Locals[i] = LocalState{}
	}
	ec.frames = ec.frames[:len(ec.frames)-1]
	if len(ec.frames) > 0 {
		caller := ec.frame()
		caller.Block = frame.ReturnTo
		caller.Stmt = 0
	}
	return nil
}

//-----------------------------------------------------------------------------
// Local storage transitions
//-----------------------------------------------------------------------------

// storageLive begins fresh storage for a local and returns the state it
// displaced.
func (ec *EvalContext) storageLive(l mir.Local) (LocalState, error) {
	frame := ec.frame()
	decl, err := frame.Body.LocalDeclFor(l)
	if err != nil {
		return LocalState{}, err
	}
	lay, err := layout.Of(decl.Type)
	if err != nil {
		return LocalState{}, errors.Wrapf(err, "storage-live of local %d", l)
	}
	old := frame.Locals[int(l)]
	ptr := ec.memory.Allocate(lay.Size, lay.Align)
	frame.Locals[int(l)] = LocalState{Live: true, Alloc: ptr.Alloc}
	return old, nil
}

// storageDead ends the storage of a local and returns the displaced state.
func (ec *EvalContext) storageDead(l mir.Local) (LocalState, error) {
	frame := ec.frame()
	if _, err := frame.Body.LocalDeclFor(l); err != nil {
		return LocalState{}, err
	}
	old := frame.Locals[int(l)]
	frame.Locals[int(l)] = LocalState{}
	return old, nil
}

// deallocateLocal releases the allocation a displaced local state owned.
// This is a resource-release point, not a no-op.
func (ec *EvalContext) deallocateLocal(old LocalState) error {
	if !old.Live {
		return nil
	}
	return ec.memory.Free(old.Alloc)
}

// localPlace resolves the bare place of a frame-local slot.
func (ec *EvalContext) localPlace(frame *Frame, l mir.Local) (PlaceTy, error) {
	decl, err := frame.Body.LocalDeclFor(l)
	if err != nil {
		return PlaceTy{}, err
	}
	state := frame.Locals[int(l)]
	if !state.Live {
		return PlaceTy{}, ec.newInvalidValueError("access to dead local %d (%s)", l, decl.Name)
	}
	lay, err := layout.Of(decl.Type)
	if err != nil {
		return PlaceTy{}, err
	}
	return PlaceTy{Ptr: runtime.Pointer{Alloc: state.Alloc}, Layout: lay}, nil
}
