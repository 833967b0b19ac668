package interpreter

import (
	"errors"
	"fmt"

	"mirvm/interpreter-go/pkg/mir"
)

// EvalErrorKind classifies evaluation failures.
type EvalErrorKind string

const (
	// ErrUnsupported marks features this machine never executes, such as
	// inline native code or heap allocation under the baseline machine.
	ErrUnsupported EvalErrorKind = "UnsupportedFeature"
	// ErrInvalidValue marks reads of undefined or malformed scalars.
	ErrInvalidValue EvalErrorKind = "InvalidValue"
	// ErrDivisionByZero marks integer division or remainder by zero.
	ErrDivisionByZero EvalErrorKind = "DivisionByZeroError"
	// ErrNonTerminating marks a loop-detector match: the machine returned
	// to a previously observed state with no net side effects.
	ErrNonTerminating EvalErrorKind = "NonTerminating"
	// ErrInternal marks upstream contract violations surfaced as errors,
	// such as size-of applied to an unsized type.
	ErrInternal EvalErrorKind = "InternalInconsistency"
)

// EvalError is an evaluation failure tagged with its kind and the source
// span active when it occurred.
type EvalError struct {
	EvalKind EvalErrorKind
	Message  string
	Span     mir.Span
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.EvalKind, e.Message, e.Span)
}

// IsKind reports whether err carries the given evaluation error kind.
func IsKind(err error, kind EvalErrorKind) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.EvalKind == kind
	}
	return false
}

func (ec *EvalContext) newUnsupportedError(format string, args ...any) error {
	return &EvalError{EvalKind: ErrUnsupported, Message: fmt.Sprintf(format, args...), Span: ec.span}
}

func (ec *EvalContext) newInvalidValueError(format string, args ...any) error {
	return &EvalError{EvalKind: ErrInvalidValue, Message: fmt.Sprintf(format, args...), Span: ec.span}
}

func (ec *EvalContext) newDivisionByZeroError(op mir.BinOp) error {
	return &EvalError{EvalKind: ErrDivisionByZero, Message: fmt.Sprintf("%s by zero", op), Span: ec.span}
}

func (ec *EvalContext) newNonTerminatingError() error {
	return &EvalError{
		EvalKind: ErrNonTerminating,
		Message:  "evaluation returned to an identical machine state; the program does not terminate",
		Span:     ec.span,
	}
}

func (ec *EvalContext) newInternalError(format string, args ...any) error {
	return &EvalError{EvalKind: ErrInternal, Message: fmt.Sprintf(format, args...), Span: ec.span}
}

// assertf aborts on programming-error faults: invariants whose violation
// indicates a bug in the surrounding system, not a property of the
// evaluated program.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("interpreter: "+format, args...))
	}
}
