package interpreter

import (
	"github.com/pkg/errors"

	"mirvm/interpreter-go/pkg/mir"
)

// ControlFlow evaluates terminators. The single-step engine owns none of
// this logic; alternate clients may substitute their own evaluator.
type ControlFlow interface {
	ExecTerminator(ec *EvalContext, term mir.Terminator) error
}

// DefaultControlFlow implements the baseline branch, call and return
// semantics.
type DefaultControlFlow struct{}

func (DefaultControlFlow) ExecTerminator(ec *EvalContext, term mir.Terminator) error {
	switch t := term.(type) {
	case *mir.GotoTerminator:
		ec.gotoBlock(t.Target)
		return nil

	case *mir.SwitchTerminator:
		val, _, err := ec.evalOperandAndReadScalar(mir.Copy(t.Place))
		if err != nil {
			return err
		}
		if val.IsUndef() {
			return ec.newInvalidValueError("switch on undefined bytes")
		}
		target := t.Otherwise
		for i, v := range t.Values {
			if val.IsBits() && val.Uint64() == v {
				target = t.Targets[i]
				break
			}
		}
		ec.gotoBlock(target)
		return nil

	case *mir.CallTerminator:
		body, err := ec.Body(t.Func)
		if err != nil {
			return err
		}
		dest, err := ec.evalPlace(t.Dest)
		if err != nil {
			return err
		}
		args := make([]TypedValue, len(t.Args))
		for i, a := range t.Args {
			args[i], err = ec.evalOperand(a, nil)
			if err != nil {
				return errors.Wrapf(err, "argument %d of call to %s", i, t.Func)
			}
		}
		return ec.PushFrame(body, &dest, t.Target, args)

	case *mir.ReturnTerminator:
		return ec.popFrame()

	case *mir.UnreachableTerminator:
		return ec.newInvalidValueError("entered unreachable code")

	default:
		return ec.newUnsupportedError("terminator %T", term)
	}
}

// gotoBlock repositions the current frame at the start of a block.
func (ec *EvalContext) gotoBlock(b mir.BlockID) {
	frame := ec.frame()
	frame.Block = b
	frame.Stmt = 0
}
