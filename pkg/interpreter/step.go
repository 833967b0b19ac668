package interpreter

import (
	"mirvm/interpreter-go/pkg/mir"
)

// Step advances the machine by exactly one instruction. It returns false
// with no other work when the frame stack is empty (evaluation complete),
// and true after executing one statement or one terminator. This is the
// only unit of progress the machine exposes; callers decide when to stop
// invoking it.
func (ec *EvalContext) Step() (bool, error) {
	if len(ec.frames) == 0 {
		return false, nil
	}

	frame := ec.frame()
	block, err := frame.Body.Block(frame.Block)
	if err != nil {
		return false, err
	}

	oldFrames := ec.curFrame()

	if frame.Stmt < len(block.Statements) {
		assertf(oldFrames == ec.curFrame(), "frame stack changed while reading a statement")
		if err := ec.execStatement(block.Statements[frame.Stmt]); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := ec.incStepCounterAndDetectLoops(); err != nil {
		return false, err
	}

	assertf(oldFrames == ec.curFrame(), "frame stack changed before the terminator")
	if err := ec.execTerminator(block.Terminator); err != nil {
		return false, err
	}
	return true, nil
}

// execStatement executes one non-branching instruction and advances the
// owning frame's instruction index. The owning frame is recorded before
// dispatch: some instructions push new frames mid-execution, and the
// index to advance belongs to the frame that was active when execution
// began. On error the index stays put; the instruction did not complete.
func (ec *EvalContext) execStatement(stmt mir.Statement) error {
	frameIdx := ec.curFrame()
	ec.span = stmt.SourceSpan()

	switch s := stmt.(type) {
	case *mir.AssignStatement:
		if err := ec.evalRvalueInto(s.Rvalue, s.Place); err != nil {
			return err
		}

	case *mir.SetTagStatement:
		dest, err := ec.evalPlace(s.Place)
		if err != nil {
			return err
		}
		if err := ec.writeDiscriminant(s.Variant, dest); err != nil {
			return err
		}

	case *mir.StorageLiveStatement:
		old, err := ec.storageLive(s.Local)
		if err != nil {
			return err
		}
		if err := ec.deallocateLocal(old); err != nil {
			return err
		}

	case *mir.StorageDeadStatement:
		old, err := ec.storageDead(s.Local)
		if err != nil {
			return err
		}
		if err := ec.deallocateLocal(old); err != nil {
			return err
		}

	case *mir.ValidateStatement:
		for _, place := range s.Places {
			if err := ec.machine.ValidationOp(ec, s.Op, place); err != nil {
				return err
			}
		}

	case *mir.EndRegionStatement:
		if err := ec.machine.EndRegion(ec, s.Token); err != nil {
			return err
		}

	case *mir.MatchMarkStatement, *mir.AssertTypeStatement, *mir.NopStatement:
		// Defined to have no runtime effect.

	case *mir.NativeCodeStatement:
		return ec.newUnsupportedError("inline native code cannot be evaluated")

	default:
		return ec.newUnsupportedError("statement %T", stmt)
	}

	ec.frames[frameIdx].Stmt++
	return nil
}

// execTerminator updates the diagnostic span and forwards the block's
// terminator to the control-flow evaluator. No control-flow logic lives
// here; this is the seam between the single-step engine and the
// control-flow semantics.
func (ec *EvalContext) execTerminator(term mir.Terminator) error {
	ec.span = term.SourceSpan()
	return ec.control.ExecTerminator(ec, term)
}

//-----------------------------------------------------------------------------
// Loop-detection gating
//-----------------------------------------------------------------------------

// detectorSnapshotPeriod is the number of terminator-boundary steps
// between loop-detector snapshots. A power of two keeps the modulo cheap.
const detectorSnapshotPeriod = 256

// maxRetainedSnapshots bounds the snapshot set; once it fills, detection
// switches off rather than growing without bound.
const maxRetainedSnapshots = 64

type gateState int

const (
	gateActive gateState = iota
	gateDisabled
)

// stepGate counts terminator-boundary steps and decides when the loop
// detector samples. Disabled is an explicit state, not a sentinel value.
type stepGate struct {
	state  gateState
	steps  int64
	period int64
}

func newStepGate() stepGate {
	return stepGate{state: gateActive, period: detectorSnapshotPeriod}
}

// tick advances the counter and reports whether a detection sample is
// due.
func (g *stepGate) tick() bool {
	if g.state == gateDisabled {
		return false
	}
	g.steps++
	g.steps %= g.period
	return g.steps == 0
}

func (g *stepGate) disable() { g.state = gateDisabled }

// incStepCounterAndDetectLoops runs once per terminator-boundary step. On
// the period it snapshots the machine and compares against every
// previously observed state; an exact match means the program cannot
// terminate.
func (ec *EvalContext) incStepCounterAndDetectLoops() error {
	if !ec.gate.tick() {
		return nil
	}

	if ec.detector.isEmpty() {
		// First activation: let the caller know a complex computation is
		// in progress before snapshotting starts.
		ec.reporter.Warn(ec.span,
			"constant evaluating a complex computation, this might take some time")
	}

	if ec.detector.observeAndAnalyze(ec.snapshot()) {
		return ec.newNonTerminatingError()
	}
	if ec.detector.len() >= maxRetainedSnapshots {
		ec.gate.disable()
	}
	return nil
}
