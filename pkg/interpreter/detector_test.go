package interpreter

import (
	"testing"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
)

type recordingReporter struct {
	warns []string
}

func (r *recordingReporter) Warn(_ mir.Span, message string) { r.warns = append(r.warns, message) }
func (r *recordingReporter) Debug(mir.Span, string)          {}

// selfLoop is a body whose single block jumps to itself with no side
// effects: every terminator step revisits the identical machine state.
func selfLoop() *mir.Body {
	return &mir.Body{
		Name:   "self_loop",
		Locals: []mir.LocalDecl{{Name: "ret", Type: layout.Unit()}},
		Blocks: []mir.BasicBlock{block(&mir.GotoTerminator{Target: 0})},
	}
}

func TestDetectorCatchesStationaryLoop(t *testing.T) {
	rep := &recordingReporter{}
	ec := singleBody(t, selfLoop(), WithReporter(rep), WithDetectorPeriod(4))

	var err error
	steps := 0
	for ; steps < testStepCap; steps++ {
		if _, err = ec.Step(); err != nil {
			break
		}
	}
	if !IsKind(err, ErrNonTerminating) {
		t.Fatalf("got %v, want %s", err, ErrNonTerminating)
	}
	// First sample at step 4, matching sample one period later.
	if steps != 7 {
		t.Fatalf("loop detected after step %d, want step 7", steps)
	}
	if len(rep.warns) != 1 {
		t.Fatalf("got %d warnings, want exactly 1", len(rep.warns))
	}
}

func TestDetectorSilentBeforeFirstPeriod(t *testing.T) {
	b := &mir.Body{
		Name:   "short",
		Locals: []mir.LocalDecl{{Name: "ret", Type: layout.Uint(32)}},
		Blocks: []mir.BasicBlock{
			block(&mir.GotoTerminator{Target: 1},
				mir.Assign(mir.P(0), mir.Use(mir.ConstInt(layout.Uint(32), 1)))),
			block(ret()),
		},
	}
	rep := &recordingReporter{}
	ec := singleBody(t, b, WithReporter(rep), WithDetectorPeriod(4))

	runOK(t, ec)
	if len(rep.warns) != 0 {
		t.Fatalf("short program warned: %v", rep.warns)
	}
	if !ec.detector.isEmpty() {
		t.Fatalf("detector sampled a program shorter than one period")
	}
}

// countingLoop increments a local forever. Its state differs on every
// visit, so detection must never fire; once the snapshot set fills, the
// gate switches off instead of accumulating snapshots without bound.
func countingLoop() *mir.Body {
	return &mir.Body{
		Name: "counting",
		Locals: []mir.LocalDecl{
			{Name: "ret", Type: layout.Unit()},
			{Name: "n", Type: layout.Uint(64)},
		},
		Blocks: []mir.BasicBlock{
			block(&mir.GotoTerminator{Target: 1},
				mir.Assign(mir.P(1), mir.Use(mir.ConstInt(layout.Uint(64), 0)))),
			block(&mir.GotoTerminator{Target: 1},
				mir.Assign(mir.P(1), &mir.BinaryOpRvalue{
					Op:    mir.BinAdd,
					Left:  mir.Copy(mir.P(1)),
					Right: mir.ConstInt(layout.Uint(64), 1),
				})),
		},
	}
}

func TestProgressingLoopNeverTripsDetector(t *testing.T) {
	rep := &recordingReporter{}
	ec := singleBody(t, countingLoop(), WithReporter(rep), WithDetectorPeriod(4))

	// Enough steps for the snapshot set to reach its cap several times
	// over: 2 steps per iteration, one sample per 4 terminator steps.
	for i := 0; i < 1200; i++ {
		more, err := ec.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !more {
			t.Fatalf("step %d: counting loop stopped", i)
		}
	}
	if len(rep.warns) != 1 {
		t.Fatalf("got %d warnings, want exactly 1", len(rep.warns))
	}
	if ec.gate.state != gateDisabled {
		t.Fatalf("snapshot set filled but the gate is still active")
	}
	if ec.detector.len() < maxRetainedSnapshots {
		t.Fatalf("retained %d snapshots, want the full %d before disabling",
			ec.detector.len(), maxRetainedSnapshots)
	}
}

func TestStatementStepsDoNotTickTheGate(t *testing.T) {
	b := &mir.Body{
		Name:   "stmt_heavy",
		Locals: []mir.LocalDecl{{Name: "ret", Type: layout.Unit()}},
		Blocks: []mir.BasicBlock{block(ret(),
			&mir.NopStatement{}, &mir.NopStatement{}, &mir.NopStatement{},
			&mir.NopStatement{}, &mir.NopStatement{}, &mir.NopStatement{},
		)},
	}
	ec := singleBody(t, b, WithDetectorPeriod(2))

	// Six statements then one terminator: only the terminator ticks, so
	// one tick never reaches a period of two.
	runOK(t, ec)
	if !ec.detector.isEmpty() {
		t.Fatalf("statement steps advanced the detector gate")
	}
}
