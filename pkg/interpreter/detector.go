package interpreter

import (
	"github.com/google/go-cmp/cmp"

	"mirvm/interpreter-go/pkg/mir"
	"mirvm/interpreter-go/pkg/runtime"
)

// FrameSnapshot freezes the execution position and storage map of one
// activation record.
type FrameSnapshot struct {
	Body   string
	Block  mir.BlockID
	Stmt   int
	Locals []LocalState
}

// MachineSnapshot is the structural image of the full machine-visible
// state: frame stack plus memory shape. Equality is exact deep equality,
// never a hash, so the detector cannot false-positive on distinct states.
type MachineSnapshot struct {
	Frames []FrameSnapshot
	Memory runtime.MemorySnapshot
}

// snapshot captures the current machine state.
func (ec *EvalContext) snapshot() MachineSnapshot {
	frames := make([]FrameSnapshot, len(ec.frames))
	for i, f := range ec.frames {
		locals := make([]LocalState, len(f.Locals))
		copy(locals, f.Locals)
		frames[i] = FrameSnapshot{Body: f.Body.Name, Block: f.Block, Stmt: f.Stmt, Locals: locals}
	}
	return MachineSnapshot{Frames: frames, Memory: ec.memory.Snapshot()}
}

// loopDetector retains sampled machine states and flags a revisit. Two
// identical snapshots at different sample points mean the machine
// returned to the same state with no net side effects: an infinite loop.
// This is a sampling safeguard, not a termination proof; loops whose
// period exceeds the retention window can escape it.
type loopDetector struct {
	snapshots []MachineSnapshot
}

func (d *loopDetector) isEmpty() bool { return len(d.snapshots) == 0 }

func (d *loopDetector) len() int { return len(d.snapshots) }

// observeAndAnalyze compares the snapshot against every retained one and
// reports whether an exact structural match was found. Unmatched
// snapshots are retained for future comparisons.
func (d *loopDetector) observeAndAnalyze(snap MachineSnapshot) bool {
	for i := range d.snapshots {
		if cmp.Equal(d.snapshots[i], snap) {
			return true
		}
	}
	d.snapshots = append(d.snapshots, snap)
	return false
}
