// Package mir defines the control-flow-graph intermediate representation
// executed by the interpreter. A Body is one function: a list of typed
// locals plus basic blocks, where every block holds straight-line
// statements followed by exactly one terminator.
package mir

import (
	"fmt"

	"mirvm/interpreter-go/pkg/layout"
)

// BlockID indexes a basic block within a Body.
type BlockID int

// Local indexes a declared local slot within a Body. Local 0 is the
// return place; locals 1..ArgCount are the arguments.
type Local int

// Span is a source position carried for diagnostics only. Execution never
// branches on it.
type Span struct {
	Line   int
	Column int
}

func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Line, s.Column) }

// LocalDecl declares the type of one local slot.
type LocalDecl struct {
	Name string
	Type layout.Type
}

// BasicBlock is straight-line statements ended by one terminator.
type BasicBlock struct {
	Statements []Statement
	Terminator Terminator
}

// Body is one function's control-flow graph.
type Body struct {
	Name     string
	ArgCount int
	Locals   []LocalDecl
	Blocks   []BasicBlock
}

// Block returns block b, failing on out-of-range ids so a malformed body
// surfaces as an error instead of a slice panic.
func (m *Body) Block(b BlockID) (*BasicBlock, error) {
	if int(b) < 0 || int(b) >= len(m.Blocks) {
		return nil, fmt.Errorf("mir: block %d out of range in %s", b, m.Name)
	}
	return &m.Blocks[int(b)], nil
}

// LocalDeclFor returns the declaration of local l.
func (m *Body) LocalDeclFor(l Local) (LocalDecl, error) {
	if int(l) < 0 || int(l) >= len(m.Locals) {
		return LocalDecl{}, fmt.Errorf("mir: local %d out of range in %s", l, m.Name)
	}
	return m.Locals[int(l)], nil
}
