package mir

// Terminator is the single control-flow instruction ending a block.
type Terminator interface {
	termNode()
	SourceSpan() Span
}

// GotoTerminator jumps unconditionally to Target.
type GotoTerminator struct {
	Target BlockID
	Span   Span
}

// SwitchTerminator reads a scalar from Place and jumps to the target whose
// value matches, or to Otherwise.
type SwitchTerminator struct {
	Place     Place
	Values    []uint64
	Targets   []BlockID
	Otherwise BlockID
	Span      Span
}

// CallTerminator activates the named body, binding Args to its argument
// locals and Dest to its return place, then continues at Target once the
// callee returns.
type CallTerminator struct {
	Func   string
	Args   []Operand
	Dest   Place
	Target BlockID
	Span   Span
}

// ReturnTerminator completes the current activation.
type ReturnTerminator struct {
	Span Span
}

// UnreachableTerminator marks control flow the producer promised can never
// arrive. Reaching it is an evaluation error.
type UnreachableTerminator struct {
	Span Span
}

func (*GotoTerminator) termNode()        {}
func (*SwitchTerminator) termNode()      {}
func (*CallTerminator) termNode()        {}
func (*ReturnTerminator) termNode()      {}
func (*UnreachableTerminator) termNode() {}

func (t *GotoTerminator) SourceSpan() Span        { return t.Span }
func (t *SwitchTerminator) SourceSpan() Span      { return t.Span }
func (t *CallTerminator) SourceSpan() Span        { return t.Span }
func (t *ReturnTerminator) SourceSpan() Span      { return t.Span }
func (t *UnreachableTerminator) SourceSpan() Span { return t.Span }
