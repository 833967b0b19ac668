package mir

// Statement is one non-branching instruction.
type Statement interface {
	stmtNode()
	SourceSpan() Span
}

// ValidationOp selects the flavor of a validation marker. The baseline
// machine forwards these to its capability hooks untouched.
type ValidationOp int

const (
	ValidationAcquire ValidationOp = iota
	ValidationRelease
	ValidationSuspend
)

func (op ValidationOp) String() string {
	switch op {
	case ValidationAcquire:
		return "acquire"
	case ValidationRelease:
		return "release"
	case ValidationSuspend:
		return "suspend"
	default:
		return "unknown"
	}
}

// RegionToken identifies a lexical region whose end is being marked.
type RegionToken int

// AssignStatement evaluates Rvalue into Place.
type AssignStatement struct {
	Place  Place
	Rvalue Rvalue
	Span   Span
}

// SetTagStatement writes the discriminant selecting Variant into Place.
type SetTagStatement struct {
	Place   Place
	Variant int
	Span    Span
}

// StorageLiveStatement begins the storage of a local, releasing whatever
// allocation previously backed it.
type StorageLiveStatement struct {
	Local Local
	Span  Span
}

// StorageDeadStatement ends the storage of a local and releases its
// allocation.
type StorageDeadStatement struct {
	Local Local
	Span  Span
}

// ValidateStatement forwards a validation marker to the machine hooks.
type ValidateStatement struct {
	Op     ValidationOp
	Places []Place
	Span   Span
}

// EndRegionStatement forwards a region-end marker to the machine hooks.
type EndRegionStatement struct {
	Token RegionToken
	Span  Span
}

// MatchMarkStatement marks a place as read for match-readiness analysis.
// It has no runtime effect.
type MatchMarkStatement struct {
	Place Place
	Span  Span
}

// AssertTypeStatement records a user type assertion. It has no runtime
// effect.
type AssertTypeStatement struct {
	Place Place
	Span  Span
}

// NopStatement does nothing. Emitted by optimization passes that need to
// blank out an instruction without renumbering.
type NopStatement struct {
	Span Span
}

// NativeCodeStatement embeds native machine code. The interpreter always
// rejects it.
type NativeCodeStatement struct {
	Span Span
}

func (*AssignStatement) stmtNode()      {}
func (*SetTagStatement) stmtNode()      {}
func (*StorageLiveStatement) stmtNode() {}
func (*StorageDeadStatement) stmtNode() {}
func (*ValidateStatement) stmtNode()    {}
func (*EndRegionStatement) stmtNode()   {}
func (*MatchMarkStatement) stmtNode()   {}
func (*AssertTypeStatement) stmtNode()  {}
func (*NopStatement) stmtNode()         {}
func (*NativeCodeStatement) stmtNode()  {}

func (s *AssignStatement) SourceSpan() Span      { return s.Span }
func (s *SetTagStatement) SourceSpan() Span      { return s.Span }
func (s *StorageLiveStatement) SourceSpan() Span { return s.Span }
func (s *StorageDeadStatement) SourceSpan() Span { return s.Span }
func (s *ValidateStatement) SourceSpan() Span    { return s.Span }
func (s *EndRegionStatement) SourceSpan() Span   { return s.Span }
func (s *MatchMarkStatement) SourceSpan() Span   { return s.Span }
func (s *AssertTypeStatement) SourceSpan() Span  { return s.Span }
func (s *NopStatement) SourceSpan() Span         { return s.Span }
func (s *NativeCodeStatement) SourceSpan() Span  { return s.Span }
