// Package driver loads fixture programs for the abstract machine: a YAML
// encoding of IR bodies plus evaluation limits. The interpreter itself
// never parses anything; this package exists for the CLI and tests.
package driver

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
)

// Limits bounds one evaluation run.
type Limits struct {
	// MaxSteps caps the number of Step calls the host driver makes.
	// Zero means the default.
	MaxSteps int64 `yaml:"max_steps"`
	// DetectorPeriod overrides the loop-detector sampling period. Zero
	// keeps the engine default. Must be a power of two.
	DetectorPeriod int64 `yaml:"detector_period"`
}

// DefaultMaxSteps is applied when a fixture declares no step cap.
const DefaultMaxSteps = 1 << 20

// Program is a loaded fixture: named bodies plus the entry point.
type Program struct {
	Entry  string
	Limits Limits
	Bodies map[string]*mir.Body
}

// LoadProgram reads and decodes one fixture file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "driver: read program")
	}
	prog, err := ParseProgram(data)
	if err != nil {
		return nil, errors.Wrapf(err, "driver: %s", path)
	}
	return prog, nil
}

// ParseProgram decodes a fixture document.
func ParseProgram(data []byte) (*Program, error) {
	var doc programFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if doc.Entry == "" {
		return nil, fmt.Errorf("program declares no entry body")
	}
	tt := &typeTable{named: make(map[string]layout.Type)}
	for _, td := range doc.Types {
		if td.Name == "" {
			return nil, fmt.Errorf("unnamed sum type declaration")
		}
		variants := make([]layout.Variant, len(td.Variants))
		for i, vd := range td.Variants {
			fields := make([]layout.Type, len(vd.Fields))
			for j, f := range vd.Fields {
				ft, err := tt.parseType(f)
				if err != nil {
					return nil, errors.Wrapf(err, "type %s variant %s", td.Name, vd.Name)
				}
				fields[j] = ft
			}
			variants[i] = layout.Variant{Name: vd.Name, Fields: fields}
		}
		tagBits := td.TagBits
		if tagBits == 0 {
			tagBits = 8
		}
		tt.named[td.Name] = layout.SumType{Name: td.Name, TagBits: tagBits, Variants: variants}
	}

	prog := &Program{Entry: doc.Entry, Limits: doc.Limits, Bodies: make(map[string]*mir.Body)}
	for _, bd := range doc.Bodies {
		body, err := decodeBody(tt, bd)
		if err != nil {
			return nil, errors.Wrapf(err, "body %s", bd.Name)
		}
		prog.Bodies[body.Name] = body
	}
	if _, ok := prog.Bodies[prog.Entry]; !ok {
		return nil, fmt.Errorf("entry body %q is not declared", prog.Entry)
	}
	return prog, nil
}

//-----------------------------------------------------------------------------
// Document shape
//-----------------------------------------------------------------------------

type programFile struct {
	Entry  string     `yaml:"entry"`
	Limits Limits     `yaml:"limits"`
	Types  []typeDecl `yaml:"types"`
	Bodies []bodyDecl `yaml:"bodies"`
}

type typeDecl struct {
	Name     string        `yaml:"name"`
	TagBits  int           `yaml:"tag_bits"`
	Variants []variantDecl `yaml:"variants"`
}

type variantDecl struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

type bodyDecl struct {
	Name   string      `yaml:"name"`
	Args   int         `yaml:"args"`
	Locals []localDecl `yaml:"locals"`
	Blocks []blockDecl `yaml:"blocks"`
}

type localDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type blockDecl struct {
	Statements []stmtDecl `yaml:"statements"`
	Terminator termDecl   `yaml:"terminator"`
}

type spanDecl struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

func (s *spanDecl) span() mir.Span {
	if s == nil {
		return mir.Span{}
	}
	return mir.Span{Line: s.Line, Column: s.Column}
}

type placeDecl struct {
	Local int      `yaml:"local"`
	Proj  []string `yaml:"proj"`
}

type constDecl struct {
	Type  string `yaml:"type"`
	Value int64  `yaml:"value"`
}

type operandDecl struct {
	Const *constDecl `yaml:"const"`
	Copy  *placeDecl `yaml:"copy"`
	Move  *placeDecl `yaml:"move"`
}

type binDecl struct {
	Op    string      `yaml:"op"`
	Left  operandDecl `yaml:"left"`
	Right operandDecl `yaml:"right"`
}

type unDecl struct {
	Op      string      `yaml:"op"`
	Operand operandDecl `yaml:"operand"`
}

type aggDecl struct {
	Type        string        `yaml:"type"`
	Variant     int           `yaml:"variant"`
	ActiveField *int          `yaml:"active_field"`
	Operands    []operandDecl `yaml:"operands"`
}

type repeatDecl struct {
	Operand operandDecl `yaml:"operand"`
	Count   uint64      `yaml:"count"`
}

type typeRef struct {
	Type string `yaml:"type"`
}

type castDecl struct {
	Kind    string      `yaml:"kind"`
	Operand operandDecl `yaml:"operand"`
	Type    string      `yaml:"type"`
}

type rvalueDecl struct {
	Use          *operandDecl `yaml:"use"`
	Binary       *binDecl     `yaml:"binary"`
	Checked      *binDecl     `yaml:"checked"`
	Unary        *unDecl      `yaml:"unary"`
	Aggregate    *aggDecl     `yaml:"aggregate"`
	Repeat       *repeatDecl  `yaml:"repeat"`
	Len          *placeDecl   `yaml:"len"`
	Ref          *placeDecl   `yaml:"ref"`
	HeapAlloc    *typeRef     `yaml:"heap_alloc"`
	SizeOf       *typeRef     `yaml:"size_of"`
	Cast         *castDecl    `yaml:"cast"`
	Discriminant *placeDecl   `yaml:"discriminant"`
}

type assignDecl struct {
	Place  placeDecl  `yaml:"place"`
	Rvalue rvalueDecl `yaml:"rvalue"`
}

type setTagDecl struct {
	Place   placeDecl `yaml:"place"`
	Variant int       `yaml:"variant"`
}

type validateDecl struct {
	Op     string      `yaml:"op"`
	Places []placeDecl `yaml:"places"`
}

type stmtDecl struct {
	Assign      *assignDecl   `yaml:"assign"`
	SetTag      *setTagDecl   `yaml:"set_tag"`
	StorageLive *int          `yaml:"storage_live"`
	StorageDead *int          `yaml:"storage_dead"`
	Validate    *validateDecl `yaml:"validate"`
	EndRegion   *int          `yaml:"end_region"`
	MatchMark   *placeDecl    `yaml:"match_mark"`
	AssertType  *placeDecl    `yaml:"assert_type"`
	Nop         bool          `yaml:"nop"`
	NativeCode  bool          `yaml:"native_code"`
	Span        *spanDecl     `yaml:"span"`
}

type switchDecl struct {
	Place     placeDecl `yaml:"place"`
	Values    []uint64  `yaml:"values"`
	Targets   []int     `yaml:"targets"`
	Otherwise int       `yaml:"otherwise"`
}

type callDecl struct {
	Func   string        `yaml:"func"`
	Args   []operandDecl `yaml:"args"`
	Dest   placeDecl     `yaml:"dest"`
	Target int           `yaml:"target"`
}

type termDecl struct {
	Goto        *int        `yaml:"goto"`
	Switch      *switchDecl `yaml:"switch"`
	Call        *callDecl   `yaml:"call"`
	Return      bool        `yaml:"return"`
	Unreachable bool        `yaml:"unreachable"`
	Span        *spanDecl   `yaml:"span"`
}
