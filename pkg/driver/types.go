package driver

import (
	"fmt"
	"strconv"
	"strings"

	"mirvm/interpreter-go/pkg/layout"
)

// typeTable resolves type expressions against the program's named sum
// types.
type typeTable struct {
	named map[string]layout.Type
}

// parseType reads the fixture type grammar:
//
//	i8..i128, u8..u128, bool
//	*T           pointer
//	[N]T         array
//	[]T          slice (unsized)
//	(T, T, ...)  tuple; () is unit
//	Name         a sum type declared in the fixture's types section
func (tt *typeTable) parseType(s string) (layout.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("driver: empty type expression")
	}
	switch {
	case s == "bool":
		return layout.BoolType{}, nil

	case s[0] == 'i' || s[0] == 'u':
		if bits, err := strconv.Atoi(s[1:]); err == nil {
			switch bits {
			case 8, 16, 32, 64, 128:
				return layout.IntType{Bits: bits, Signed: s[0] == 'i'}, nil
			}
			return nil, fmt.Errorf("driver: invalid integer width in %q", s)
		}

	case s[0] == '*':
		elem, err := tt.parseType(s[1:])
		if err != nil {
			return nil, err
		}
		return layout.PointerType{Elem: elem}, nil

	case strings.HasPrefix(s, "[]"):
		elem, err := tt.parseType(s[2:])
		if err != nil {
			return nil, err
		}
		return layout.SliceType{Elem: elem}, nil

	case s[0] == '[':
		close := strings.IndexByte(s, ']')
		if close < 0 {
			return nil, fmt.Errorf("driver: unterminated array length in %q", s)
		}
		n, err := strconv.ParseUint(s[1:close], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("driver: invalid array length in %q", s)
		}
		elem, err := tt.parseType(s[close+1:])
		if err != nil {
			return nil, err
		}
		return layout.ArrayType{Elem: elem, Len: n}, nil

	case s[0] == '(':
		if !strings.HasSuffix(s, ")") {
			return nil, fmt.Errorf("driver: unterminated tuple in %q", s)
		}
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return layout.Unit(), nil
		}
		parts, err := splitTopLevel(inner)
		if err != nil {
			return nil, fmt.Errorf("driver: %v in %q", err, s)
		}
		fields := make([]layout.Type, len(parts))
		for i, p := range parts {
			fields[i], err = tt.parseType(p)
			if err != nil {
				return nil, err
			}
		}
		return layout.TupleType{Fields: fields}, nil
	}

	if t, ok := tt.named[s]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("driver: unknown type %q", s)
}

// splitTopLevel splits a comma-separated list, respecting nested
// parentheses and brackets.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	parts = append(parts, s[start:])
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}
