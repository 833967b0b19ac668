package mir

import "fmt"

// BinOp identifies a binary operator.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinRem:
		return "%"
	case BinBitAnd:
		return "&"
	case BinBitOr:
		return "|"
	case BinBitXor:
		return "^"
	case BinShl:
		return "<<"
	case BinShr:
		return ">>"
	case BinEq:
		return "=="
	case BinNe:
		return "!="
	case BinLt:
		return "<"
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinGe:
		return ">="
	default:
		return fmt.Sprintf("binop_%d", int(op))
	}
}

// IsComparison reports whether the operator yields a boolean.
func (op BinOp) IsComparison() bool {
	switch op {
	case BinEq, BinNe, BinLt, BinLe, BinGt, BinGe:
		return true
	default:
		return false
	}
}

// UnOp identifies a unary operator.
type UnOp int

const (
	UnNot UnOp = iota
	UnNeg
)

func (op UnOp) String() string {
	switch op {
	case UnNot:
		return "!"
	case UnNeg:
		return "-"
	default:
		return fmt.Sprintf("unop_%d", int(op))
	}
}
