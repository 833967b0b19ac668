package mir

import (
	"github.com/holiman/uint256"

	"mirvm/interpreter-go/pkg/layout"
)

// Construction helpers used by tests and the fixture loader. They keep
// hand-built bodies readable; nothing in the interpreter depends on them.

// P names a bare local place.
func P(l Local) Place { return Place{Local: l} }

// PField projects field i onto p.
func PField(p Place, i int) Place {
	return Place{Local: p.Local, Proj: append(append([]Projection{}, p.Proj...), FieldProj{Index: i})}
}

// PDowncast narrows p to variant v.
func PDowncast(p Place, v int) Place {
	return Place{Local: p.Local, Proj: append(append([]Projection{}, p.Proj...), DowncastProj{Variant: v})}
}

// PDeref follows the pointer stored at p.
func PDeref(p Place) Place {
	return Place{Local: p.Local, Proj: append(append([]Projection{}, p.Proj...), DerefProj{})}
}

// PIndex projects element i onto p.
func PIndex(p Place, i uint64) Place {
	return Place{Local: p.Local, Proj: append(append([]Projection{}, p.Proj...), IndexProj{Index: i})}
}

// ConstInt builds an integer constant operand.
func ConstInt(ty layout.IntType, v int64) ConstOperand {
	bits := new(uint256.Int)
	if v < 0 {
		// Two's complement within the declared width.
		bits.Sub(bits, uint256.NewInt(uint64(-v)))
		bits.And(bits, widthMask(ty.Bits))
	} else {
		bits.SetUint64(uint64(v))
	}
	return ConstOperand{Type: ty, Value: bits}
}

// ConstBool builds a boolean constant operand.
func ConstBool(v bool) ConstOperand {
	bits := new(uint256.Int)
	if v {
		bits.SetUint64(1)
	}
	return ConstOperand{Type: layout.BoolType{}, Value: bits}
}

// Copy builds a copy operand for a place.
func Copy(p Place) CopyOperand { return CopyOperand{Place: p} }

// Move builds a move operand for a place.
func Move(p Place) MoveOperand { return MoveOperand{Place: p} }

// Assign builds an assignment statement.
func Assign(p Place, rv Rvalue) *AssignStatement {
	return &AssignStatement{Place: p, Rvalue: rv}
}

// Use wraps an operand as an rvalue.
func Use(op Operand) *UseRvalue { return &UseRvalue{Operand: op} }

func widthMask(bits int) *uint256.Int {
	mask := new(uint256.Int)
	if bits >= 256 {
		return mask.Not(mask)
	}
	one := uint256.NewInt(1)
	mask.Lsh(one, uint(bits))
	return mask.Sub(mask, one)
}
