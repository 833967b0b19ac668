package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"mirvm/interpreter-go/pkg/layout"
	"mirvm/interpreter-go/pkg/mir"
)

func decodeBody(tt *typeTable, bd bodyDecl) (*mir.Body, error) {
	if bd.Name == "" {
		return nil, fmt.Errorf("unnamed body")
	}
	if len(bd.Locals) == 0 {
		return nil, fmt.Errorf("a body needs at least a return local")
	}
	body := &mir.Body{Name: bd.Name, ArgCount: bd.Args}
	for _, ld := range bd.Locals {
		t, err := tt.parseType(ld.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "local %s", ld.Name)
		}
		body.Locals = append(body.Locals, mir.LocalDecl{Name: ld.Name, Type: t})
	}
	for i, blk := range bd.Blocks {
		block, err := decodeBlock(tt, blk)
		if err != nil {
			return nil, errors.Wrapf(err, "block %d", i)
		}
		body.Blocks = append(body.Blocks, block)
	}
	if len(body.Blocks) == 0 {
		return nil, fmt.Errorf("a body needs at least one block")
	}
	return body, nil
}

func decodeBlock(tt *typeTable, bd blockDecl) (mir.BasicBlock, error) {
	var block mir.BasicBlock
	for i, sd := range bd.Statements {
		stmt, err := decodeStatement(tt, sd)
		if err != nil {
			return mir.BasicBlock{}, errors.Wrapf(err, "statement %d", i)
		}
		block.Statements = append(block.Statements, stmt)
	}
	term, err := decodeTerminator(tt, bd.Terminator)
	if err != nil {
		return mir.BasicBlock{}, err
	}
	block.Terminator = term
	return block, nil
}

func decodeStatement(tt *typeTable, sd stmtDecl) (mir.Statement, error) {
	span := sd.Span.span()
	switch {
	case sd.Assign != nil:
		place, err := decodePlace(sd.Assign.Place)
		if err != nil {
			return nil, err
		}
		rv, err := decodeRvalue(tt, sd.Assign.Rvalue)
		if err != nil {
			return nil, err
		}
		return &mir.AssignStatement{Place: place, Rvalue: rv, Span: span}, nil
	case sd.SetTag != nil:
		place, err := decodePlace(sd.SetTag.Place)
		if err != nil {
			return nil, err
		}
		return &mir.SetTagStatement{Place: place, Variant: sd.SetTag.Variant, Span: span}, nil
	case sd.StorageLive != nil:
		return &mir.StorageLiveStatement{Local: mir.Local(*sd.StorageLive), Span: span}, nil
	case sd.StorageDead != nil:
		return &mir.StorageDeadStatement{Local: mir.Local(*sd.StorageDead), Span: span}, nil
	case sd.Validate != nil:
		op, err := decodeValidationOp(sd.Validate.Op)
		if err != nil {
			return nil, err
		}
		places := make([]mir.Place, len(sd.Validate.Places))
		for i, pd := range sd.Validate.Places {
			places[i], err = decodePlace(pd)
			if err != nil {
				return nil, err
			}
		}
		return &mir.ValidateStatement{Op: op, Places: places, Span: span}, nil
	case sd.EndRegion != nil:
		return &mir.EndRegionStatement{Token: mir.RegionToken(*sd.EndRegion), Span: span}, nil
	case sd.MatchMark != nil:
		place, err := decodePlace(*sd.MatchMark)
		if err != nil {
			return nil, err
		}
		return &mir.MatchMarkStatement{Place: place, Span: span}, nil
	case sd.AssertType != nil:
		place, err := decodePlace(*sd.AssertType)
		if err != nil {
			return nil, err
		}
		return &mir.AssertTypeStatement{Place: place, Span: span}, nil
	case sd.Nop:
		return &mir.NopStatement{Span: span}, nil
	case sd.NativeCode:
		return &mir.NativeCodeStatement{Span: span}, nil
	default:
		return nil, fmt.Errorf("empty statement")
	}
}

func decodeTerminator(tt *typeTable, td termDecl) (mir.Terminator, error) {
	span := td.Span.span()
	switch {
	case td.Goto != nil:
		return &mir.GotoTerminator{Target: mir.BlockID(*td.Goto), Span: span}, nil
	case td.Switch != nil:
		place, err := decodePlace(td.Switch.Place)
		if err != nil {
			return nil, err
		}
		if len(td.Switch.Values) != len(td.Switch.Targets) {
			return nil, fmt.Errorf("switch has %d values but %d targets",
				len(td.Switch.Values), len(td.Switch.Targets))
		}
		targets := make([]mir.BlockID, len(td.Switch.Targets))
		for i, t := range td.Switch.Targets {
			targets[i] = mir.BlockID(t)
		}
		return &mir.SwitchTerminator{
			Place:     place,
			Values:    td.Switch.Values,
			Targets:   targets,
			Otherwise: mir.BlockID(td.Switch.Otherwise),
			Span:      span,
		}, nil
	case td.Call != nil:
		dest, err := decodePlace(td.Call.Dest)
		if err != nil {
			return nil, err
		}
		args := make([]mir.Operand, len(td.Call.Args))
		for i, od := range td.Call.Args {
			args[i], err = decodeOperand(tt, od)
			if err != nil {
				return nil, err
			}
		}
		return &mir.CallTerminator{
			Func:   td.Call.Func,
			Args:   args,
			Dest:   dest,
			Target: mir.BlockID(td.Call.Target),
			Span:   span,
		}, nil
	case td.Return:
		return &mir.ReturnTerminator{Span: span}, nil
	case td.Unreachable:
		return &mir.UnreachableTerminator{Span: span}, nil
	default:
		return nil, fmt.Errorf("block has no terminator")
	}
}

func decodeRvalue(tt *typeTable, rd rvalueDecl) (mir.Rvalue, error) {
	switch {
	case rd.Use != nil:
		op, err := decodeOperand(tt, *rd.Use)
		if err != nil {
			return nil, err
		}
		return &mir.UseRvalue{Operand: op}, nil
	case rd.Binary != nil:
		op, left, right, err := decodeBinParts(tt, *rd.Binary)
		if err != nil {
			return nil, err
		}
		return &mir.BinaryOpRvalue{Op: op, Left: left, Right: right}, nil
	case rd.Checked != nil:
		op, left, right, err := decodeBinParts(tt, *rd.Checked)
		if err != nil {
			return nil, err
		}
		return &mir.CheckedBinaryOpRvalue{Op: op, Left: left, Right: right}, nil
	case rd.Unary != nil:
		operand, err := decodeOperand(tt, rd.Unary.Operand)
		if err != nil {
			return nil, err
		}
		op, err := decodeUnOp(rd.Unary.Op)
		if err != nil {
			return nil, err
		}
		return &mir.UnaryOpRvalue{Op: op, Operand: operand}, nil
	case rd.Aggregate != nil:
		t, err := tt.parseType(rd.Aggregate.Type)
		if err != nil {
			return nil, err
		}
		operands := make([]mir.Operand, len(rd.Aggregate.Operands))
		for i, od := range rd.Aggregate.Operands {
			operands[i], err = decodeOperand(tt, od)
			if err != nil {
				return nil, err
			}
		}
		return &mir.AggregateRvalue{
			Type:        t,
			Variant:     rd.Aggregate.Variant,
			ActiveField: rd.Aggregate.ActiveField,
			Operands:    operands,
		}, nil
	case rd.Repeat != nil:
		operand, err := decodeOperand(tt, rd.Repeat.Operand)
		if err != nil {
			return nil, err
		}
		return &mir.RepeatRvalue{Operand: operand, Count: rd.Repeat.Count}, nil
	case rd.Len != nil:
		place, err := decodePlace(*rd.Len)
		if err != nil {
			return nil, err
		}
		return &mir.LenRvalue{Place: place}, nil
	case rd.Ref != nil:
		place, err := decodePlace(*rd.Ref)
		if err != nil {
			return nil, err
		}
		return &mir.RefRvalue{Place: place}, nil
	case rd.HeapAlloc != nil:
		t, err := tt.parseType(rd.HeapAlloc.Type)
		if err != nil {
			return nil, err
		}
		return &mir.HeapAllocRvalue{Type: t}, nil
	case rd.SizeOf != nil:
		t, err := tt.parseType(rd.SizeOf.Type)
		if err != nil {
			return nil, err
		}
		return &mir.SizeOfRvalue{Type: t}, nil
	case rd.Cast != nil:
		t, err := tt.parseType(rd.Cast.Type)
		if err != nil {
			return nil, err
		}
		operand, err := decodeOperand(tt, rd.Cast.Operand)
		if err != nil {
			return nil, err
		}
		kind := mir.CastNumeric
		switch rd.Cast.Kind {
		case "", "numeric":
		case "pointer":
			kind = mir.CastPointer
		default:
			return nil, fmt.Errorf("unknown cast kind %q", rd.Cast.Kind)
		}
		return &mir.CastRvalue{Kind: kind, Operand: operand, Type: t}, nil
	case rd.Discriminant != nil:
		place, err := decodePlace(*rd.Discriminant)
		if err != nil {
			return nil, err
		}
		return &mir.DiscriminantRvalue{Place: place}, nil
	default:
		return nil, fmt.Errorf("empty rvalue")
	}
}

func decodeBinParts(tt *typeTable, bd binDecl) (mir.BinOp, mir.Operand, mir.Operand, error) {
	op, err := decodeBinOp(bd.Op)
	if err != nil {
		return 0, nil, nil, err
	}
	left, err := decodeOperand(tt, bd.Left)
	if err != nil {
		return 0, nil, nil, err
	}
	right, err := decodeOperand(tt, bd.Right)
	if err != nil {
		return 0, nil, nil, err
	}
	return op, left, right, nil
}

func decodeOperand(tt *typeTable, od operandDecl) (mir.Operand, error) {
	switch {
	case od.Const != nil:
		t, err := tt.parseType(od.Const.Type)
		if err != nil {
			return nil, err
		}
		return constOperand(t, od.Const.Value)
	case od.Copy != nil:
		place, err := decodePlace(*od.Copy)
		if err != nil {
			return nil, err
		}
		return mir.Copy(place), nil
	case od.Move != nil:
		place, err := decodePlace(*od.Move)
		if err != nil {
			return nil, err
		}
		return mir.Move(place), nil
	default:
		return nil, fmt.Errorf("empty operand")
	}
}

func decodePlace(pd placeDecl) (mir.Place, error) {
	place := mir.Place{Local: mir.Local(pd.Local)}
	for _, p := range pd.Proj {
		switch {
		case p == "deref":
			place.Proj = append(place.Proj, mir.DerefProj{})
		case strings.HasPrefix(p, "field:"):
			i, err := strconv.Atoi(p[len("field:"):])
			if err != nil {
				return mir.Place{}, fmt.Errorf("invalid projection %q", p)
			}
			place.Proj = append(place.Proj, mir.FieldProj{Index: i})
		case strings.HasPrefix(p, "downcast:"):
			i, err := strconv.Atoi(p[len("downcast:"):])
			if err != nil {
				return mir.Place{}, fmt.Errorf("invalid projection %q", p)
			}
			place.Proj = append(place.Proj, mir.DowncastProj{Variant: i})
		case strings.HasPrefix(p, "index:"):
			i, err := strconv.ParseUint(p[len("index:"):], 10, 64)
			if err != nil {
				return mir.Place{}, fmt.Errorf("invalid projection %q", p)
			}
			place.Proj = append(place.Proj, mir.IndexProj{Index: i})
		default:
			return mir.Place{}, fmt.Errorf("unknown projection %q", p)
		}
	}
	return place, nil
}

func constOperand(t layout.Type, v int64) (mir.Operand, error) {
	switch ct := t.(type) {
	case layout.IntType:
		return mir.ConstInt(ct, v), nil
	case layout.BoolType:
		switch v {
		case 0:
			return mir.ConstBool(false), nil
		case 1:
			return mir.ConstBool(true), nil
		default:
			return nil, fmt.Errorf("boolean constant must be 0 or 1, got %d", v)
		}
	default:
		return nil, fmt.Errorf("constants of type %s are not supported", t)
	}
}

func decodeValidationOp(s string) (mir.ValidationOp, error) {
	switch s {
	case "acquire":
		return mir.ValidationAcquire, nil
	case "release":
		return mir.ValidationRelease, nil
	case "suspend":
		return mir.ValidationSuspend, nil
	default:
		return 0, fmt.Errorf("unknown validation op %q", s)
	}
}

func decodeBinOp(s string) (mir.BinOp, error) {
	ops := map[string]mir.BinOp{
		"+": mir.BinAdd, "-": mir.BinSub, "*": mir.BinMul, "/": mir.BinDiv,
		"%": mir.BinRem, "&": mir.BinBitAnd, "|": mir.BinBitOr, "^": mir.BinBitXor,
		"<<": mir.BinShl, ">>": mir.BinShr, "==": mir.BinEq, "!=": mir.BinNe,
		"<": mir.BinLt, "<=": mir.BinLe, ">": mir.BinGt, ">=": mir.BinGe,
	}
	op, ok := ops[s]
	if !ok {
		return 0, fmt.Errorf("unknown binary operator %q", s)
	}
	return op, nil
}

func decodeUnOp(s string) (mir.UnOp, error) {
	switch s {
	case "!":
		return mir.UnNot, nil
	case "-":
		return mir.UnNeg, nil
	default:
		return 0, fmt.Errorf("unknown unary operator %q", s)
	}
}
