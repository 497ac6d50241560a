package pcode

import (
	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/row"
)

// Eval runs p's stack machine against r and returns the single resulting
// Datum (spec §4.2). Eval never mutates r.
func (p *PCode) Eval(r row.Row) (row.Datum, error) {
	var stack []row.Datum
	pop2 := func() (row.Datum, row.Datum) {
		n := len(stack)
		lhs, rhs := stack[n-2], stack[n-1]
		stack = stack[:n-2]
		return lhs, rhs
	}

	for _, instr := range p.Instructions {
		switch instr.Op {
		case OpPushLit:
			stack = append(stack, instr.Lit)
		case OpPushReg:
			stack = append(stack, r.GetColumn(instr.Reg))
		case OpRel:
			lhs, rhs := pop2()
			cmp, err := lhs.Compare(rhs)
			if err != nil {
				return row.Datum{}, err
			}
			stack = append(stack, row.NewBool(evalRel(instr.RelOp, cmp)))
		case OpLog:
			result, err := evalLog(instr.LogOp, &stack)
			if err != nil {
				return row.Datum{}, err
			}
			stack = append(stack, row.NewBool(result))
		case OpArith:
			lhs, rhs := pop2()
			result, err := evalArith(instr.Arith, lhs, rhs)
			if err != nil {
				return row.Datum{}, err
			}
			stack = append(stack, result)
		case OpReturn:
			return stack[len(stack)-1], nil
		}
	}
	return row.Datum{}, errs.ErrTypeMismatch.New("pcode fell off the end without Return")
}

func evalRel(op lop.RelOp, cmp int) bool {
	switch op {
	case lop.RelEQ:
		return cmp == 0
	case lop.RelNE:
		return cmp != 0
	case lop.RelLT:
		return cmp < 0
	case lop.RelLE:
		return cmp <= 0
	case lop.RelGT:
		return cmp > 0
	case lop.RelGE:
		return cmp >= 0
	default:
		return false
	}
}

func evalLog(op lop.LogOp, stack *[]row.Datum) (bool, error) {
	pop := func() (bool, error) {
		n := len(*stack)
		d := (*stack)[n-1]
		*stack = (*stack)[:n-1]
		b, ok := d.Bool()
		if !ok {
			return false, errs.ErrTypeMismatch.New("logical operand is not BOOL")
		}
		return b, nil
	}
	switch op {
	case lop.LogNot:
		b, err := pop()
		if err != nil {
			return false, err
		}
		return !b, nil
	case lop.LogAnd:
		rhs, err := pop()
		if err != nil {
			return false, err
		}
		lhs, err := pop()
		if err != nil {
			return false, err
		}
		return lhs && rhs, nil
	case lop.LogOr:
		rhs, err := pop()
		if err != nil {
			return false, err
		}
		lhs, err := pop()
		if err != nil {
			return false, err
		}
		return lhs || rhs, nil
	default:
		return false, errs.ErrTypeMismatch.New("unknown logical operator")
	}
}

func evalArith(op lop.ArithOp, lhs, rhs row.Datum) (row.Datum, error) {
	if lhs.Tag() != rhs.Tag() {
		return row.Datum{}, errs.ErrTypeMismatch.New("arithmetic operands have different types")
	}
	switch lhs.Tag() {
	case row.TagInt:
		l, _ := lhs.Int()
		r, _ := rhs.Int()
		switch op {
		case lop.ArithAdd:
			return row.NewInt(l + r), nil
		case lop.ArithSub:
			return row.NewInt(l - r), nil
		case lop.ArithMul:
			return row.NewInt(l * r), nil
		case lop.ArithDiv:
			if r == 0 {
				return row.Datum{}, errs.ErrDivByZero.New()
			}
			return row.NewInt(l / r), nil
		}
	case row.TagDouble:
		l, _ := lhs.Double()
		r, _ := rhs.Double()
		switch op {
		case lop.ArithAdd:
			return row.NewDoubleFromFloat(l + r), nil
		case lop.ArithSub:
			return row.NewDoubleFromFloat(l - r), nil
		case lop.ArithMul:
			return row.NewDoubleFromFloat(l * r), nil
		case lop.ArithDiv:
			if r == 0 {
				return row.Datum{}, errs.ErrDivByZero.New()
			}
			return row.NewDoubleFromFloat(l / r), nil
		}
	}
	return row.Datum{}, errs.ErrTypeMismatch.New("arithmetic is only defined over INT and DOUBLE")
}
