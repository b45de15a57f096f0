package ops

import (
	"math"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/errs"
)

// ArithKind identifies one of the five integer arithmetic operators.
type ArithKind uint8

const (
	ArithAdd ArithKind = iota
	ArithSubtract
	ArithMultiply
	ArithDivide
	ArithModulo
)

// Arithmetic evaluates one of Add/Subtract/Multiply/Divide/Modulo over i64
// vector/scalar operands. Divide and Modulo trap fatally on a zero divisor
// rather than producing a null or wrapped result.
type Arithmetic struct {
	base

	Kind        ArithKind
	Left, Right buffer.Ref
	LeftScalar  *buffer.Scalar
	RightScalar *buffer.Scalar
	out         buffer.Ref
}

var _ Operator = (*Arithmetic)(nil)

func NewArithmetic(kind ArithKind, left, right buffer.Ref, leftScalar, rightScalar *buffer.Scalar, out buffer.Ref) *Arithmetic {
	return &Arithmetic{Kind: kind, Left: left, Right: right, LeftScalar: leftScalar, RightScalar: rightScalar, out: out}
}

func (a *Arithmetic) Inputs() []buffer.Ref {
	var in []buffer.Ref
	if a.LeftScalar == nil {
		in = append(in, a.Left)
	}
	if a.RightScalar == nil {
		in = append(in, a.Right)
	}

	return in
}

func (a *Arithmetic) Outputs() []buffer.Ref { return []buffer.Ref{a.out} }
func (a *Arithmetic) Allocates() bool       { return true }

func arith(kind ArithKind, a, b int64) (int64, error) {
	switch kind {
	case ArithAdd:
		r := a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return 0, errs.New(errs.Overflow, "Arithmetic.Add", errs.ErrOverflow)
		}

		return r, nil
	case ArithSubtract:
		r := a - b
		if (b < 0 && r < a) || (b > 0 && r > a) {
			return 0, errs.New(errs.Overflow, "Arithmetic.Subtract", errs.ErrOverflow)
		}

		return r, nil
	case ArithMultiply:
		if a == 0 || b == 0 {
			return 0, nil
		}
		r := a * b
		if r/b != a {
			return 0, errs.New(errs.Overflow, "Arithmetic.Multiply", errs.ErrOverflow)
		}

		return r, nil
	case ArithDivide:
		if b == 0 {
			return 0, errs.New(errs.Fatal, "Arithmetic.Divide", errs.ErrDivideByZero)
		}

		return a / b, nil
	default: // ArithModulo
		if b == 0 {
			return 0, errs.New(errs.Fatal, "Arithmetic.Modulo", errs.ErrDivideByZero)
		}

		return a % b, nil
	}
}

func (a *Arithmetic) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	switch {
	case a.LeftScalar != nil && a.RightScalar != nil:
		return false, errs.New(errs.TypeError, "Arithmetic", errs.ErrTypeMismatch)
	case a.LeftScalar != nil:
		rv := s.I64(a.Right)
		out := make([]int64, len(rv))
		for i, v := range rv {
			out[i], err = arith(a.Kind, a.LeftScalar.Int(), v)
			if err != nil {
				return false, err
			}
		}
		s.SetI64(a.out, out)
	case a.RightScalar != nil:
		lv := s.I64(a.Left)
		out := make([]int64, len(lv))
		for i, v := range lv {
			out[i], err = arith(a.Kind, v, a.RightScalar.Int())
			if err != nil {
				return false, err
			}
		}
		s.SetI64(a.out, out)
	default:
		lv, rv := s.I64(a.Left), s.I64(a.Right)
		out := make([]int64, len(lv))
		for i := range lv {
			out[i], err = arith(a.Kind, lv[i], rv[i])
			if err != nil {
				return false, err
			}
		}
		s.SetI64(a.out, out)
	}

	return false, nil
}

// FloatArithmetic mirrors Arithmetic for f64 operands; division by zero
// follows IEEE 754 (±Inf/NaN) rather than trapping, since float semantics
// are defined there, unlike the integer case.
type FloatArithmetic struct {
	base

	Kind        ArithKind
	Left, Right buffer.Ref
	LeftScalar  *buffer.Scalar
	RightScalar *buffer.Scalar
	out         buffer.Ref
}

var _ Operator = (*FloatArithmetic)(nil)

func NewFloatArithmetic(kind ArithKind, left, right buffer.Ref, leftScalar, rightScalar *buffer.Scalar, out buffer.Ref) *FloatArithmetic {
	return &FloatArithmetic{Kind: kind, Left: left, Right: right, LeftScalar: leftScalar, RightScalar: rightScalar, out: out}
}

func (a *FloatArithmetic) Inputs() []buffer.Ref {
	var in []buffer.Ref
	if a.LeftScalar == nil {
		in = append(in, a.Left)
	}
	if a.RightScalar == nil {
		in = append(in, a.Right)
	}

	return in
}

func (a *FloatArithmetic) Outputs() []buffer.Ref { return []buffer.Ref{a.out} }
func (a *FloatArithmetic) Allocates() bool       { return true }

func farith(kind ArithKind, a, b float64) float64 {
	switch kind {
	case ArithAdd:
		return a + b
	case ArithSubtract:
		return a - b
	case ArithMultiply:
		return a * b
	case ArithDivide:
		return a / b
	default:
		return math.Mod(a, b)
	}
}

func (a *FloatArithmetic) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	switch {
	case a.LeftScalar != nil:
		rv := s.F64(a.Right)
		out := make([]float64, len(rv))
		for i, v := range rv {
			out[i] = farith(a.Kind, a.LeftScalar.Float(), v)
		}
		s.SetF64(a.out, out)
	case a.RightScalar != nil:
		lv := s.F64(a.Left)
		out := make([]float64, len(lv))
		for i, v := range lv {
			out[i] = farith(a.Kind, v, a.RightScalar.Float())
		}
		s.SetF64(a.out, out)
	default:
		lv, rv := s.F64(a.Left), s.F64(a.Right)
		out := make([]float64, len(lv))
		for i := range lv {
			out[i] = farith(a.Kind, lv[i], rv[i])
		}
		s.SetF64(a.out, out)
	}

	return false, nil
}
