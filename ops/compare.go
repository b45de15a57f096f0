package ops

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/errs"
	"github.com/cswinter/locustdb-go/types"
)

// CompareKind identifies one of the four comparison operators.
type CompareKind uint8

const (
	LessThan CompareKind = iota
	LessThanEquals
	Equals
	NotEquals
)

func cmpI64(k CompareKind, a, b int64) bool {
	switch k {
	case LessThan:
		return a < b
	case LessThanEquals:
		return a <= b
	case Equals:
		return a == b
	default:
		return a != b
	}
}

func cmpF64(k CompareKind, a, b float64) bool {
	switch k {
	case LessThan:
		return a < b
	case LessThanEquals:
		return a <= b
	case Equals:
		return a == b
	default:
		return a != b
	}
}

func cmpStr(k CompareKind, a, b string) bool {
	switch k {
	case LessThan:
		return a < b
	case LessThanEquals:
		return a <= b
	case Equals:
		return a == b
	default:
		return a != b
	}
}

// Compare specializes on (scalar, vector), (vector, scalar), and
// (vector, vector) forms, selected by which of Left/Right is the zero Ref.
type Compare struct {
	base

	Kind        CompareKind
	Enc         types.Encoding
	Left, Right buffer.Ref // vector operands, zero Ref if that side is scalar
	LeftScalar  *buffer.Scalar
	RightScalar *buffer.Scalar
	out         buffer.Ref
}

var _ Operator = (*Compare)(nil)

func NewCompare(kind CompareKind, enc types.Encoding, left, right buffer.Ref, leftScalar, rightScalar *buffer.Scalar, out buffer.Ref) *Compare {
	return &Compare{Kind: kind, Enc: enc, Left: left, Right: right, LeftScalar: leftScalar, RightScalar: rightScalar, out: out}
}

func (c *Compare) Inputs() []buffer.Ref {
	var in []buffer.Ref
	if c.LeftScalar == nil {
		in = append(in, c.Left)
	}
	if c.RightScalar == nil {
		in = append(in, c.Right)
	}

	return in
}

func (c *Compare) Outputs() []buffer.Ref { return []buffer.Ref{c.out} }
func (c *Compare) Allocates() bool       { return true }

func (c *Compare) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	switch c.Enc {
	case types.I64:
		return false, c.execI64(s)
	case types.F64:
		return false, c.execF64(s)
	case types.Str:
		return false, c.execStr(s)
	default:
		return false, errs.New(errs.TypeError, "Compare", errs.ErrTypeMismatch)
	}
}

func (c *Compare) execI64(s *buffer.Scratchpad) error {
	switch {
	case c.LeftScalar != nil:
		rv := s.I64(c.Right)
		out := make([]uint8, len(rv))
		for i, v := range rv {
			out[i] = b2u8(cmpI64(c.Kind, c.LeftScalar.Int(), v))
		}
		s.SetU8(c.out, out)
	case c.RightScalar != nil:
		lv := s.I64(c.Left)
		out := make([]uint8, len(lv))
		for i, v := range lv {
			out[i] = b2u8(cmpI64(c.Kind, v, c.RightScalar.Int()))
		}
		s.SetU8(c.out, out)
	default:
		lv, rv := s.I64(c.Left), s.I64(c.Right)
		out := make([]uint8, len(lv))
		for i := range lv {
			out[i] = b2u8(cmpI64(c.Kind, lv[i], rv[i]))
		}
		s.SetU8(c.out, out)
	}

	return nil
}

func (c *Compare) execF64(s *buffer.Scratchpad) error {
	switch {
	case c.LeftScalar != nil:
		rv := s.F64(c.Right)
		out := make([]uint8, len(rv))
		for i, v := range rv {
			out[i] = b2u8(cmpF64(c.Kind, c.LeftScalar.Float(), v))
		}
		s.SetU8(c.out, out)
	case c.RightScalar != nil:
		lv := s.F64(c.Left)
		out := make([]uint8, len(lv))
		for i, v := range lv {
			out[i] = b2u8(cmpF64(c.Kind, v, c.RightScalar.Float()))
		}
		s.SetU8(c.out, out)
	default:
		lv, rv := s.F64(c.Left), s.F64(c.Right)
		out := make([]uint8, len(lv))
		for i := range lv {
			out[i] = b2u8(cmpF64(c.Kind, lv[i], rv[i]))
		}
		s.SetU8(c.out, out)
	}

	return nil
}

func (c *Compare) execStr(s *buffer.Scratchpad) error {
	switch {
	case c.LeftScalar != nil:
		rv := s.Str(c.Right)
		out := make([]uint8, len(rv))
		for i, v := range rv {
			out[i] = b2u8(cmpStr(c.Kind, c.LeftScalar.Str(), v))
		}
		s.SetU8(c.out, out)
	case c.RightScalar != nil:
		lv := s.Str(c.Left)
		out := make([]uint8, len(lv))
		for i, v := range lv {
			out[i] = b2u8(cmpStr(c.Kind, v, c.RightScalar.Str()))
		}
		s.SetU8(c.out, out)
	default:
		lv, rv := s.Str(c.Left), s.Str(c.Right)
		out := make([]uint8, len(lv))
		for i := range lv {
			out[i] = b2u8(cmpStr(c.Kind, lv[i], rv[i]))
		}
		s.SetU8(c.out, out)
	}

	return nil
}

func b2u8(v bool) uint8 {
	if v {
		return 1
	}

	return 0
}
