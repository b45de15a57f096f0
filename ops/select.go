package ops

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/types"
)

// Select gathers input[indices[i]] for each i. Stream-in on indices only;
// input must be fully materialized before this operator's stage can run
// (Select.StreamableInput(0) is false for the "input" operand, true for
// "indices").
type Select struct {
	base

	input, indices, out buffer.Ref
	enc                 types.Encoding
	pos                 int
}

var _ Operator = (*Select)(nil)

func NewSelect(input, indices, out buffer.Ref, enc types.Encoding) *Select {
	return &Select{input: input, indices: indices, out: out, enc: enc}
}

func (sel *Select) Inputs() []buffer.Ref  { return []buffer.Ref{sel.input, sel.indices} }
func (sel *Select) Outputs() []buffer.Ref { return []buffer.Ref{sel.out} }

// StreamableInput: index 0 is "input" (must be materialized), index 1 is
// "indices" (may be streamed).
func (sel *Select) StreamableInput(i int) bool { return i == 1 }
func (sel *Select) StreamableOutput(int) bool  { return true }
func (sel *Select) Allocates() bool            { return true }

func (sel *Select) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	idx := s.U32(sel.indices)
	n := len(idx)
	end := sel.pos + batch
	if end > n {
		end = n
	}

	switch sel.enc {
	case types.I64:
		in, out := s.I64(sel.input), s.I64(sel.out)
		for i := sel.pos; i < end; i++ {
			out = append(out, in[idx[i]])
		}
		s.SetI64(sel.out, out)
	case types.F64:
		in, out := s.F64(sel.input), s.F64(sel.out)
		for i := sel.pos; i < end; i++ {
			out = append(out, in[idx[i]])
		}
		s.SetF64(sel.out, out)
	case types.Str:
		in, out := s.Str(sel.input), s.Str(sel.out)
		for i := sel.pos; i < end; i++ {
			out = append(out, in[idx[i]])
		}
		s.SetStr(sel.out, out)
	case types.U8, types.ByteVec:
		in, out := s.U8(sel.input), s.U8(sel.out)
		for i := sel.pos; i < end; i++ {
			out = append(out, in[idx[i]])
		}
		s.SetU8(sel.out, out)
	}

	sel.pos = end

	return sel.pos < n, nil
}
