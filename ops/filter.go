package ops

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/types"
)

// Filter emits input[i] where mask[i] != 0. Stream-in, stream-out,
// allocates. Supports every non-nullable vector encoding the planner might
// route through it; one Filter instance is monomorphized to a single
// encoding at construction time (see plan's lowering rule 1).
type Filter struct {
	base

	in, mask, out buffer.Ref
	enc           types.Encoding
	pos           int
}

var _ Operator = (*Filter)(nil)

func NewFilter(in, mask, out buffer.Ref, enc types.Encoding) *Filter {
	return &Filter{in: in, mask: mask, out: out, enc: enc}
}

func (f *Filter) Inputs() []buffer.Ref  { return []buffer.Ref{f.in, f.mask} }
func (f *Filter) Outputs() []buffer.Ref { return []buffer.Ref{f.out} }

func (f *Filter) StreamableInput(i int) bool  { return true }
func (f *Filter) StreamableOutput(int) bool   { return true }
func (f *Filter) Allocates() bool             { return true }

func (f *Filter) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	mask := s.U8(f.mask)
	n := len(mask)
	end := f.pos + batch
	if end > n {
		end = n
	}

	switch f.enc {
	case types.I64:
		in, out := s.I64(f.in), s.I64(f.out)
		for i := f.pos; i < end; i++ {
			if mask[i] != 0 {
				out = append(out, in[i])
			}
		}
		s.SetI64(f.out, out)
	case types.F64:
		in, out := s.F64(f.in), s.F64(f.out)
		for i := f.pos; i < end; i++ {
			if mask[i] != 0 {
				out = append(out, in[i])
			}
		}
		s.SetF64(f.out, out)
	case types.U8, types.ByteVec:
		in, out := s.U8(f.in), s.U8(f.out)
		for i := f.pos; i < end; i++ {
			if mask[i] != 0 {
				out = append(out, in[i])
			}
		}
		s.SetU8(f.out, out)
	case types.U32:
		in, out := s.U32(f.in), s.U32(f.out)
		for i := f.pos; i < end; i++ {
			if mask[i] != 0 {
				out = append(out, in[i])
			}
		}
		s.SetU32(f.out, out)
	case types.Str:
		in, out := s.Str(f.in), s.Str(f.out)
		for i := f.pos; i < end; i++ {
			if mask[i] != 0 {
				out = append(out, in[i])
			}
		}
		s.SetStr(f.out, out)
	}

	f.pos = end

	return f.pos < n, nil
}
