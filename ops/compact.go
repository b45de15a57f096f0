package ops

import "github.com/cswinter/locustdb-go/buffer"

// NonzeroIndices gathers the indices of every nonzero element of a u8 mask
// into a u32 vector, the index-producing half of compaction used when a
// downstream operator needs row positions rather than the compacted values
// themselves (e.g. feeding Select).
type NonzeroIndices struct {
	base

	Mask buffer.Ref
	out  buffer.Ref
}

var _ Operator = (*NonzeroIndices)(nil)

func NewNonzeroIndices(mask, out buffer.Ref) *NonzeroIndices {
	return &NonzeroIndices{Mask: mask, out: out}
}

func (n *NonzeroIndices) Inputs() []buffer.Ref  { return []buffer.Ref{n.Mask} }
func (n *NonzeroIndices) Outputs() []buffer.Ref { return []buffer.Ref{n.out} }
func (n *NonzeroIndices) Allocates() bool       { return true }

func (n *NonzeroIndices) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	mask := s.U8(n.Mask)
	out := make([]uint32, 0, len(mask))
	for i, v := range mask {
		if v != 0 {
			out = append(out, uint32(i))
		}
	}
	s.SetU32(n.out, out)

	return false, nil
}

// NonzeroCompact removes every element of In whose corresponding Mask
// entry is zero, in place — equivalent to Filter(In, Mask, In) but
// declared as a distinct op since it never allocates a fresh output
// buffer: allocating and in-place variants of the same logical operation
// are kept as distinct types rather than a shared flag.
type NonzeroCompact struct {
	base

	In, Mask buffer.Ref
	enc      encKind
}

type encKind uint8

const (
	encI64 encKind = iota
	encF64
	encU8
	encU32
	encStr
)

var _ Operator = (*NonzeroCompact)(nil)

func NewNonzeroCompactI64(in, mask buffer.Ref) *NonzeroCompact {
	return &NonzeroCompact{In: in, Mask: mask, enc: encI64}
}

func NewNonzeroCompactF64(in, mask buffer.Ref) *NonzeroCompact {
	return &NonzeroCompact{In: in, Mask: mask, enc: encF64}
}

func NewNonzeroCompactU32(in, mask buffer.Ref) *NonzeroCompact {
	return &NonzeroCompact{In: in, Mask: mask, enc: encU32}
}

func NewNonzeroCompactStr(in, mask buffer.Ref) *NonzeroCompact {
	return &NonzeroCompact{In: in, Mask: mask, enc: encStr}
}

func (n *NonzeroCompact) Inputs() []buffer.Ref  { return []buffer.Ref{n.In, n.Mask} }
func (n *NonzeroCompact) Outputs() []buffer.Ref { return []buffer.Ref{n.In} }
func (n *NonzeroCompact) Allocates() bool       { return false }

func (n *NonzeroCompact) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	mask := s.U8(n.Mask)

	switch n.enc {
	case encI64:
		in := s.I64(n.In)
		out := in[:0]
		for i, v := range mask {
			if v != 0 {
				out = append(out, in[i])
			}
		}
		s.SetI64(n.In, out)
	case encF64:
		in := s.F64(n.In)
		out := in[:0]
		for i, v := range mask {
			if v != 0 {
				out = append(out, in[i])
			}
		}
		s.SetF64(n.In, out)
	case encU32:
		in := s.U32(n.In)
		out := in[:0]
		for i, v := range mask {
			if v != 0 {
				out = append(out, in[i])
			}
		}
		s.SetU32(n.In, out)
	case encStr:
		in := s.Str(n.In)
		out := in[:0]
		for i, v := range mask {
			if v != 0 {
				out = append(out, in[i])
			}
		}
		s.SetStr(n.In, out)
	}

	return false, nil
}

// Compact gathers In at the positions given by Indices, in place — the
// index-driven counterpart of NonzeroCompact, used by the merge family
// when combining partitions has already produced an index permutation
// rather than a boolean mask.
type Compact struct {
	base

	In, Indices buffer.Ref
	enc         encKind
}

var _ Operator = (*Compact)(nil)

func NewCompactI64(in, indices buffer.Ref) *Compact {
	return &Compact{In: in, Indices: indices, enc: encI64}
}

func NewCompactF64(in, indices buffer.Ref) *Compact {
	return &Compact{In: in, Indices: indices, enc: encF64}
}

func NewCompactStr(in, indices buffer.Ref) *Compact {
	return &Compact{In: in, Indices: indices, enc: encStr}
}

func (c *Compact) Inputs() []buffer.Ref  { return []buffer.Ref{c.In, c.Indices} }
func (c *Compact) Outputs() []buffer.Ref { return []buffer.Ref{c.In} }
func (c *Compact) Allocates() bool       { return false }

func (c *Compact) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	indices := s.U32(c.Indices)

	switch c.enc {
	case encI64:
		in := s.I64(c.In)
		out := make([]int64, len(indices))
		for i, idx := range indices {
			out[i] = in[idx]
		}
		s.SetI64(c.In, out)
	case encF64:
		in := s.F64(c.In)
		out := make([]float64, len(indices))
		for i, idx := range indices {
			out[i] = in[idx]
		}
		s.SetF64(c.In, out)
	case encStr:
		in := s.Str(c.In)
		out := make([]string, len(indices))
		for i, idx := range indices {
			out[i] = in[idx]
		}
		s.SetStr(c.In, out)
	}

	return false, nil
}
