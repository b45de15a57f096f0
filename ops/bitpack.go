package ops

import "github.com/cswinter/locustdb-go/buffer"

// BitPack packs a vector of values known to fit in Width bits into a
// dense packed u64 word stream, used by the grouping-key synthesis rule
// for the bit-packed key layout. Values are packed low-bit-first, Width
// bits at a time, spanning word boundaries as needed — the same
// fixed-width packing scheme used for scalar runs, generalized from byte
// granularity to sub-byte bit granularity.
type BitPack struct {
	base

	In    buffer.Ref
	Width uint
	out   buffer.Ref
}

var _ Operator = (*BitPack)(nil)

func NewBitPack(in buffer.Ref, width uint, out buffer.Ref) *BitPack {
	return &BitPack{In: in, Width: width, out: out}
}

func (b *BitPack) Inputs() []buffer.Ref  { return []buffer.Ref{b.In} }
func (b *BitPack) Outputs() []buffer.Ref { return []buffer.Ref{b.out} }
func (b *BitPack) Allocates() bool       { return true }

func (b *BitPack) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	in := s.U32(b.In)
	totalBits := uint(len(in)) * b.Width
	words := make([]uint64, (totalBits+63)/64)
	mask := uint64(1)<<b.Width - 1

	var bitPos uint
	for _, v := range in {
		word := bitPos / 64
		shift := bitPos % 64
		words[word] |= (uint64(v) & mask) << shift
		if shift+b.Width > 64 {
			words[word+1] |= (uint64(v) & mask) >> (64 - shift)
		}
		bitPos += b.Width
	}
	s.SetU64(b.out, words)

	return false, nil
}

// BitUnpack reverses BitPack: given a known element count and bit width,
// it reconstructs the u32 vector from the packed word stream.
type BitUnpack struct {
	base

	In    buffer.Ref
	Width uint
	N     int
	out   buffer.Ref
}

var _ Operator = (*BitUnpack)(nil)

func NewBitUnpack(in buffer.Ref, width uint, n int, out buffer.Ref) *BitUnpack {
	return &BitUnpack{In: in, Width: width, N: n, out: out}
}

func (b *BitUnpack) Inputs() []buffer.Ref  { return []buffer.Ref{b.In} }
func (b *BitUnpack) Outputs() []buffer.Ref { return []buffer.Ref{b.out} }
func (b *BitUnpack) Allocates() bool       { return true }
func (b *BitUnpack) FixedOutputLen() (int, bool) { return b.N, true }

func (b *BitUnpack) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	words := s.U64(b.In)
	mask := uint64(1)<<b.Width - 1
	out := make([]uint32, b.N)

	var bitPos uint
	for i := 0; i < b.N; i++ {
		word := bitPos / 64
		shift := bitPos % 64
		v := (words[word] >> shift) & mask
		if shift+b.Width > 64 {
			v |= (words[word+1] << (64 - shift)) & mask
		}
		out[i] = uint32(v)
		bitPos += b.Width
	}
	s.SetU32(b.out, out)

	return false, nil
}
