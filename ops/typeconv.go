package ops

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/internal/pool"
	"github.com/cswinter/locustdb-go/types"
)

// TypeConversion widens a narrow fixed-width vector into i64, the runtime
// counterpart of codec.ToI64. The planner monomorphizes one instance per
// source width it encounters.
type TypeConversion struct {
	base

	In  buffer.Ref
	out buffer.Ref
}

var _ Operator = (*TypeConversion)(nil)

func NewTypeConversion(in, out buffer.Ref) *TypeConversion {
	return &TypeConversion{In: in, out: out}
}

func (t *TypeConversion) Inputs() []buffer.Ref  { return []buffer.Ref{t.In} }
func (t *TypeConversion) Outputs() []buffer.Ref { return []buffer.Ref{t.out} }
func (t *TypeConversion) Allocates() bool       { return true }

func (t *TypeConversion) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	switch t.In.Encoding() {
	case types.U8:
		in := s.U8(t.In)
		out := make([]int64, len(in))
		for i, v := range in {
			out[i] = int64(v)
		}
		s.SetI64(t.out, out)
	case types.U16:
		in := s.U16(t.In)
		out := make([]int64, len(in))
		for i, v := range in {
			out[i] = int64(v)
		}
		s.SetI64(t.out, out)
	case types.U32:
		in := s.U32(t.In)
		out := make([]int64, len(in))
		for i, v := range in {
			out[i] = int64(v)
		}
		s.SetI64(t.out, out)
	case types.U64:
		in := s.U64(t.In)
		out := make([]int64, len(in))
		for i, v := range in {
			out[i] = int64(v)
		}
		s.SetI64(t.out, out)
	}

	return false, nil
}

// IntToFloat widens an i64 vector into f64, used by the two-phase
// aggregate normalization's final_pass division (Average = Sum / Count)
// since Sum and Count both accumulate as i64.
type IntToFloat struct {
	base

	In  buffer.Ref
	out buffer.Ref
}

var _ Operator = (*IntToFloat)(nil)

func NewIntToFloat(in, out buffer.Ref) *IntToFloat {
	return &IntToFloat{In: in, out: out}
}

func (t *IntToFloat) Inputs() []buffer.Ref  { return []buffer.Ref{t.In} }
func (t *IntToFloat) Outputs() []buffer.Ref { return []buffer.Ref{t.out} }
func (t *IntToFloat) Allocates() bool       { return true }

func (t *IntToFloat) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	in := s.I64(t.In)
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	s.SetF64(t.out, out)

	return false, nil
}

// SlicePack packs a presence bitset and a value vector into interleaved
// storage (used by codec.Nullable's decode side when both must be
// materialized together, e.g. for spilling to a merge stage).
type SlicePack struct {
	base

	Values, Presence buffer.Ref
	out              buffer.Ref
}

var _ Operator = (*SlicePack)(nil)

func NewSlicePack(values, presence, out buffer.Ref) *SlicePack {
	return &SlicePack{Values: values, Presence: presence, out: out}
}

func (sp *SlicePack) Inputs() []buffer.Ref  { return []buffer.Ref{sp.Values, sp.Presence} }
func (sp *SlicePack) Outputs() []buffer.Ref { return []buffer.Ref{sp.out} }
func (sp *SlicePack) Allocates() bool       { return true }

func (sp *SlicePack) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	values := s.I64(sp.Values)
	out := make([]int64, len(values)*2)
	for i, v := range values {
		out[2*i] = v
		if buffer.PresenceBit(s.Presence(sp.Presence), i) {
			out[2*i+1] = 1
		}
	}
	s.SetI64(sp.out, out)

	return false, nil
}

// SliceUnpack reverses SlicePack into separate value and presence buffers.
type SliceUnpack struct {
	base

	In          buffer.Ref
	outValues   buffer.Ref
	outPresence buffer.Ref
}

var _ Operator = (*SliceUnpack)(nil)

func NewSliceUnpack(in, outValues, outPresence buffer.Ref) *SliceUnpack {
	return &SliceUnpack{In: in, outValues: outValues, outPresence: outPresence}
}

func (su *SliceUnpack) Inputs() []buffer.Ref  { return []buffer.Ref{su.In} }
func (su *SliceUnpack) Outputs() []buffer.Ref { return []buffer.Ref{su.outValues, su.outPresence} }
func (su *SliceUnpack) Allocates() bool       { return true }

func (su *SliceUnpack) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	packed := s.I64(su.In)
	n := len(packed) / 2
	values := make([]int64, n)
	presence, _ := buffer.NewPresence(n)
	for i := 0; i < n; i++ {
		values[i] = packed[2*i]
		buffer.SetPresenceBit(presence, i, packed[2*i+1] != 0)
	}
	s.SetI64(su.outValues, values)
	s.SetPresence(su.outPresence, presence)

	return false, nil
}

// DeltaDecode reverses codec.Delta's encoding with a running prefix sum:
// each output element is the sum of all input elements up to and
// including it.
type DeltaDecode struct {
	base

	In  buffer.Ref
	out buffer.Ref
}

var _ Operator = (*DeltaDecode)(nil)

func NewDeltaDecode(in, out buffer.Ref) *DeltaDecode {
	return &DeltaDecode{In: in, out: out}
}

func (d *DeltaDecode) Inputs() []buffer.Ref  { return []buffer.Ref{d.In} }
func (d *DeltaDecode) Outputs() []buffer.Ref { return []buffer.Ref{d.out} }
func (d *DeltaDecode) Allocates() bool       { return true }

func (d *DeltaDecode) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	deltas := s.I64(d.In)
	out := make([]int64, len(deltas))

	var prev int64
	for i, delta := range deltas {
		prev += delta
		out[i] = prev
	}
	s.SetI64(d.out, out)

	return false, nil
}

// LZ4Decode decompresses a raw LZ4 block into its decoded byte-width
// vector, drawing its scratch buffer from the shared blob pool rather than
// allocating fresh per column.
type LZ4Decode struct {
	base

	In         []byte
	DecodedLen int
	out        buffer.Ref
}

var _ Operator = (*LZ4Decode)(nil)

func NewLZ4Decode(in []byte, decodedLen int, out buffer.Ref) *LZ4Decode {
	return &LZ4Decode{In: in, DecodedLen: decodedLen, out: out}
}

func (l *LZ4Decode) Inputs() []buffer.Ref  { return nil }
func (l *LZ4Decode) Outputs() []buffer.Ref { return []buffer.Ref{l.out} }
func (l *LZ4Decode) Allocates() bool       { return true }
func (l *LZ4Decode) IsStreamingProducer() bool { return true }

func (l *LZ4Decode) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	bb := pool.GetBlobBuffer()
	bb.Reset()
	bb.ExtendOrGrow(l.DecodedLen)

	n, err := lz4.UncompressBlock(l.In, bb.B)
	if err != nil {
		pool.PutBlobBuffer(bb)

		return false, err
	}
	s.SetU8(l.out, bb.B[:n])
	s.SetRelease(l.out, func() { pool.PutBlobBuffer(bb) })

	return false, nil
}

// zstdDecoderPool pools zstd decoders for reuse across ZstdDecode.Execute
// calls: the library is explicitly designed to be warmed up once and reused
// rather than recreated per decode.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

// ZstdDecode decompresses a Zstandard-compressed data section into its
// decoded byte-width vector, the runtime counterpart of a reserved
// compression codec op for columns too irregular for LZ4's block format.
type ZstdDecode struct {
	base

	In         []byte
	DecodedLen int
	out        buffer.Ref
}

var _ Operator = (*ZstdDecode)(nil)

func NewZstdDecode(in []byte, decodedLen int, out buffer.Ref) *ZstdDecode {
	return &ZstdDecode{In: in, DecodedLen: decodedLen, out: out}
}

func (z *ZstdDecode) Inputs() []buffer.Ref      { return nil }
func (z *ZstdDecode) Outputs() []buffer.Ref     { return []buffer.Ref{z.out} }
func (z *ZstdDecode) Allocates() bool           { return true }
func (z *ZstdDecode) IsStreamingProducer() bool { return true }

func (z *ZstdDecode) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	bb := pool.GetBlobBuffer()
	bb.Reset()
	bb.Grow(z.DecodedLen)

	dst, err := decoder.DecodeAll(z.In, bb.B[:0])
	if err != nil {
		pool.PutBlobBuffer(bb)

		return false, fmt.Errorf("zstd decode: %w", err)
	}
	s.SetU8(z.out, dst)
	s.SetRelease(z.out, func() { pool.PutBlobBuffer(bb) })

	return false, nil
}

// S2Decode decompresses an S2-compressed data section into its decoded
// byte-width vector. S2 is Snappy-compatible and favors decode throughput
// over ratio, the runtime counterpart of a reserved compression codec op for
// columns where decode latency matters more than size.
type S2Decode struct {
	base

	In         []byte
	DecodedLen int
	out        buffer.Ref
}

var _ Operator = (*S2Decode)(nil)

func NewS2Decode(in []byte, decodedLen int, out buffer.Ref) *S2Decode {
	return &S2Decode{In: in, DecodedLen: decodedLen, out: out}
}

func (z *S2Decode) Inputs() []buffer.Ref      { return nil }
func (z *S2Decode) Outputs() []buffer.Ref     { return []buffer.Ref{z.out} }
func (z *S2Decode) Allocates() bool           { return true }
func (z *S2Decode) IsStreamingProducer() bool { return true }

func (z *S2Decode) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	bb := pool.GetBlobBuffer()
	bb.Reset()
	bb.ExtendOrGrow(z.DecodedLen)

	dst, err := s2.Decode(bb.B, z.In)
	if err != nil {
		pool.PutBlobBuffer(bb)

		return false, fmt.Errorf("s2 decode: %w", err)
	}
	s.SetU8(z.out, dst)
	s.SetRelease(z.out, func() { pool.PutBlobBuffer(bb) })

	return false, nil
}

// UnpackStrings splits a flat byte heap plus an offset table into a string
// vector, the runtime counterpart of codec.UnpackStrings.
type UnpackStrings struct {
	base

	Heap    []byte
	Offsets []uint32 // n+1 entries, Offsets[i]:Offsets[i+1] bounds string i
	out     buffer.Ref
}

var _ Operator = (*UnpackStrings)(nil)

func NewUnpackStrings(heap []byte, offsets []uint32, out buffer.Ref) *UnpackStrings {
	return &UnpackStrings{Heap: heap, Offsets: offsets, out: out}
}

func (u *UnpackStrings) Inputs() []buffer.Ref  { return nil }
func (u *UnpackStrings) Outputs() []buffer.Ref { return []buffer.Ref{u.out} }
func (u *UnpackStrings) Allocates() bool       { return true }

func (u *UnpackStrings) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	n := len(u.Offsets) - 1
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = string(u.Heap[u.Offsets[i]:u.Offsets[i+1]])
	}
	s.SetStr(u.out, out)

	return false, nil
}

// UnhexpackStrings decodes a flat hex-digit byte heap (two hex characters
// per source byte, fixed TotalBytes per row) into a string vector, one hex
// string per row. Upper selects uppercase A-F digits to match source case.
type UnhexpackStrings struct {
	base

	Heap       []byte
	TotalBytes int
	Upper      bool
	out        buffer.Ref
}

var _ Operator = (*UnhexpackStrings)(nil)

func NewUnhexpackStrings(heap []byte, totalBytes int, upper bool, out buffer.Ref) *UnhexpackStrings {
	return &UnhexpackStrings{Heap: heap, TotalBytes: totalBytes, Upper: upper, out: out}
}

func (u *UnhexpackStrings) Inputs() []buffer.Ref  { return nil }
func (u *UnhexpackStrings) Outputs() []buffer.Ref { return []buffer.Ref{u.out} }
func (u *UnhexpackStrings) Allocates() bool       { return true }

func (u *UnhexpackStrings) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	digits := "0123456789abcdef"
	if u.Upper {
		digits = "0123456789ABCDEF"
	}

	n := len(u.Heap) / u.TotalBytes
	out := make([]string, n)

	scratch := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(scratch)
	scratch.Reset()
	scratch.ExtendOrGrow(u.TotalBytes * 2)
	buf := scratch.Bytes()

	for row := 0; row < n; row++ {
		chunk := u.Heap[row*u.TotalBytes : (row+1)*u.TotalBytes]
		for i, b := range chunk {
			buf[2*i] = digits[b>>4]
			buf[2*i+1] = digits[b&0x0f]
		}
		out[row] = string(buf)
	}
	s.SetStr(u.out, out)

	return false, nil
}
