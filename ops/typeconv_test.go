package ops

import (
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/types"
)

func TestTypeConversion_WidensEveryNarrowWidth(t *testing.T) {
	cases := []struct {
		name string
		enc  types.Encoding
		set  func(s *buffer.Scratchpad, r buffer.Ref)
		want []int64
	}{
		{"u8", types.U8, func(s *buffer.Scratchpad, r buffer.Ref) { s.SetU8(r, []uint8{1, 2, 255}) }, []int64{1, 2, 255}},
		{"u16", types.U16, func(s *buffer.Scratchpad, r buffer.Ref) { s.SetU16(r, []uint16{1, 2, 65535}) }, []int64{1, 2, 65535}},
		{"u32", types.U32, func(s *buffer.Scratchpad, r buffer.Ref) { s.SetU32(r, []uint32{7}) }, []int64{7}},
		{"u64", types.U64, func(s *buffer.Scratchpad, r buffer.Ref) { s.SetU64(r, []uint64{9}) }, []int64{9}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var a buffer.Allocator
			in := a.Alloc(c.enc)
			out := a.Alloc(types.I64)
			s := buffer.New(a.Len())
			c.set(s, in)

			op := NewTypeConversion(in, out)
			_, err := op.Execute(s, 0)
			require.NoError(t, err)
			require.Equal(t, c.want, s.I64(out))
		})
	}
}

func TestIntToFloat_Widens(t *testing.T) {
	var a buffer.Allocator
	in := a.Alloc(types.I64)
	out := a.Alloc(types.F64)
	s := buffer.New(a.Len())
	s.SetI64(in, []int64{1, -2, 3})

	op := NewIntToFloat(in, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, -2, 3}, s.F64(out))
}

func TestSlicePack_SliceUnpack_RoundTrip(t *testing.T) {
	var a buffer.Allocator
	values := a.Alloc(types.I64)
	presenceRef := a.Alloc(types.ByteVec)
	packed := a.Alloc(types.I64)
	outValues := a.Alloc(types.I64)
	outPresence := a.Alloc(types.ByteVec)

	s := buffer.New(a.Len())
	s.SetI64(values, []int64{10, 20, 30})
	presence, _ := buffer.NewPresence(3)
	buffer.SetPresenceBit(presence, 1, false)
	s.SetPresence(presenceRef, presence)

	pack := NewSlicePack(values, presenceRef, packed)
	_, err := pack.Execute(s, 0)
	require.NoError(t, err)

	unpack := NewSliceUnpack(packed, outValues, outPresence)
	_, err = unpack.Execute(s, 0)
	require.NoError(t, err)

	require.Equal(t, []int64{10, 20, 30}, s.I64(outValues))
	require.True(t, buffer.PresenceBit(s.Presence(outPresence), 0))
	require.False(t, buffer.PresenceBit(s.Presence(outPresence), 1))
	require.True(t, buffer.PresenceBit(s.Presence(outPresence), 2))
}

func TestDeltaDecode_ReconstructsRunningSum(t *testing.T) {
	var a buffer.Allocator
	in := a.Alloc(types.I64)
	out := a.Alloc(types.I64)
	s := buffer.New(a.Len())
	s.SetI64(in, []int64{5, -2, 3, 0})

	op := NewDeltaDecode(in, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 3, 6, 6}, s.I64(out))
}

func TestLZ4Decode_RoundTripsCompressedBlock(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog the quick brown fox")
	dst := make([]byte, len(src))
	hashTable := make([]int, 1<<16)
	n, err := lz4.CompressBlock(src, dst, hashTable)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	var a buffer.Allocator
	out := a.Alloc(types.ByteVec)
	s := buffer.New(a.Len())

	op := NewLZ4Decode(dst[:n], len(src), out)
	require.Nil(t, op.Inputs())
	require.True(t, op.IsStreamingProducer())

	_, err = op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, src, []byte(s.U8(out)))
}

func TestZstdDecode_RoundTripsCompressedBlock(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog the quick brown fox")

	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := encoder.EncodeAll(src, nil)
	require.NoError(t, encoder.Close())

	var a buffer.Allocator
	out := a.Alloc(types.ByteVec)
	s := buffer.New(a.Len())

	op := NewZstdDecode(compressed, len(src), out)
	require.Nil(t, op.Inputs())
	require.True(t, op.IsStreamingProducer())

	_, err = op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, src, []byte(s.U8(out)))
}

func TestS2Decode_RoundTripsCompressedBlock(t *testing.T) {
	src := []byte("the quick brown fox jumps over the lazy dog the quick brown fox")
	compressed := s2.Encode(nil, src)

	var a buffer.Allocator
	out := a.Alloc(types.ByteVec)
	s := buffer.New(a.Len())

	op := NewS2Decode(compressed, len(src), out)
	require.Nil(t, op.Inputs())
	require.True(t, op.IsStreamingProducer())

	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, src, []byte(s.U8(out)))
}

func TestUnpackStrings_SplitsHeapByOffsets(t *testing.T) {
	heap := []byte("foobarbaz")
	offsets := []uint32{0, 3, 6, 9}

	var a buffer.Allocator
	out := a.Alloc(types.Str)
	s := buffer.New(a.Len())

	op := NewUnpackStrings(heap, offsets, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "bar", "baz"}, s.Str(out))
}

func TestUnhexpackStrings_LowercaseAndUppercase(t *testing.T) {
	heap := []byte{0xAB, 0xCD, 0x01, 0x23}

	var a buffer.Allocator
	outLower := a.Alloc(types.Str)
	sLower := buffer.New(a.Len())
	lower := NewUnhexpackStrings(heap, 2, false, outLower)
	_, err := lower.Execute(sLower, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"abcd", "0123"}, sLower.Str(outLower))

	var a2 buffer.Allocator
	outUpper := a2.Alloc(types.Str)
	sUpper := buffer.New(a2.Len())
	upper := NewUnhexpackStrings(heap, 2, true, outUpper)
	_, err = upper.Execute(sUpper, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"ABCD", "0123"}, sUpper.Str(outUpper))
}
