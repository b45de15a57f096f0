package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/types"
)

func TestBitPack_BitUnpack_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 7, 12, 31, 17, 9, 3, 30, 22}

	var a buffer.Allocator
	in := a.Alloc(types.U32)
	packed := a.Alloc(types.U64)
	out := a.Alloc(types.U32)
	s := buffer.New(a.Len())
	s.SetU32(in, values)

	pack := NewBitPack(in, 5, packed)
	_, err := pack.Execute(s, 0)
	require.NoError(t, err)

	unpack := NewBitUnpack(packed, 5, len(values), out)
	n, ok := unpack.FixedOutputLen()
	require.True(t, ok)
	require.Equal(t, len(values), n)

	_, err = unpack.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, values, s.U32(out))
}

func TestBitPack_BitUnpack_WidthSpansWordBoundary(t *testing.T) {
	// Width 50 guarantees some values straddle a 64-bit word boundary
	// within only a few elements.
	values := []uint32{1, 2, 3, 4, 5}

	var a buffer.Allocator
	in := a.Alloc(types.U32)
	packed := a.Alloc(types.U64)
	out := a.Alloc(types.U32)
	s := buffer.New(a.Len())
	s.SetU32(in, values)

	pack := NewBitPack(in, 50, packed)
	_, err := pack.Execute(s, 0)
	require.NoError(t, err)

	unpack := NewBitUnpack(packed, 50, len(values), out)
	_, err = unpack.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, values, s.U32(out))
}
