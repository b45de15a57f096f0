package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

func TestExecutor_RunFilterChain(t *testing.T) {
	var alloc buffer.Allocator
	colRef := alloc.Alloc(types.I64)
	maskRef := alloc.Alloc(types.U8)
	outRef := alloc.Alloc(types.I64)

	sec := catalog.Section{Encoding: types.I64, I64: []int64{1, 2, 3, 4, 5}}
	maskSec := catalog.Section{Encoding: types.U8, U8: []uint8{1, 0, 1, 0, 1}}

	colOp := ops.NewColumnSection("v", sec, colRef)
	maskOp := ops.NewColumnSection("mask", maskSec, maskRef)
	filterOp := ops.NewFilter(colRef, maskRef, outRef, types.I64)

	e := New([]ops.Operator{colOp, maskOp, filterOp}, alloc.Len(), 1024)
	err := e.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []int64{1, 3, 5}, e.Scratchpad().I64(outRef))
}

func TestExecutor_RunIsIdempotent(t *testing.T) {
	var alloc buffer.Allocator
	colRef := alloc.Alloc(types.I64)
	sec := catalog.Section{Encoding: types.I64, I64: []int64{1, 2, 3}}
	colOp := ops.NewColumnSection("v", sec, colRef)

	e := New([]ops.Operator{colOp}, alloc.Len(), 1024)
	require.NoError(t, e.Run(context.Background()))
	require.NoError(t, e.Run(context.Background()))
	require.Equal(t, []int64{1, 2, 3}, e.Scratchpad().I64(colRef))
}

func TestExecutor_RunRespectsCancellation(t *testing.T) {
	var alloc buffer.Allocator
	colRef := alloc.Alloc(types.I64)
	sec := catalog.Section{Encoding: types.I64, I64: []int64{1, 2, 3}}
	colOp := ops.NewColumnSection("v", sec, colRef)

	e := New([]ops.Operator{colOp}, alloc.Len(), 1024)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Run(ctx)
	require.Error(t, err)
}
