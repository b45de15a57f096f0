package ops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/errs"
	"github.com/cswinter/locustdb-go/types"
)

func TestArithmetic_VectorVectorAdd(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	right := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{1, 2, 3})
	s.SetI64(right, []int64{10, 20, 30})

	op := NewArithmetic(ArithAdd, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{11, 22, 33}, s.I64(out))
}

func TestArithmetic_ScalarRightSubtract(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{5, 10})

	scalar := buffer.ScalarInt(3)
	op := NewArithmetic(ArithSubtract, left, buffer.Ref{}, nil, &scalar, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 7}, s.I64(out))
}

func TestArithmetic_DivideByZeroTraps(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	right := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{10})
	s.SetI64(right, []int64{0})

	op := NewArithmetic(ArithDivide, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrDivideByZero)
}

func TestArithmetic_ModuloByZeroTraps(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	right := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{10})
	s.SetI64(right, []int64{0})

	op := NewArithmetic(ArithModulo, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.ErrorIs(t, err, errs.ErrDivideByZero)
}

func TestArithmetic_AddOverflowTraps(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	right := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{math.MaxInt64})
	s.SetI64(right, []int64{1})

	op := NewArithmetic(ArithAdd, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.ErrorIs(t, err, errs.ErrOverflow)
}

func TestArithmetic_MultiplyOverflowTraps(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	right := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{math.MaxInt64})
	s.SetI64(right, []int64{2})

	op := NewArithmetic(ArithMultiply, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.ErrorIs(t, err, errs.ErrOverflow)
}

func TestArithmetic_MultiplyByZeroShortCircuits(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.I64)
	right := a.Alloc(types.I64)
	out := a.Alloc(types.I64)

	s := buffer.New(a.Len())
	s.SetI64(left, []int64{math.MaxInt64})
	s.SetI64(right, []int64{0})

	op := NewArithmetic(ArithMultiply, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, s.I64(out))
}

func TestArithmetic_BothScalarIsTypeError(t *testing.T) {
	var a buffer.Allocator
	out := a.Alloc(types.I64)
	s := buffer.New(a.Len())

	ls := buffer.ScalarInt(1)
	rs := buffer.ScalarInt(2)
	op := NewArithmetic(ArithAdd, buffer.Ref{}, buffer.Ref{}, &ls, &rs, out)
	_, err := op.Execute(s, 0)
	require.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestFloatArithmetic_DivideByZeroIsInfNotError(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.F64)
	right := a.Alloc(types.F64)
	out := a.Alloc(types.F64)

	s := buffer.New(a.Len())
	s.SetF64(left, []float64{1.0})
	s.SetF64(right, []float64{0.0})

	op := NewFloatArithmetic(ArithDivide, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.True(t, math.IsInf(s.F64(out)[0], 1))
}

func TestFloatArithmetic_Modulo(t *testing.T) {
	var a buffer.Allocator
	left := a.Alloc(types.F64)
	right := a.Alloc(types.F64)
	out := a.Alloc(types.F64)

	s := buffer.New(a.Len())
	s.SetF64(left, []float64{5.5})
	s.SetF64(right, []float64{2.0})

	op := NewFloatArithmetic(ArithModulo, left, right, nil, nil, out)
	_, err := op.Execute(s, 0)
	require.NoError(t, err)
	require.InDelta(t, 1.5, s.F64(out)[0], 1e-9)
}
