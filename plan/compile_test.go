package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/codec"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

func identityI64Column(values []int64) *catalog.Column {
	return &catalog.Column{
		Name:     "n",
		Length:   len(values),
		Sections: []catalog.Section{{Encoding: types.I64, I64: values}},
		Codec:    codec.New(),
		Basic:    types.BasicInteger,
	}
}

func identityF64Column(values []float64) *catalog.Column {
	return &catalog.Column{
		Name:     "f",
		Length:   len(values),
		Sections: []catalog.Section{{Encoding: types.F64, F64: values}},
		Codec:    codec.New(),
		Basic:    types.BasicFloat,
	}
}

func deltaI64Column(deltas []int64) *catalog.Column {
	return &catalog.Column{
		Name:     "n",
		Length:   len(deltas),
		Sections: []catalog.Section{{Encoding: types.I64, I64: deltas}},
		Codec:    codec.New(codec.Delta{Width: types.I64}),
		Basic:    types.BasicInteger,
	}
}

func strColumn(values []string) *catalog.Column {
	return &catalog.Column{
		Name:     "s",
		Length:   len(values),
		Sections: []catalog.Section{{Encoding: types.Str, Str: values}},
		Codec:    codec.New(),
		Basic:    types.BasicString,
	}
}

func TestCompile_ColumnRef_Identity(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)

	ref, err := b.Compile(ColumnRef{Name: "n"})
	require.NoError(t, err)
	require.Equal(t, types.I64, ref.Encoding())
	require.Len(t, b.Operators(), 1)
}

func compressedByteColumn(codecOp codec.Op, compressed []byte) *catalog.Column {
	return &catalog.Column{
		Name:     "c",
		Length:   1,
		Sections: []catalog.Section{{Encoding: types.ByteVec, U8: compressed}},
		Codec:    codec.New(codecOp),
		Basic:    types.BasicInteger,
	}
}

func TestCompile_ColumnRef_LZ4CodecAppliesLZ4DecodeOp(t *testing.T) {
	p := newFakePartition(1, map[string]*catalog.Column{
		"c": compressedByteColumn(codec.LZ4{Width: types.ByteVec, DecodedLen: 4}, []byte{0, 1, 2, 3}),
	})
	b := NewBuilder(p)

	_, err := b.Compile(ColumnRef{Name: "c"})
	require.NoError(t, err)

	var sawLZ4Decode bool
	for _, op := range b.Operators() {
		if _, ok := op.(*ops.LZ4Decode); ok {
			sawLZ4Decode = true
		}
	}
	require.True(t, sawLZ4Decode)
}

func TestCompile_ColumnRef_ZstdCodecAppliesZstdDecodeOp(t *testing.T) {
	p := newFakePartition(1, map[string]*catalog.Column{
		"c": compressedByteColumn(codec.Zstd{Width: types.ByteVec, DecodedLen: 4}, []byte{0, 1, 2, 3}),
	})
	b := NewBuilder(p)

	_, err := b.Compile(ColumnRef{Name: "c"})
	require.NoError(t, err)

	var sawZstdDecode bool
	for _, op := range b.Operators() {
		if _, ok := op.(*ops.ZstdDecode); ok {
			sawZstdDecode = true
		}
	}
	require.True(t, sawZstdDecode)
}

func TestCompile_ColumnRef_S2CodecAppliesS2DecodeOp(t *testing.T) {
	p := newFakePartition(1, map[string]*catalog.Column{
		"c": compressedByteColumn(codec.S2{Width: types.ByteVec, DecodedLen: 4}, []byte{0, 1, 2, 3}),
	})
	b := NewBuilder(p)

	_, err := b.Compile(ColumnRef{Name: "c"})
	require.NoError(t, err)

	var sawS2Decode bool
	for _, op := range b.Operators() {
		if _, ok := op.(*ops.S2Decode); ok {
			sawS2Decode = true
		}
	}
	require.True(t, sawS2Decode)
}

func TestCompile_ColumnRef_NotFound(t *testing.T) {
	p := newFakePartition(0, map[string]*catalog.Column{})
	b := NewBuilder(p)

	_, err := b.Compile(ColumnRef{Name: "missing"})
	require.Error(t, err)
}

func TestCompile_ColumnRef_DeltaCodecAppliesDeltaDecodeOp(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": deltaI64Column([]int64{5, -2, 3})})
	b := NewBuilder(p)

	_, err := b.Compile(ColumnRef{Name: "n"})
	require.NoError(t, err)

	var sawDeltaDecode bool
	for _, op := range b.Operators() {
		if _, ok := op.(*ops.DeltaDecode); ok {
			sawDeltaDecode = true
		}
	}
	require.True(t, sawDeltaDecode)
}

func TestCompile_CSE_SameColumnRefCompilesOnce(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)

	ref1, err := b.Compile(ColumnRef{Name: "n"})
	require.NoError(t, err)
	ref2, err := b.Compile(ColumnRef{Name: "n"})
	require.NoError(t, err)

	require.Equal(t, ref1, ref2)
	require.Len(t, b.Operators(), 1)
}

func TestCompile_Compare_DecodesBothSidesWhenNotPushdownEligible(t *testing.T) {
	p := newFakePartition(2, map[string]*catalog.Column{"s": strColumn([]string{"a", "b"})})
	b := NewBuilder(p)

	ref, err := b.Compile(Compare{Kind: ops.Equals, Left: ColumnRef{Name: "s"}, Right: StrLiteral("a")})
	require.NoError(t, err)
	require.Equal(t, types.U8, ref.Encoding())
}

func TestCompile_Arith_Add(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)

	ref, err := b.Compile(Arith{Kind: ops.ArithAdd, Left: ColumnRef{Name: "n"}, Right: IntLiteral(10)})
	require.NoError(t, err)
	require.Equal(t, types.I64, ref.Encoding())
}

func TestCompile_Boolean_AndMutatesLeftRef(t *testing.T) {
	p := newFakePartition(2, map[string]*catalog.Column{
		"a": identityI64Column([]int64{1, 2}),
		"b": identityI64Column([]int64{3, 4}),
	})
	b := NewBuilder(p)

	left := Compare{Kind: ops.Equals, Left: ColumnRef{Name: "a"}, Right: IntLiteral(1)}
	right := Compare{Kind: ops.Equals, Left: ColumnRef{Name: "b"}, Right: IntLiteral(3)}

	ref, err := b.Compile(And{Left: left, Right: right})
	require.NoError(t, err)

	operators := b.Operators()
	boolOp, ok := operators[len(operators)-1].(*ops.Boolean)
	require.True(t, ok)
	require.Equal(t, ops.BoolAnd, boolOp.Kind)
	require.Equal(t, boolOp.Left, ref)
}

func TestCompile_RegexMatch_InvalidPatternErrors(t *testing.T) {
	p := newFakePartition(1, map[string]*catalog.Column{"s": strColumn([]string{"a"})})
	b := NewBuilder(p)

	_, err := b.Compile(RegexMatch{X: ColumnRef{Name: "s"}, Pattern: "("})
	require.Error(t, err)
}

func TestCompile_ToYear(t *testing.T) {
	p := newFakePartition(1, map[string]*catalog.Column{"n": identityI64Column([]int64{0})})
	b := NewBuilder(p)

	ref, err := b.Compile(ToYear{X: ColumnRef{Name: "n"}})
	require.NoError(t, err)
	require.Equal(t, types.I64, ref.Encoding())
}

func TestCompile_UnhandledExprTypeIsNotImplemented(t *testing.T) {
	p := newFakePartition(0, map[string]*catalog.Column{})
	b := NewBuilder(p)

	_, err := b.Compile(unknownExpr{})
	require.Error(t, err)
}

type unknownExpr struct{}

func (unknownExpr) exprNode() {}
