package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

func TestCompileAggregate_SumEmitsSingleMainRef(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)
	groupKey := b.Alloc(types.GroupKey)

	res, err := b.CompileAggregate(Aggregate{Kind: AggSum, X: ColumnRef{Name: "n"}}, groupKey, 2)
	require.NoError(t, err)
	require.Equal(t, types.I64, res.Main.Encoding())
	require.False(t, res.CountForAverage.Valid())
}

func TestCompileAggregate_ExistsUsesGroupKeyDirectly(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)
	groupKey := b.Alloc(types.GroupKey)

	res, err := b.CompileAggregate(Aggregate{Kind: AggExists}, groupKey, 2)
	require.NoError(t, err)
	require.Equal(t, types.U8, res.Main.Encoding())

	operators := b.Operators()
	_, ok := operators[len(operators)-1].(*ops.Exists)
	require.True(t, ok)
}

func TestCompileAggregate_AverageExpandsToSumAndCount(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)
	groupKey := b.Alloc(types.GroupKey)

	res, err := b.CompileAggregate(Aggregate{Kind: AggAverage, X: ColumnRef{Name: "n"}}, groupKey, 2)
	require.NoError(t, err)
	require.Equal(t, AggAverage, res.Kind)
	require.True(t, res.CountForAverage.Valid())

	var sawSum, sawCount bool
	for _, op := range b.Operators() {
		agg, ok := op.(*ops.Aggregate)
		if !ok {
			continue
		}
		switch agg.Kind {
		case ops.AggSum:
			sawSum = true
		case ops.AggCount:
			sawCount = true
		}
	}
	require.True(t, sawSum)
	require.True(t, sawCount)
}
