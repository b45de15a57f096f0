package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/types"
)

func TestBuilder_AllocIssuesDistinctRefs(t *testing.T) {
	p := newFakePartition(0, map[string]*catalog.Column{})
	b := NewBuilder(p)

	r1 := b.Alloc(types.I64)
	r2 := b.Alloc(types.I64)
	require.NotEqual(t, r1, r2)
}

func TestFingerprintOf_SameCanonicalStringSameFingerprint(t *testing.T) {
	a := fingerprintOf("col:x")
	c := fingerprintOf("col:x")
	require.Equal(t, a, c)
}

func TestFingerprintOf_DifferentCanonicalStringsDiffer(t *testing.T) {
	a := fingerprintOf("col:x")
	c := fingerprintOf("col:y")
	require.NotEqual(t, a, c)
}

func TestCseKey_ColumnRefAndLiteralAreCacheable(t *testing.T) {
	_, ok := cseKey(ColumnRef{Name: "x"})
	require.True(t, ok)

	_, ok = cseKey(IntLiteral(1))
	require.True(t, ok)
}

func TestCseKey_CompareIsNotCacheable(t *testing.T) {
	_, ok := cseKey(Compare{Left: ColumnRef{Name: "x"}, Right: IntLiteral(1)})
	require.False(t, ok)
}

func TestBuilder_CheckpointResetDiscardsOperatorsAndAllocs(t *testing.T) {
	p := newFakePartition(3, map[string]*catalog.Column{"n": identityI64Column([]int64{1, 2, 3})})
	b := NewBuilder(p)

	_, err := b.Compile(ColumnRef{Name: "n"})
	require.NoError(t, err)
	require.Len(t, b.Operators(), 1)

	cp := b.checkpoint()

	_, err = b.Compile(Compare{Kind: 0, Left: ColumnRef{Name: "n"}, Right: IntLiteral(1)})
	require.NoError(t, err)
	require.Greater(t, len(b.Operators()), 1)

	b.reset(cp)
	require.Len(t, b.Operators(), 1)
}
