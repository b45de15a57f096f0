package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/plan"
)

func TestMergeAggregated_SumsSharedKeys(t *testing.T) {
	a := QueryOutput{Keys: IntColumn([]int64{1, 2}), Values: []Column{IntColumn([]int64{10, 20})}, Merge: []plan.MergeKind{plan.MergeSum}}
	b := QueryOutput{Keys: IntColumn([]int64{2, 3}), Values: []Column{IntColumn([]int64{5, 7})}, Merge: []plan.MergeKind{plan.MergeSum}}

	out := mergeAggregated(a, b)
	require.Equal(t, []int64{1, 2, 3}, out.Keys.Ints)
	require.Equal(t, []int64{10, 25, 7}, out.Values[0].Ints)
}

func TestMergeAggregated_RespectsMinAndMaxMergeKinds(t *testing.T) {
	a := QueryOutput{
		Keys:   IntColumn([]int64{1, 2}),
		Values: []Column{IntColumn([]int64{10, 99}), IntColumn([]int64{3, 7})},
		Merge:  []plan.MergeKind{plan.MergeMin, plan.MergeMax},
	}
	b := QueryOutput{
		Keys:   IntColumn([]int64{1, 3}),
		Values: []Column{IntColumn([]int64{4, 1}), IntColumn([]int64{9, 2})},
		Merge:  []plan.MergeKind{plan.MergeMin, plan.MergeMax},
	}

	out := mergeAggregated(a, b)
	require.Equal(t, []int64{1, 2, 3}, out.Keys.Ints)
	require.Equal(t, []int64{4, 99, 1}, out.Values[0].Ints, "min(10,4)=4, key 2 only on a, key 3 only on b")
	require.Equal(t, []int64{9, 7, 2}, out.Values[1].Ints, "max(3,9)=9")
}

func TestMergeAggregated_StringKeyedGroupByMergesOnRealValue(t *testing.T) {
	// Two partitions each assign their own dense, first-seen group ids, so
	// partition A's id 0 ("US") and partition B's id 0 ("FR") are unrelated
	// keys that merely happen to share an id. Merging on the real string
	// key (as extracted from each partition's grouping operator) rather
	// than on that id is what makes this combine correctly instead of
	// conflating the two countries.
	a := QueryOutput{Keys: StringColumn([]string{"FR", "US"}), Values: []Column{IntColumn([]int64{2, 1})}, Merge: []plan.MergeKind{plan.MergeSum}}
	b := QueryOutput{Keys: StringColumn([]string{"DE", "FR"}), Values: []Column{IntColumn([]int64{1, 1})}, Merge: []plan.MergeKind{plan.MergeSum}}

	out := mergeAggregated(a, b)
	require.Equal(t, []string{"DE", "FR", "US"}, out.Keys.Strs)
	require.Equal(t, []int64{1, 3, 1}, out.Values[0].Ints)
}

func TestMergeSorted_Interleaves(t *testing.T) {
	a := QueryOutput{Keys: IntColumn([]int64{1, 3, 5}), Values: []Column{IntColumn([]int64{1, 1, 1})}}
	b := QueryOutput{Keys: IntColumn([]int64{2, 4}), Values: []Column{IntColumn([]int64{2, 2})}}

	out := mergeSorted(a, b)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, out.Keys.Ints)
}

func TestMergeSorted_DescendingFloatKeyed(t *testing.T) {
	a := QueryOutput{Keys: FloatColumn([]float64{5, 3, 1}), Values: []Column{StringColumn([]string{"e", "c", "a"})}, Descending: true}
	b := QueryOutput{Keys: FloatColumn([]float64{4, 2}), Values: []Column{StringColumn([]string{"d", "b"})}, Descending: true}

	out := mergeSorted(a, b)
	require.Equal(t, []float64{5, 4, 3, 2, 1}, out.Keys.Floats)
	require.Equal(t, []string{"e", "d", "c", "b", "a"}, out.Values[0].Strs)
}

func TestMergeUnsorted_Concatenates(t *testing.T) {
	a := QueryOutput{Keys: IntColumn([]int64{3, 1}), Values: []Column{IntColumn([]int64{1, 1})}}
	b := QueryOutput{Keys: IntColumn([]int64{2}), Values: []Column{IntColumn([]int64{1})}}

	out := mergeUnsorted(a, b)
	require.Equal(t, []int64{3, 1, 2}, out.Keys.Ints)
}

func TestCombine_LimitTruncates(t *testing.T) {
	a := QueryOutput{Keys: IntColumn([]int64{1, 3, 5}), Values: []Column{IntColumn([]int64{1, 1, 1})}}
	b := QueryOutput{Keys: IntColumn([]int64{2, 4}), Values: []Column{IntColumn([]int64{2, 2})}}

	out := combine(a, b, ShapeSorted, 3)
	require.Equal(t, []int64{1, 2, 3}, out.Keys.Ints)
}

func TestTournamentMerge_AggregatedAcrossManyPartitions(t *testing.T) {
	outputs := []QueryOutput{
		{Keys: IntColumn([]int64{1}), Values: []Column{IntColumn([]int64{1})}, Merge: []plan.MergeKind{plan.MergeSum}},
		{Keys: IntColumn([]int64{1}), Values: []Column{IntColumn([]int64{1})}, Merge: []plan.MergeKind{plan.MergeSum}},
		{Keys: IntColumn([]int64{2}), Values: []Column{IntColumn([]int64{1})}, Merge: []plan.MergeKind{plan.MergeSum}},
		{Keys: IntColumn([]int64{1}), Values: []Column{IntColumn([]int64{1})}, Merge: []plan.MergeKind{plan.MergeSum}},
		{Keys: IntColumn([]int64{3}), Values: []Column{IntColumn([]int64{1})}, Merge: []plan.MergeKind{plan.MergeSum}},
	}

	result, stages := TournamentMerge(outputs, ShapeAggregated, 0)
	require.Equal(t, []int64{1, 2, 3}, result.Keys.Ints)
	require.Equal(t, []int64{3, 1, 1}, result.Values[0].Ints)
	require.Greater(t, stages, 0)
}

func TestTournamentMerge_EmptyInput(t *testing.T) {
	result, stages := TournamentMerge(nil, ShapeAggregated, 0)
	require.Equal(t, 0, result.Len())
	require.Equal(t, 0, stages)
}

func TestTournamentMerge_SingleInput(t *testing.T) {
	outputs := []QueryOutput{{Keys: IntColumn([]int64{1, 2}), Values: []Column{IntColumn([]int64{1, 1})}}}
	result, _ := TournamentMerge(outputs, ShapeSorted, 0)
	require.Equal(t, []int64{1, 2}, result.Keys.Ints)
}

// TestAggregationAssociativity asserts that combining a GROUP BY result in
// any association of partition groupings yields the same final values —
// ((p1+p2)+p3) must equal (p1+(p2+p3)) — the property the real-key, per-
// column-kind merge above is required to preserve.
func TestAggregationAssociativity(t *testing.T) {
	p1 := QueryOutput{Keys: IntColumn([]int64{1, 2}), Values: []Column{IntColumn([]int64{10, 20})}, Merge: []plan.MergeKind{plan.MergeSum}}
	p2 := QueryOutput{Keys: IntColumn([]int64{2, 3}), Values: []Column{IntColumn([]int64{5, 7})}, Merge: []plan.MergeKind{plan.MergeSum}}
	p3 := QueryOutput{Keys: IntColumn([]int64{1, 3}), Values: []Column{IntColumn([]int64{1, 2})}, Merge: []plan.MergeKind{plan.MergeSum}}

	left := combine(combine(p1, p2, ShapeAggregated, 0), p3, ShapeAggregated, 0)
	right := combine(p1, combine(p2, p3, ShapeAggregated, 0), ShapeAggregated, 0)

	require.Equal(t, left.Keys.Ints, right.Keys.Ints)
	require.Equal(t, left.Values[0].Ints, right.Values[0].Ints)
	require.Equal(t, []int64{1, 2, 3}, left.Keys.Ints)
	require.Equal(t, []int64{11, 25, 9}, left.Values[0].Ints)
}

// TestStableSortTournament asserts that folding the same set of already-
// sorted partitions through the tournament merge in a different pairing
// order still produces one globally sorted sequence (property 4: a stable
// merge's output order depends only on key values, not fan-in shape).
func TestStableSortTournament(t *testing.T) {
	outputs := []QueryOutput{
		{Keys: IntColumn([]int64{5, 9})},
		{Keys: IntColumn([]int64{1, 4})},
		{Keys: IntColumn([]int64{2, 8})},
		{Keys: IntColumn([]int64{3, 6, 7})},
	}

	result, _ := TournamentMerge(outputs, ShapeSorted, 0)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, result.Keys.Ints)
}
