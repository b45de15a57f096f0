package query

import "github.com/cswinter/locustdb-go/plan"

// ValueKind tags which of Column's three slices actually carries that
// Column's data — the cross-partition merge's counterpart of a
// buffer.Ref's Encoding, since by the time a result reaches this package
// the Scratchpad it came from has already been torn down.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
)

// Column is one extracted, plain-Go result column: a group key or an
// ORDER BY/projection value, or an aggregate's merge-ready contribution.
// Exactly one of Ints/Floats/Strs is populated, selected by Kind — this
// lets the merge logic below work uniformly over the int, float, and
// string columns a query can produce (S2's string GROUP BY key, S4's
// string_packed/float projection) instead of assuming every column is an
// int64, which silently corrupted string and float results.
type Column struct {
	Kind   ValueKind
	Ints   []int64
	Floats []float64
	Strs   []string
}

func IntColumn(v []int64) Column      { return Column{Kind: KindInt, Ints: v} }
func FloatColumn(v []float64) Column  { return Column{Kind: KindFloat, Floats: v} }
func StringColumn(v []string) Column  { return Column{Kind: KindString, Strs: v} }

func (c Column) Len() int {
	switch c.Kind {
	case KindFloat:
		return len(c.Floats)
	case KindString:
		return len(c.Strs)
	default:
		return len(c.Ints)
	}
}

func (c Column) less(i int, o Column, j int) bool {
	switch c.Kind {
	case KindFloat:
		return c.Floats[i] < o.Floats[j]
	case KindString:
		return c.Strs[i] < o.Strs[j]
	default:
		return c.Ints[i] < o.Ints[j]
	}
}

func (c Column) greater(i int, o Column, j int) bool {
	switch c.Kind {
	case KindFloat:
		return c.Floats[i] > o.Floats[j]
	case KindString:
		return c.Strs[i] > o.Strs[j]
	default:
		return c.Ints[i] > o.Ints[j]
	}
}

func (c Column) equal(i int, o Column, j int) bool {
	switch c.Kind {
	case KindFloat:
		return c.Floats[i] == o.Floats[j]
	case KindString:
		return c.Strs[i] == o.Strs[j]
	default:
		return c.Ints[i] == o.Ints[j]
	}
}

func newColumnLike(c Column, capacity int) Column {
	switch c.Kind {
	case KindFloat:
		return Column{Kind: KindFloat, Floats: make([]float64, 0, capacity)}
	case KindString:
		return Column{Kind: KindString, Strs: make([]string, 0, capacity)}
	default:
		return Column{Kind: KindInt, Ints: make([]int64, 0, capacity)}
	}
}

func (c *Column) appendFrom(src Column, i int) {
	switch c.Kind {
	case KindFloat:
		c.Floats = append(c.Floats, src.Floats[i])
	case KindString:
		c.Strs = append(c.Strs, src.Strs[i])
	default:
		c.Ints = append(c.Ints, src.Ints[i])
	}
}

func (c *Column) truncate(n int) {
	switch c.Kind {
	case KindFloat:
		c.Floats = c.Floats[:n]
	case KindString:
		c.Strs = c.Strs[:n]
	default:
		c.Ints = c.Ints[:n]
	}
}

// mergeSumInto adds o's element j into c's element i in place — valid only
// for KindInt/KindFloat columns (a Sum/Count aggregate's merge-ready
// contribution is never string-typed).
func (c *Column) mergeSumInto(i int, o Column, j int) {
	switch c.Kind {
	case KindFloat:
		c.Floats[i] += o.Floats[j]
	default:
		c.Ints[i] += o.Ints[j]
	}
}

func (c *Column) mergeMinInto(i int, o Column, j int) {
	switch c.Kind {
	case KindFloat:
		if o.Floats[j] < c.Floats[i] {
			c.Floats[i] = o.Floats[j]
		}
	default:
		if o.Ints[j] < c.Ints[i] {
			c.Ints[i] = o.Ints[j]
		}
	}
}

func (c *Column) mergeMaxInto(i int, o Column, j int) {
	switch c.Kind {
	case KindFloat:
		if o.Floats[j] > c.Floats[i] {
			c.Floats[i] = o.Floats[j]
		}
	default:
		if o.Ints[j] > c.Ints[i] {
			c.Ints[i] = o.Ints[j]
		}
	}
}

// mergeInto folds o's element j into c's element i in place, per kind —
// the per-aggregator semantics a GROUP BY merge must respect instead of
// unconditionally summing, since a Min/Max aggregate merged by addition
// produces a meaningless result.
func (c *Column) mergeInto(kind plan.MergeKind, i int, o Column, j int) {
	switch kind {
	case plan.MergeMin:
		c.mergeMinInto(i, o, j)
	case plan.MergeMax:
		c.mergeMaxInto(i, o, j)
	default:
		c.mergeSumInto(i, o, j)
	}
}

// QueryShape selects which combine() strategy a tournament merge applies
// at each pairing, mirroring the three result shapes a compiled
// plan.Plan can produce (see plan.Query: GroupBy+Aggregates, a bare
// Projection with ORDER BY, or a bare unsorted Projection).
type QueryShape uint8

const (
	ShapeAggregated QueryShape = iota
	ShapeSorted
	ShapeUnsortedSelect
)

// QueryOutput is one partition's (or one merge stage's) materialized
// result: a key column plus parallel value columns, already extracted
// from a Scratchpad — the tournament merge operates on these plain
// columns rather than on buffer.Ref, since cross-partition merging
// happens after each partition's own Executor (and its Scratchpad) has
// already run to completion and been torn down.
type QueryOutput struct {
	Keys   Column
	Values []Column
	// Merge parallels Values and is consulted only under ShapeAggregated:
	// it is the plan.Plan's OutputMerge, copied onto every extracted
	// QueryOutput so mergeAggregated can apply each column's own
	// aggregator semantics instead of assuming every column sums.
	Merge []plan.MergeKind
	// Descending reverses key ordering comparisons under ShapeSorted,
	// matching an ORDER BY ... DESC query (S4).
	Descending bool
}

func (o QueryOutput) Len() int { return o.Keys.Len() }

// combine folds b into a according to shape, optionally truncating the
// result to limit rows (limit <= 0 means unlimited) — the tournament
// merge's per-pair combinator.
func combine(a, b QueryOutput, shape QueryShape, limit int) QueryOutput {
	var out QueryOutput
	switch shape {
	case ShapeAggregated:
		out = mergeAggregated(a, b)
	case ShapeSorted:
		out = mergeSorted(a, b)
	default:
		out = mergeUnsorted(a, b)
	}

	if limit > 0 && out.Len() > limit {
		out.Keys.truncate(limit)
		for i := range out.Values {
			out.Values[i].truncate(limit)
		}
	}

	return out
}

func newOutputLike(a QueryOutput, capacity int) QueryOutput {
	out := QueryOutput{
		Keys:       newColumnLike(a.Keys, capacity),
		Values:     make([]Column, len(a.Values)),
		Merge:      a.Merge,
		Descending: a.Descending,
	}
	for i := range out.Values {
		out.Values[i] = newColumnLike(a.Values[i], capacity)
	}

	return out
}

// mergeAggregated folds a key present in both a and b (sorted ascending
// by Keys) using each value column's own plan.MergeKind — the aggregated
// query shape's combine(). Keys are real group-key values (strings or
// ints reconstructed from a partition's grouping operator), not the
// dense, partition-local group ids a GROUP BY assigns internally: two
// partitions' group id 0 names unrelated keys, so merging by id rather
// than value would silently combine the wrong groups.
func mergeAggregated(a, b QueryOutput) QueryOutput {
	if out, ok := mergeAggregatedFastPath(a, b); ok {
		return out
	}

	out := newOutputLike(a, a.Len()+b.Len())

	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		switch {
		case a.Keys.equal(i, b.Keys, j):
			out.Keys.appendFrom(a.Keys, i)
			for k := range out.Values {
				out.Values[k].appendFrom(a.Values[k], i)
				kind := plan.MergeSum
				if k < len(a.Merge) {
					kind = a.Merge[k]
				}
				out.Values[k].mergeInto(kind, out.Values[k].Len()-1, b.Values[k], j)
			}
			i++
			j++
		case a.Keys.less(i, b.Keys, j):
			appendRow(&out, a, i)
			i++
		default:
			appendRow(&out, b, j)
			j++
		}
	}
	for ; i < a.Len(); i++ {
		appendRow(&out, a, i)
	}
	for ; j < b.Len(); j++ {
		appendRow(&out, b, j)
	}

	return out
}

// mergeSorted interleaves two already-sorted result sets by key, the
// sorted-projection query shape's combine() — equivalent to ops.Merge but
// operating post-execution across partitions rather than within one.
func mergeSorted(a, b QueryOutput) QueryOutput {
	if out, ok := mergeSortedFastPath(a, b); ok {
		return out
	}

	out := newOutputLike(a, a.Len()+b.Len())

	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		bFirst := a.Keys.greater(i, b.Keys, j)
		if a.Descending {
			bFirst = a.Keys.less(i, b.Keys, j)
		}
		if bFirst {
			appendRow(&out, b, j)
			j++
		} else {
			appendRow(&out, a, i)
			i++
		}
	}
	for ; i < a.Len(); i++ {
		appendRow(&out, a, i)
	}
	for ; j < b.Len(); j++ {
		appendRow(&out, b, j)
	}

	return out
}

// mergeUnsorted concatenates two unordered result sets, the plain
// unsorted-select query shape's combine() — row order carries no meaning,
// so no interleaving is needed, only a LIMIT truncation by the caller.
func mergeUnsorted(a, b QueryOutput) QueryOutput {
	out := newOutputLike(a, a.Len()+b.Len())
	for i := 0; i < a.Len(); i++ {
		appendRow(&out, a, i)
	}
	for j := 0; j < b.Len(); j++ {
		appendRow(&out, b, j)
	}

	return out
}

func appendRow(out *QueryOutput, src QueryOutput, i int) {
	out.Keys.appendFrom(src.Keys, i)
	for k := range out.Values {
		out.Values[k].appendFrom(src.Values[k], i)
	}
}

// tournamentLevel pairs a partial merge result with the number of leaf
// partitions folded into it, the stack-based tournament merge's
// bookkeeping unit.
type tournamentLevel struct {
	level  int
	result QueryOutput
}

// TournamentMerge folds a stream of per-partition QueryOutputs into one
// combined result using a stack-based, equal-level pairing scheme: two
// adjacent stack entries at the same level are combined into one entry at
// level+1 as soon as both are available, keeping the merge tree balanced
// (depth O(log n)) without needing to know the total partition count in
// advance. limit (<= 0 for unlimited) is passed to every combine step,
// which truncates its result to limit rows; every output is merged and
// no partition is skipped.
func TournamentMerge(outputs []QueryOutput, shape QueryShape, limit int) (QueryOutput, int) {
	var stack []tournamentLevel
	stages := 0

	push := func(o QueryOutput) {
		level := tournamentLevel{level: 0, result: o}
		stack = append(stack, level)
		for len(stack) >= 2 && stack[len(stack)-1].level == stack[len(stack)-2].level {
			top := stack[len(stack)-1]
			second := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			merged := combine(second.result, top.result, shape, limit)
			stages++
			stack = append(stack, tournamentLevel{level: second.level + 1, result: merged})
		}
	}

	for _, o := range outputs {
		push(o)
	}

	if len(stack) == 0 {
		return QueryOutput{}, stages
	}

	result := stack[len(stack)-1].result
	for i := len(stack) - 2; i >= 0; i-- {
		result = combine(stack[i].result, result, shape, limit)
		stages++
	}

	return result, stages
}
