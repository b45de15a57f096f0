package query

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/plan"
	"github.com/cswinter/locustdb-go/types"
)

// mergeAggregatedFastPath dispatches to ops.MergeAggregate — the same
// operator the executor's own operator DAG would use for an in-partition
// merge — for the one shape it can actually express: a single int64-keyed
// Sum aggregate. ops.MergeAggregate hardcodes addition and a single i64
// key/value pair, so anything wider (a Min/Max aggregate, a string key, or
// more than one value column) falls back to the generic per-Column merge
// below it.
func mergeAggregatedFastPath(a, b QueryOutput) (QueryOutput, bool) {
	if a.Keys.Kind != KindInt || b.Keys.Kind != KindInt {
		return QueryOutput{}, false
	}
	if len(a.Values) != 1 || len(b.Values) != 1 {
		return QueryOutput{}, false
	}
	if a.Values[0].Kind != KindInt || b.Values[0].Kind != KindInt {
		return QueryOutput{}, false
	}
	if len(a.Merge) != 1 || a.Merge[0] != plan.MergeSum {
		return QueryOutput{}, false
	}

	var alloc buffer.Allocator
	lk := alloc.Alloc(types.I64)
	rk := alloc.Alloc(types.I64)
	la := alloc.Alloc(types.I64)
	ra := alloc.Alloc(types.I64)
	outK := alloc.Alloc(types.I64)
	outA := alloc.Alloc(types.I64)

	s := buffer.New(alloc.Len())
	s.SetI64(lk, a.Keys.Ints)
	s.SetI64(rk, b.Keys.Ints)
	s.SetI64(la, a.Values[0].Ints)
	s.SetI64(ra, b.Values[0].Ints)

	op := ops.NewMergeAggregate(lk, rk, la, ra, outK, outA)
	if _, err := op.Execute(s, 0); err != nil {
		return QueryOutput{}, false
	}

	return QueryOutput{
		Keys:       IntColumn(s.I64(outK)),
		Values:     []Column{IntColumn(s.I64(outA))},
		Merge:      a.Merge,
		Descending: a.Descending,
	}, true
}

// mergeSortedFastPath dispatches to ops.Merge for an ascending, int64-keyed
// sorted merge with int64-typed value columns — ops.Merge itself only
// merges the key vector and reports per-row provenance, so this gathers
// every value column according to that provenance rather than duplicating
// ops.Merge's comparison loop. A descending ORDER BY (S4) or a
// string/float-keyed or mixed-type result falls back to the generic merge.
func mergeSortedFastPath(a, b QueryOutput) (QueryOutput, bool) {
	if a.Descending {
		return QueryOutput{}, false
	}
	if a.Keys.Kind != KindInt || b.Keys.Kind != KindInt {
		return QueryOutput{}, false
	}
	if len(a.Values) != len(b.Values) {
		return QueryOutput{}, false
	}
	for i := range a.Values {
		if a.Values[i].Kind != KindInt || b.Values[i].Kind != KindInt {
			return QueryOutput{}, false
		}
	}

	var alloc buffer.Allocator
	lk := alloc.Alloc(types.I64)
	rk := alloc.Alloc(types.I64)
	outK := alloc.Alloc(types.I64)
	outOps := alloc.Alloc(types.U8)

	s := buffer.New(alloc.Len())
	s.SetI64(lk, a.Keys.Ints)
	s.SetI64(rk, b.Keys.Ints)

	op := ops.NewMerge(lk, rk, outK, outOps)
	if _, err := op.Execute(s, 0); err != nil {
		return QueryOutput{}, false
	}

	tags := s.U8(outOps)
	out := newOutputLike(a, len(tags))
	ai, bi := 0, 0
	for _, tag := range tags {
		if tag == ops.MergeFromLeft {
			appendRow(&out, a, ai)
			ai++
		} else {
			appendRow(&out, b, bi)
			bi++
		}
	}

	return out, true
}
