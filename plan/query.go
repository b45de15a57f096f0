package plan

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

// topNFallbackThreshold: a LIMIT at or above this falls back to a full SortBy
// rather than a bounded TopN heap, since TopN's O(n log k) heap degrades
// toward O(n log n) anyway once k approaches n and SortBy's simpler code path is
// preferable once it provides no additional benefit.
const topNFallbackThreshold = 1_000_000

// Query describes one partition-local query to compile: an optional
// filter, an optional single-column GROUP BY, one or more aggregates (or
// a bare projection when Aggregates is empty and GroupBy is nil), and an
// optional ORDER BY + LIMIT applied to the result.
type Query struct {
	Filter     Expr
	GroupBy    Expr // nil for no GROUP BY
	Aggregates []Aggregate
	Projection  Expr   // used when GroupBy is nil, Aggregates is empty, and Projections is empty
	Projections []Expr // a multi-column bare SELECT; takes priority over Projection when non-empty
	OrderBy    Expr
	Descending bool
	Limit      int // 0 means unlimited
}

// Plan is the compiled result the executor runs: the operator DAG plus
// the Ref(s) the query driver reads once execution completes.
type Plan struct {
	Operators []ops.Operator
	// Output holds the final projected/aggregated column Refs, one per
	// SELECT expression or aggregate in the query. For a GROUP BY query an
	// Average aggregate contributes two Output entries (Sum, then Count)
	// rather than one; AvgPairs records which entries pair up.
	Output []buffer.Ref
	// OutputMerge parallels Output and is meaningful only when GroupKey is
	// valid: it tells the cross-partition merge step how to fold two
	// partitions' contributions to the same group together.
	OutputMerge []MergeKind
	// AvgPairs lists, for every Average aggregate, the (Sum, Count) index
	// pair into Output/OutputMerge that the driver divides once, after
	// merging every partition's contribution to both.
	AvgPairs []AvgPair
	// GroupKey is valid when the query had a GROUP BY: the dense,
	// per-partition group id vector (u32) every aggregate above was
	// computed against.
	GroupKey buffer.Ref
	// GroupKeyOp is the grouping operator that produced GroupKey — an
	// *ops.HashMapGrouping, *ops.HashMapGroupingByteSlices, or
	// *ops.DirectGrouping — kept so the driver can recover each group id's
	// real key value after execution (a group id is only meaningful
	// within the partition that assigned it; merging by id across
	// partitions would compare unrelated keys that merely share an id).
	GroupKeyOp ops.Operator
	Groups     int
	// OrderIndices holds a permutation Ref (from SortBy or TopN) that
	// orders the partition's rows; OrderKey and every Output column have
	// already been gathered by this permutation, so the driver and the
	// query package never need to touch OrderIndices directly — it is
	// retained only for diagnostics and tests.
	OrderIndices buffer.Ref
	// OrderKey holds the ORDER BY column's value, already gathered into
	// sorted order, for the cross-partition sorted merge to compare
	// against. Invalid if the query had no ORDER BY.
	OrderKey buffer.Ref
}

// CompileQuery lowers q against p into a Plan. It is the entry point
// package query's Driver uses to obtain an operator DAG for one
// partition.
func CompileQuery(p catalog.Partition, q Query) (*Plan, error) {
	b := NewBuilder(p)

	var mask buffer.Ref
	hasFilter := q.Filter != nil
	if hasFilter {
		m, err := b.CompileFilter(q.Filter, CarrierMask)
		if err != nil {
			return nil, err
		}
		mask = m
	}

	wrap := func(x Expr) Expr {
		if hasFilter {
			return filteredColumn{mask: mask, x: x}
		}

		return x
	}

	result := &Plan{}

	switch {
	case q.GroupBy != nil:
		known, min, max := rangeHintOf(p, q.GroupBy)
		groupKey, groupKeyOp, err := b.SynthesizeGroupKey(wrap(q.GroupBy), known, min, max)
		if err != nil {
			return nil, err
		}

		groups := int(max-min) + 1
		if !known {
			groups = p.Len() // upper bound: at most one group per row
		}

		for _, agg := range q.Aggregates {
			aggExpr := agg
			aggExpr.X = wrap(agg.X)
			res, err := b.CompileAggregate(aggExpr, groupKey, groups)
			if err != nil {
				return nil, err
			}
			if res.Kind == AggAverage {
				sumIdx := len(result.Output)
				result.Output = append(result.Output, res.Main)
				result.OutputMerge = append(result.OutputMerge, MergeSum)
				countIdx := len(result.Output)
				result.Output = append(result.Output, res.CountForAverage)
				result.OutputMerge = append(result.OutputMerge, MergeSum)
				result.AvgPairs = append(result.AvgPairs, AvgPair{SumIndex: sumIdx, CountIndex: countIdx})
			} else {
				result.Output = append(result.Output, res.Main)
				result.OutputMerge = append(result.OutputMerge, mergeKindOf(res.Kind))
			}
		}

		result.GroupKey = groupKey
		result.GroupKeyOp = groupKeyOp
		result.Groups = groups
	default:
		projs := q.Projections
		if len(projs) == 0 {
			projs = []Expr{q.Projection}
		}
		for _, proj := range projs {
			ref, err := b.Compile(wrap(proj))
			if err != nil {
				return nil, err
			}
			result.Output = append(result.Output, ref)
		}
	}

	if q.OrderBy != nil && len(result.Output) > 0 {
		orderKey, err := b.Compile(wrap(q.OrderBy))
		if err != nil {
			return nil, err
		}
		idx, err := b.compileOrder(orderKey, q.Limit, q.Descending)
		if err != nil {
			return nil, err
		}
		result.OrderIndices = idx

		// Gather the order key and every Output column by the computed
		// permutation so the driver always sees already-sorted data —
		// OrderIndices by itself is just a row permutation, not the
		// reordered values.
		keyOut := b.Alloc(orderKey.Encoding())
		result.OrderKey = b.emit(ops.NewSelect(orderKey, idx, keyOut, orderKey.Encoding()), keyOut)

		gathered := make([]buffer.Ref, len(result.Output))
		for i, ref := range result.Output {
			out := b.Alloc(ref.Encoding())
			gathered[i] = b.emit(ops.NewSelect(ref, idx, out, ref.Encoding()), out)
		}
		result.Output = gathered
	}

	result.Operators = b.Operators()

	return result, nil
}

// filteredColumn wraps an expression so Compile lowers it through a
// Filter against mask instead of reading the column unrestricted. It
// implements Expr only so compile's type switch can special-case it; it
// is never part of the public AST a caller constructs directly.
type filteredColumn struct {
	mask buffer.Ref
	x    Expr
}

func (filteredColumn) exprNode() {}

func (b *Builder) compileFilteredColumn(f filteredColumn) (buffer.Ref, error) {
	inner, err := b.Compile(f.x)
	if err != nil {
		return buffer.Ref{}, err
	}
	enc := inner.Encoding()
	out := b.Alloc(enc)

	return b.emit(ops.NewFilter(inner, f.mask, out, enc), out), nil
}

func rangeHintOf(p catalog.Partition, e Expr) (known bool, min, max int64) {
	col, ok := e.(ColumnRef)
	if !ok {
		return false, 0, 0
	}
	c, ok := p.Column(col.Name)
	if !ok {
		return false, 0, 0
	}

	return c.Range.Known, c.Range.Min, c.Range.Max
}

func (b *Builder) compileOrder(key buffer.Ref, limit int, descending bool) (buffer.Ref, error) {
	out := b.Alloc(types.U32)

	if limit > 0 && limit < topNFallbackThreshold {
		kind := ops.TopNLessThan
		if descending {
			kind = ops.TopNGreaterThan
		}

		return b.emit(ops.NewTopN(key, limit, kind, out), out), nil
	}

	return b.emit(ops.NewSortBy(key, descending, out), out), nil
}
