// Package locustdb provides the execution core of a columnar, embedded
// analytic database: a codec stack for compact per-section column
// storage, a query planner that lowers filter/select/group/aggregate/sort
// expressions into a vector operator DAG, a batching executor that runs
// that DAG in streaming stages, and a query driver that fans a compiled
// plan out across every resident partition and folds the partial results
// back together with a tournament merge.
//
// # Basic usage
//
//	cfg, _ := config.New("/var/lib/locustdb")
//	db := locustdb.Open(cfg, partitions)
//
//	result, stats, err := db.Query(ctx, plan.Query{
//	    GroupBy:    plan.ColumnRef{Name: "country"},
//	    Aggregates: []plan.Aggregate{{Kind: plan.AggSum, X: plan.ColumnRef{Name: "revenue"}}},
//	})
//
// # Package structure
//
// This package is a thin convenience wrapper around package query's
// Driver. Advanced callers that need direct control over plan
// compilation or executor batching should use packages plan, exec, and
// query directly.
package locustdb

import (
	"context"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/config"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/plan"
	"github.com/cswinter/locustdb-go/query"
	"github.com/cswinter/locustdb-go/types"
)

// DB is a resident set of partitions queried under one Config.
type DB struct {
	driver *query.Driver
}

// Open builds a DB over parts using cfg's concurrency and batching
// tunables. It does not read or validate partition contents; callers are
// expected to have already loaded parts through their own catalog
// implementation.
func Open(cfg *config.Config, parts []catalog.Partition) *DB {
	return &DB{driver: query.New(cfg, parts)}
}

// Query compiles q against every partition and folds the results into
// one QueryOutput via a tournament merge, picking the merge shape from
// q's own structure: a GROUP BY aggregates, an ORDER BY sorts, and a bare
// projection concatenates unordered.
func (db *DB) Query(ctx context.Context, q plan.Query) (query.QueryOutput, query.Stats, error) {
	results, stats, err := db.driver.Run(ctx, q)
	if err != nil {
		return query.QueryOutput{}, query.Stats{}, err
	}

	shape := shapeOf(q)
	outputs := make([]query.QueryOutput, len(results))
	for i, r := range results {
		outputs[i] = extractOutput(r, q)
		r.Executor.Close()
	}

	merged, stages := query.TournamentMerge(outputs, shape, q.Limit)
	stats.MergeStages = stages

	if len(results) > 0 {
		merged = applyAverages(merged, results[0].Plan.AvgPairs)
	}

	return merged, stats, nil
}

func shapeOf(q plan.Query) query.QueryShape {
	switch {
	case q.GroupBy != nil:
		return query.ShapeAggregated
	case q.OrderBy != nil:
		return query.ShapeSorted
	default:
		return query.ShapeUnsortedSelect
	}
}

// extractOutput pulls one partition's compiled Plan result out of its
// Executor's Scratchpad into a plain query.QueryOutput the tournament
// merge can operate on after the Scratchpad itself is torn down.
//
// A GROUP BY's Keys are the real key values a grouping operator
// discovered (GroupValues(), or Min+index for direct addressing), never
// the dense per-partition group id: two partitions' group id 0 name
// unrelated keys that merely happen to share an id, so merging by id
// would silently combine the wrong groups. Hash-map grouping operators
// also size their Aggregate outputs to an upper-bound capacity rather
// than the discovered group count, so those Values columns are truncated
// to match the real key count extracted alongside them.
func extractOutput(r query.PartitionResult, q plan.Query) query.QueryOutput {
	s := r.Executor.Scratchpad()
	p := r.Plan

	var keys query.Column
	truncateTo := -1

	switch {
	case p.GroupKey.Valid():
		switch op := p.GroupKeyOp.(type) {
		case *ops.HashMapGrouping:
			vals := op.GroupValues()
			keys = query.IntColumn(vals)
			truncateTo = len(vals)
		case *ops.HashMapGroupingByteSlices:
			vals := op.GroupValues()
			keys = query.StringColumn(vals)
			truncateTo = len(vals)
		case *ops.DirectGrouping:
			vals := make([]int64, p.Groups)
			for i := range vals {
				vals[i] = op.Min + int64(i)
			}
			keys = query.IntColumn(vals)
		default:
			u32 := s.U32(p.GroupKey)
			vals := make([]int64, len(u32))
			for i, v := range u32 {
				vals[i] = int64(v)
			}
			keys = query.IntColumn(vals)
		}
	case p.OrderKey.Valid():
		keys = columnFromRef(s, p.OrderKey)
	default:
		if len(p.Output) > 0 {
			keys = columnFromRef(s, p.Output[0])
		}
	}

	values := make([]query.Column, len(p.Output))
	for i, ref := range p.Output {
		col := columnFromRef(s, ref)
		if truncateTo >= 0 {
			col = truncateColumn(col, truncateTo)
		}
		values[i] = col
	}

	return query.QueryOutput{Keys: keys, Values: values, Merge: p.OutputMerge, Descending: q.Descending}
}

// columnFromRef extracts ref's live data into a query.Column, dispatching
// on the Ref's own Encoding tag rather than assuming every column is
// int64 (the prior int64-only QueryOutput silently returned no data for
// a string or float projection).
func columnFromRef(s *buffer.Scratchpad, ref buffer.Ref) query.Column {
	switch ref.Encoding() {
	case types.F64:
		return query.FloatColumn(s.F64(ref))
	case types.Str:
		return query.StringColumn(s.Str(ref))
	case types.U8, types.ByteVec:
		u8 := s.U8(ref)
		vals := make([]int64, len(u8))
		for i, v := range u8 {
			vals[i] = int64(v)
		}

		return query.IntColumn(vals)
	default:
		return query.IntColumn(s.I64(ref))
	}
}

func truncateColumn(c query.Column, n int) query.Column {
	switch c.Kind {
	case query.KindFloat:
		if n < len(c.Floats) {
			c.Floats = c.Floats[:n]
		}
	case query.KindString:
		if n < len(c.Strs) {
			c.Strs = c.Strs[:n]
		}
	default:
		if n < len(c.Ints) {
			c.Ints = c.Ints[:n]
		}
	}

	return c
}

// applyAverages divides each Average aggregate's merged Sum/Count column
// pair once, after every partition's contribution to both has already
// been folded together by the tournament merge — dividing per partition
// first would be wrong, since avg(a)/avg(b) across partitions isn't the
// same as the true overall average. Division follows float semantics
// (a zero count yields +Inf/NaN rather than trapping), matching
// ops.FloatArithmetic's non-trapping divide.
func applyAverages(merged query.QueryOutput, pairs []plan.AvgPair) query.QueryOutput {
	if len(pairs) == 0 {
		return merged
	}

	skip := make(map[int]bool, len(pairs))
	countOf := make(map[int]int, len(pairs))
	for _, p := range pairs {
		skip[p.CountIndex] = true
		countOf[p.SumIndex] = p.CountIndex
	}

	final := make([]query.Column, 0, len(merged.Values))
	for i, col := range merged.Values {
		if skip[i] {
			continue
		}
		ci, ok := countOf[i]
		if !ok {
			final = append(final, col)

			continue
		}

		sum, count := col, merged.Values[ci]
		n := sum.Len()
		out := make([]float64, n)
		for j := 0; j < n; j++ {
			out[j] = columnFloatAt(sum, j) / columnFloatAt(count, j)
		}
		final = append(final, query.FloatColumn(out))
	}
	merged.Values = final

	return merged
}

func columnFloatAt(c query.Column, i int) float64 {
	switch c.Kind {
	case query.KindFloat:
		return c.Floats[i]
	default:
		return float64(c.Ints[i])
	}
}
