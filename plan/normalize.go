package plan

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

// AggregateResult is the two-phase aggregate/projection normalization's
// output: main_phase Refs ready for the query driver's merge step. An
// Average's Sum and Count ride as two separate main_phase Refs (Main and
// CountForAverage) that the driver divides itself, once, after every
// partition's contribution to both has been merged — dividing per
// partition first would be wrong, since Sum(partition)/Count(partition)
// averaged again across partitions isn't the same as the true overall
// average.
type AggregateResult struct {
	GroupKey buffer.Ref
	Groups   int
	// Main holds the merge-ready per-group values: for Sum/Count/Min/Max
	// this is the aggregate itself; for Average it is the Sum (Count rides
	// alongside in CountForAverage so the driver can merge both before
	// dividing).
	Main buffer.Ref
	// CountForAverage is valid only when Kind was AggAverage.
	CountForAverage buffer.Ref
	Kind            AggKind
}

// CompileAggregate lowers a.X grouped by a single grouping expression
// (there is no multi-column GROUP BY path) into the
// main_phase Aggregate operator, expanding Average into a Sum/Count pair
// the query driver divides once every partition's contribution has been
// merged.
func (b *Builder) CompileAggregate(a Aggregate, groupKey buffer.Ref, groups int) (AggregateResult, error) {
	if a.Kind == AggExists {
		out := b.alloc.Alloc(types.U8)
		op := ops.NewExists(groupKey, groups, out)

		return AggregateResult{GroupKey: groupKey, Groups: groups, Main: b.emit(op, out), Kind: a.Kind}, nil
	}

	x, err := b.Compile(a.X)
	if err != nil {
		return AggregateResult{}, err
	}

	if a.Kind == AggAverage {
		sumOut := b.alloc.Alloc(types.I64)
		sum := b.emit(ops.NewAggregate(ops.AggSum, x, groupKey, groups, true, sumOut), sumOut)

		countOut := b.alloc.Alloc(types.I64)
		count := b.emit(ops.NewAggregate(ops.AggCount, x, groupKey, groups, false, countOut), countOut)

		return AggregateResult{GroupKey: groupKey, Groups: groups, Main: sum, CountForAverage: count, Kind: a.Kind}, nil
	}

	out := b.alloc.Alloc(types.I64)
	op := ops.NewAggregate(aggKindOf(a.Kind), x, groupKey, groups, a.Kind == AggSum, out)

	return AggregateResult{GroupKey: groupKey, Groups: groups, Main: b.emit(op, out), Kind: a.Kind}, nil
}

func aggKindOf(k AggKind) ops.AggKind {
	switch k {
	case AggCount:
		return ops.AggCount
	case AggMin:
		return ops.AggMin
	case AggMax:
		return ops.AggMax
	default:
		return ops.AggSum
	}
}
