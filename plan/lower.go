package plan

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

// FilterCarrier selects how a WHERE predicate's selected rows are
// materialized downstream: as a boolean Mask (one entry per input row) or
// as a vector of Indices into the input. The planner prefers Mask when
// selectivity is expected to be high (few rows dropped) since it avoids
// an allocation, and Indices when a downstream Select needs to gather the
// same row set from several columns (amortizing one NonzeroIndices pass
// across multiple Select operators beats re-filtering each column).
type FilterCarrier uint8

const (
	CarrierMask FilterCarrier = iota
	CarrierIndices
)

// CompileFilter compiles a boolean predicate expression and lowers it
// into the chosen carrier representation.
func (b *Builder) CompileFilter(predicate Expr, carrier FilterCarrier) (buffer.Ref, error) {
	mask, err := b.Compile(predicate)
	if err != nil {
		return buffer.Ref{}, err
	}

	if carrier == CarrierMask {
		return mask, nil
	}

	out := b.alloc.Alloc(types.U32)

	return b.emit(ops.NewNonzeroIndices(mask, out), out), nil
}

// ApplyFilterMask lowers a column expression restricted by a
// previously-compiled mask Ref, materializing only the rows the mask
// selects. enc must match the column's decoded encoding.
func (b *Builder) ApplyFilterMask(column Expr, mask buffer.Ref, enc types.Encoding) (buffer.Ref, error) {
	in, err := b.Compile(column)
	if err != nil {
		return buffer.Ref{}, err
	}
	out := b.alloc.Alloc(enc)

	return b.emit(ops.NewFilter(in, mask, out, enc), out), nil
}

// ApplyFilterIndices lowers a column expression restricted by a
// previously-compiled index vector.
func (b *Builder) ApplyFilterIndices(column Expr, indices buffer.Ref, enc types.Encoding) (buffer.Ref, error) {
	in, err := b.Compile(column)
	if err != nil {
		return buffer.Ref{}, err
	}
	out := b.alloc.Alloc(enc)

	return b.emit(ops.NewSelect(in, indices, out, enc), out), nil
}

// GroupKeyStrategy identifies which of the four grouping-key layouts the
// planner picked for a particular GROUP BY clause.
type GroupKeyStrategy uint8

const (
	// GroupDirect addresses groups directly by (key - Range.Min), valid
	// only when the grouped column's Range is Known and narrow.
	GroupDirect GroupKeyStrategy = iota
	// GroupHashMap maps each i64 key to a group id through a Go map.
	GroupHashMap
	// GroupHashMapBytes maps each string key to a group id through a Go
	// map, used for a single string GROUP BY column.
	GroupHashMapBytes
	// GroupBitPacked names packing several small-range grouping columns
	// into one composite key. Neither ChooseGroupKeyStrategy nor
	// SynthesizeGroupKey selects it, and no compile path emits a BitPack
	// op: grouping is always by a single column.
	GroupBitPacked
)

// directGroupingCardinalityLimit bounds how wide a Known Range may be
// before direct addressing is abandoned in favor of a hash map, avoiding
// an output allocation proportional to a column's value range rather than
// its row count.
const directGroupingCardinalityLimit = 1 << 20

// ChooseGroupKeyStrategy inspects a column's Range hint to decide between
// direct addressing (GroupDirect) and a hash map (GroupHashMap); it never
// returns GroupHashMapBytes or GroupBitPacked. SynthesizeGroupKey picks
// the string-keyed hash map itself, from the key's encoding.
func ChooseGroupKeyStrategy(known bool, min, max int64) GroupKeyStrategy {
	if known && max-min >= 0 && max-min < directGroupingCardinalityLimit {
		return GroupDirect
	}

	return GroupHashMap
}

// SynthesizeGroupKey compiles a single grouping column expression into a
// dense group-id vector (u32), selecting among direct addressing and hash
// mapping. groups returns the number of distinct groups discovered, valid
// only after Execute has run — callers read it from the returned
// Operator, not from this function's return values, since cardinality for
// a hash map is only known once every row has been seen.
func (b *Builder) SynthesizeGroupKey(column Expr, known bool, min, max int64) (buffer.Ref, ops.Operator, error) {
	key, err := b.Compile(column)
	if err != nil {
		return buffer.Ref{}, nil, err
	}

	out := b.alloc.Alloc(types.GroupKey)

	switch ChooseGroupKeyStrategy(known, min, max) {
	case GroupDirect:
		op := ops.NewDirectGrouping(key, min, int(max-min)+1, out)

		return b.emit(op, out), op, nil
	default:
		if key.Encoding() == types.Str {
			op := ops.NewHashMapGroupingByteSlices(key, out)

			return b.emit(op, out), op, nil
		}
		op := ops.NewHashMapGrouping(key, out)

		return b.emit(op, out), op, nil
	}
}
