package plan

import (
	"fmt"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/internal/hash"
	"github.com/cswinter/locustdb-go/ops"
	"github.com/cswinter/locustdb-go/types"
)

// fingerprint is a 128-bit CSE key: two independent 64-bit xxhashes of the
// same canonical byte string, cheap insurance against the false-positive
// rate of a single 64-bit hash across a query's full expression set.
type fingerprint struct{ hi, lo uint64 }

func fingerprintOf(canonical string) fingerprint {
	return fingerprint{hi: hash.ID(canonical), lo: hash.ID(canonical + "\x00cse")}
}

// Builder accumulates an operator DAG while compiling a query's
// expression tree against one partition. It owns the buffer.Allocator
// that hands out Refs and a fingerprint cache for common subexpression
// elimination: repeated column references and repeated literals compiled
// within the same Builder resolve to the same Ref without re-emitting
// operators.
type Builder struct {
	Partition catalog.Partition

	alloc     buffer.Allocator
	operators []ops.Operator
	cache     map[fingerprint]buffer.Ref
}

// NewBuilder creates a Builder that will compile expressions against p.
func NewBuilder(p catalog.Partition) *Builder {
	return &Builder{Partition: p, cache: make(map[fingerprint]buffer.Ref)}
}

// Operators returns the operator DAG accumulated so far, in emission
// order (package exec's stage partitioning only needs dependency edges,
// not this order, but tests find it easier to assert against).
func (b *Builder) Operators() []ops.Operator { return b.operators }

// Alloc reserves a fresh Ref of the given encoding, bypassing the CSE
// cache — used for operator outputs that are never subexpression targets
// (e.g. a Filter's mask-shaped intermediate).
func (b *Builder) Alloc(enc types.Encoding) buffer.Ref { return b.alloc.Alloc(enc) }

// emit appends op to the DAG and returns out unchanged, the common tail
// of every compile* helper below.
func (b *Builder) emit(op ops.Operator, out buffer.Ref) buffer.Ref {
	b.operators = append(b.operators, op)

	return out
}

// checkpoint marks a point the Builder can roll back to, supporting
// speculative compilation paths that may be abandoned (e.g. trying the
// encoding-invariant literal-pushdown path before falling back to
// decode-then-compare).
type checkpoint struct {
	allocMark uint32
	opsMark   int
}

func (b *Builder) checkpoint() checkpoint {
	return checkpoint{allocMark: b.alloc.Checkpoint(), opsMark: len(b.operators)}
}

func (b *Builder) reset(c checkpoint) {
	b.alloc.Reset(c.allocMark)
	b.operators = b.operators[:c.opsMark]
}

// cseKey canonicalizes an expression subtree into a fingerprint; Compile
// calls this for every expression. Only column references and literals
// yield a key (ok=true), so repeated reads of the same column or repeated
// uses of the same literal collapse to one Ref.
func cseKey(e Expr) (fingerprint, bool) {
	switch v := e.(type) {
	case ColumnRef:
		return fingerprintOf(fmt.Sprintf("col:%s", v.Name)), true
	case Literal:
		return fingerprintOf(fmt.Sprintf("lit:%d:%d:%v:%s", v.Enc, v.I, v.F, v.S)), true
	default:
		return fingerprint{}, false
	}
}
