package ops

import "github.com/cswinter/locustdb-go/buffer"

// mergeOpTag records, for each output row of a merge operator, which side
// (or both) contributed it: 0 = left only, 1 = right only, 2 = both
// (deduplicated/aggregated). Package query's combine() step reads these
// tags to know which non-key columns to gather from which partition.
type mergeOpTag = uint8

const (
	MergeFromLeft  mergeOpTag = 0
	MergeFromRight mergeOpTag = 1
	MergeFromBoth  mergeOpTag = 2
)

// Merge performs a standard sorted merge of two i64 key vectors, the
// tournament merge step's per-pair combinator. Ops records provenance
// per output row for the caller's column-gather pass.
type Merge struct {
	base

	Left, Right buffer.Ref
	out         buffer.Ref
	Ops         buffer.Ref
}

var _ Operator = (*Merge)(nil)

func NewMerge(left, right, out, ops buffer.Ref) *Merge {
	return &Merge{Left: left, Right: right, out: out, Ops: ops}
}

func (m *Merge) Inputs() []buffer.Ref  { return []buffer.Ref{m.Left, m.Right} }
func (m *Merge) Outputs() []buffer.Ref { return []buffer.Ref{m.out, m.Ops} }
func (m *Merge) Allocates() bool       { return true }

func (m *Merge) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left, right := s.I64(m.Left), s.I64(m.Right)
	out := make([]int64, 0, len(left)+len(right))
	ops := make([]uint8, 0, len(left)+len(right))

	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch {
		case left[i] <= right[j]:
			out = append(out, left[i])
			ops = append(ops, MergeFromLeft)
			i++
		default:
			out = append(out, right[j])
			ops = append(ops, MergeFromRight)
			j++
		}
	}
	for ; i < len(left); i++ {
		out = append(out, left[i])
		ops = append(ops, MergeFromLeft)
	}
	for ; j < len(right); j++ {
		out = append(out, right[j])
		ops = append(ops, MergeFromRight)
	}

	s.SetI64(m.out, out)
	s.SetU8(m.Ops, ops)

	return false, nil
}

// MergeDeduplicate merges two sorted, already-deduplicated key vectors and
// collapses a key present on both sides into a single MergeFromBoth row.
type MergeDeduplicate struct {
	base

	Left, Right buffer.Ref
	out         buffer.Ref
	Ops         buffer.Ref
}

var _ Operator = (*MergeDeduplicate)(nil)

func NewMergeDeduplicate(left, right, out, ops buffer.Ref) *MergeDeduplicate {
	return &MergeDeduplicate{Left: left, Right: right, out: out, Ops: ops}
}

func (m *MergeDeduplicate) Inputs() []buffer.Ref  { return []buffer.Ref{m.Left, m.Right} }
func (m *MergeDeduplicate) Outputs() []buffer.Ref { return []buffer.Ref{m.out, m.Ops} }
func (m *MergeDeduplicate) Allocates() bool       { return true }

func (m *MergeDeduplicate) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left, right := s.I64(m.Left), s.I64(m.Right)
	out := make([]int64, 0, len(left)+len(right))
	ops := make([]uint8, 0, len(left)+len(right))

	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch {
		case left[i] == right[j]:
			out = append(out, left[i])
			ops = append(ops, MergeFromBoth)
			i++
			j++
		case left[i] < right[j]:
			out = append(out, left[i])
			ops = append(ops, MergeFromLeft)
			i++
		default:
			out = append(out, right[j])
			ops = append(ops, MergeFromRight)
			j++
		}
	}
	for ; i < len(left); i++ {
		out = append(out, left[i])
		ops = append(ops, MergeFromLeft)
	}
	for ; j < len(right); j++ {
		out = append(out, right[j])
		ops = append(ops, MergeFromRight)
	}

	s.SetI64(m.out, out)
	s.SetU8(m.Ops, ops)

	return false, nil
}

// MergeAggregate merges two sorted group-key vectors and sums the
// corresponding aggregate column wherever a key appears on both sides,
// the tournament merge's per-pair combinator for an aggregated query
// shape.
type MergeAggregate struct {
	base

	LeftKeys, RightKeys buffer.Ref
	LeftAgg, RightAgg   buffer.Ref
	outKeys, outAgg     buffer.Ref
}

var _ Operator = (*MergeAggregate)(nil)

func NewMergeAggregate(leftKeys, rightKeys, leftAgg, rightAgg, outKeys, outAgg buffer.Ref) *MergeAggregate {
	return &MergeAggregate{LeftKeys: leftKeys, RightKeys: rightKeys, LeftAgg: leftAgg, RightAgg: rightAgg, outKeys: outKeys, outAgg: outAgg}
}

func (m *MergeAggregate) Inputs() []buffer.Ref {
	return []buffer.Ref{m.LeftKeys, m.RightKeys, m.LeftAgg, m.RightAgg}
}

func (m *MergeAggregate) Outputs() []buffer.Ref { return []buffer.Ref{m.outKeys, m.outAgg} }
func (m *MergeAggregate) Allocates() bool       { return true }

func (m *MergeAggregate) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	lk, rk := s.I64(m.LeftKeys), s.I64(m.RightKeys)
	la, ra := s.I64(m.LeftAgg), s.I64(m.RightAgg)
	outK := make([]int64, 0, len(lk)+len(rk))
	outA := make([]int64, 0, len(lk)+len(rk))

	i, j := 0, 0
	for i < len(lk) && j < len(rk) {
		switch {
		case lk[i] == rk[j]:
			outK = append(outK, lk[i])
			outA = append(outA, la[i]+ra[j])
			i++
			j++
		case lk[i] < rk[j]:
			outK = append(outK, lk[i])
			outA = append(outA, la[i])
			i++
		default:
			outK = append(outK, rk[j])
			outA = append(outA, ra[j])
			j++
		}
	}
	for ; i < len(lk); i++ {
		outK = append(outK, lk[i])
		outA = append(outA, la[i])
	}
	for ; j < len(rk); j++ {
		outK = append(outK, rk[j])
		outA = append(outA, ra[j])
	}

	s.SetI64(m.outKeys, outK)
	s.SetI64(m.outAgg, outA)

	return false, nil
}

// MergeDrop keeps every Left key that does NOT appear in Right (sorted
// set difference). No plan or merge step in this module emits it.
type MergeDrop struct {
	base

	Left, Right buffer.Ref
	out         buffer.Ref
}

var _ Operator = (*MergeDrop)(nil)

func NewMergeDrop(left, right, out buffer.Ref) *MergeDrop {
	return &MergeDrop{Left: left, Right: right, out: out}
}

func (m *MergeDrop) Inputs() []buffer.Ref  { return []buffer.Ref{m.Left, m.Right} }
func (m *MergeDrop) Outputs() []buffer.Ref { return []buffer.Ref{m.out} }
func (m *MergeDrop) Allocates() bool       { return true }

func (m *MergeDrop) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left, right := s.I64(m.Left), s.I64(m.Right)
	out := make([]int64, 0, len(left))

	i, j := 0, 0
	for i < len(left) {
		for j < len(right) && right[j] < left[i] {
			j++
		}
		if j < len(right) && right[j] == left[i] {
			i++

			continue
		}
		out = append(out, left[i])
		i++
	}
	s.SetI64(m.out, out)

	return false, nil
}

// MergeKeep is the complement of MergeDrop: keeps only Left keys that DO
// appear in Right (sorted set intersection).
type MergeKeep struct {
	base

	Left, Right buffer.Ref
	out         buffer.Ref
}

var _ Operator = (*MergeKeep)(nil)

func NewMergeKeep(left, right, out buffer.Ref) *MergeKeep {
	return &MergeKeep{Left: left, Right: right, out: out}
}

func (m *MergeKeep) Inputs() []buffer.Ref  { return []buffer.Ref{m.Left, m.Right} }
func (m *MergeKeep) Outputs() []buffer.Ref { return []buffer.Ref{m.out} }
func (m *MergeKeep) Allocates() bool       { return true }

func (m *MergeKeep) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left, right := s.I64(m.Left), s.I64(m.Right)
	out := make([]int64, 0, len(left))

	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch {
		case left[i] == right[j]:
			out = append(out, left[i])
			i++
		case left[i] < right[j]:
			i++
		default:
			j++
		}
	}
	s.SetI64(m.out, out)

	return false, nil
}

// Partition computes, for a pair of sorted key vectors being merged at a
// tournament stack level above the leaves, the boundary indices at which
// equal-level runs can be merged independently in parallel — the
// connected-component analogue for the query driver's stack-based,
// equal-level-pairing merge tree rather than the executor's operator
// DAG. It reports boundaries as indices into Left.
type Partition struct {
	base

	Left, Right buffer.Ref
	ChunkSize   int
	out         buffer.Ref // i64 boundary indices into Left
}

var _ Operator = (*Partition)(nil)

func NewPartition(left, right buffer.Ref, chunkSize int, out buffer.Ref) *Partition {
	return &Partition{Left: left, Right: right, ChunkSize: chunkSize, out: out}
}

func (p *Partition) Inputs() []buffer.Ref  { return []buffer.Ref{p.Left, p.Right} }
func (p *Partition) Outputs() []buffer.Ref { return []buffer.Ref{p.out} }
func (p *Partition) Allocates() bool       { return true }

func (p *Partition) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left := s.I64(p.Left)
	var bounds []int64
	for i := p.ChunkSize; i < len(left); i += p.ChunkSize {
		bounds = append(bounds, int64(i))
	}
	s.SetI64(p.out, bounds)

	return false, nil
}

// SubPartition refines one partition (a contiguous run with a shared
// primary key) into subpartitions by a secondary key, used when a
// multi-column GROUP BY or ORDER BY needs a second tier of boundary
// indices nested inside a Partition run.
type SubPartition struct {
	base

	PrimaryBounds buffer.Ref
	SecondaryKey  buffer.Ref
	out           buffer.Ref
}

var _ Operator = (*SubPartition)(nil)

func NewSubPartition(primaryBounds, secondaryKey, out buffer.Ref) *SubPartition {
	return &SubPartition{PrimaryBounds: primaryBounds, SecondaryKey: secondaryKey, out: out}
}

func (sp *SubPartition) Inputs() []buffer.Ref  { return []buffer.Ref{sp.PrimaryBounds, sp.SecondaryKey} }
func (sp *SubPartition) Outputs() []buffer.Ref { return []buffer.Ref{sp.out} }
func (sp *SubPartition) Allocates() bool       { return true }

func (sp *SubPartition) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	primary := s.I64(sp.PrimaryBounds)
	secondary := s.I64(sp.SecondaryKey)
	out := make([]int64, 0, len(primary))

	start := 0
	for _, b := range primary {
		end := int(b)
		for i := start + 1; i < end; i++ {
			if secondary[i] != secondary[i-1] {
				out = append(out, int64(i))
			}
		}
		start = end
	}
	s.SetI64(sp.out, out)

	return false, nil
}

// MergeDeduplicatePartitioned applies MergeDeduplicate independently within
// each [Bounds[k-1], Bounds[k]) run (the first run starts at 0) rather
// than across the whole vector, used when
// the two sides are each already partitioned by a grouping key and only
// deduplication within a partition is valid (cross-partition keys must
// never merge across a partition boundary).
type MergeDeduplicatePartitioned struct {
	base

	Left, Right         buffer.Ref
	LeftBounds          buffer.Ref
	RightBounds         buffer.Ref
	out                 buffer.Ref
	Ops                 buffer.Ref
}

var _ Operator = (*MergeDeduplicatePartitioned)(nil)

func NewMergeDeduplicatePartitioned(left, right, leftBounds, rightBounds, out, ops buffer.Ref) *MergeDeduplicatePartitioned {
	return &MergeDeduplicatePartitioned{Left: left, Right: right, LeftBounds: leftBounds, RightBounds: rightBounds, out: out, Ops: ops}
}

func (m *MergeDeduplicatePartitioned) Inputs() []buffer.Ref {
	return []buffer.Ref{m.Left, m.Right, m.LeftBounds, m.RightBounds}
}

func (m *MergeDeduplicatePartitioned) Outputs() []buffer.Ref { return []buffer.Ref{m.out, m.Ops} }
func (m *MergeDeduplicatePartitioned) Allocates() bool       { return true }

func (m *MergeDeduplicatePartitioned) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left, right := s.I64(m.Left), s.I64(m.Right)
	leftBounds, rightBounds := s.I64(m.LeftBounds), s.I64(m.RightBounds)
	out := make([]int64, 0, len(left)+len(right))
	ops := make([]uint8, 0, len(left)+len(right))

	ls, rs := 0, 0
	for p := 0; p < len(leftBounds); p++ {
		le, re := int(leftBounds[p]), int(rightBounds[p])
		i, j := ls, rs
		for i < le && j < re {
			switch {
			case left[i] == right[j]:
				out = append(out, left[i])
				ops = append(ops, MergeFromBoth)
				i++
				j++
			case left[i] < right[j]:
				out = append(out, left[i])
				ops = append(ops, MergeFromLeft)
				i++
			default:
				out = append(out, right[j])
				ops = append(ops, MergeFromRight)
				j++
			}
		}
		for ; i < le; i++ {
			out = append(out, left[i])
			ops = append(ops, MergeFromLeft)
		}
		for ; j < re; j++ {
			out = append(out, right[j])
			ops = append(ops, MergeFromRight)
		}
		ls, rs = le, re
	}

	s.SetI64(m.out, out)
	s.SetU8(m.Ops, ops)

	return false, nil
}

// MergePartitioned is MergeDeduplicatePartitioned's non-deduplicating
// sibling: a plain sorted merge performed independently within each
// partition boundary pair.
type MergePartitioned struct {
	base

	Left, Right         buffer.Ref
	LeftBounds          buffer.Ref
	RightBounds         buffer.Ref
	out                 buffer.Ref
	Ops                 buffer.Ref
}

var _ Operator = (*MergePartitioned)(nil)

func NewMergePartitioned(left, right, leftBounds, rightBounds, out, ops buffer.Ref) *MergePartitioned {
	return &MergePartitioned{Left: left, Right: right, LeftBounds: leftBounds, RightBounds: rightBounds, out: out, Ops: ops}
}

func (m *MergePartitioned) Inputs() []buffer.Ref {
	return []buffer.Ref{m.Left, m.Right, m.LeftBounds, m.RightBounds}
}

func (m *MergePartitioned) Outputs() []buffer.Ref { return []buffer.Ref{m.out, m.Ops} }
func (m *MergePartitioned) Allocates() bool       { return true }

func (m *MergePartitioned) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left, right := s.I64(m.Left), s.I64(m.Right)
	leftBounds, rightBounds := s.I64(m.LeftBounds), s.I64(m.RightBounds)
	out := make([]int64, 0, len(left)+len(right))
	ops := make([]uint8, 0, len(left)+len(right))

	ls, rs := 0, 0
	for p := 0; p < len(leftBounds); p++ {
		le, re := int(leftBounds[p]), int(rightBounds[p])
		i, j := ls, rs
		for i < le && j < re {
			if left[i] <= right[j] {
				out = append(out, left[i])
				ops = append(ops, MergeFromLeft)
				i++
			} else {
				out = append(out, right[j])
				ops = append(ops, MergeFromRight)
				j++
			}
		}
		for ; i < le; i++ {
			out = append(out, left[i])
			ops = append(ops, MergeFromLeft)
		}
		for ; j < re; j++ {
			out = append(out, right[j])
			ops = append(ops, MergeFromRight)
		}
		ls, rs = le, re
	}

	s.SetI64(m.out, out)
	s.SetU8(m.Ops, ops)

	return false, nil
}
