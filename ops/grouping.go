package ops

import (
	"github.com/cswinter/locustdb-go/buffer"
)

// HashMapGrouping assigns a dense group id to each distinct i64 key,
// preserving first-seen order, via a Go map from key to id. The map is
// keyed on the value itself, so two distinct keys never share an id.
type HashMapGrouping struct {
	base

	Keys buffer.Ref
	out  buffer.Ref // group id per row, u32

	index map[int64]uint32
	next  uint32
}

var _ Operator = (*HashMapGrouping)(nil)

func NewHashMapGrouping(keys, out buffer.Ref) *HashMapGrouping {
	return &HashMapGrouping{Keys: keys, out: out, index: make(map[int64]uint32)}
}

func (g *HashMapGrouping) Inputs() []buffer.Ref  { return []buffer.Ref{g.Keys} }
func (g *HashMapGrouping) Outputs() []buffer.Ref { return []buffer.Ref{g.out} }
func (g *HashMapGrouping) Allocates() bool       { return true }

// GroupCount reports the number of distinct keys seen so far.
func (g *HashMapGrouping) GroupCount() int { return int(g.next) }

// GroupValues reconstructs the real i64 key for every discovered group id,
// indexed by id (0..GroupCount()-1) — the inverse of the id assignment
// Execute performs, needed because a group id is only meaningful within the
// partition that assigned it: merging two partitions' results has to compare
// actual key values, not the dense ids each partition happened to pick.
func (g *HashMapGrouping) GroupValues() []int64 {
	values := make([]int64, g.next)
	for k, id := range g.index {
		values[id] = k
	}

	return values
}

func (g *HashMapGrouping) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	keys := s.I64(g.Keys)
	out := make([]uint32, len(keys))
	for i, k := range keys {
		id, ok := g.index[k]
		if !ok {
			id = g.next
			g.index[k] = id
			g.next++
		}
		out[i] = id
	}
	s.SetU32(g.out, out)

	return false, nil
}

// HashMapGroupingByteSlices mirrors HashMapGrouping for string keys. It
// hashes nothing itself: the map is keyed directly on the string value,
// since exact equality (not an approximate identity hash) is what grouping
// correctness requires.
type HashMapGroupingByteSlices struct {
	base

	Keys buffer.Ref
	out  buffer.Ref

	index map[string]uint32
	next  uint32
}

var _ Operator = (*HashMapGroupingByteSlices)(nil)

func NewHashMapGroupingByteSlices(keys, out buffer.Ref) *HashMapGroupingByteSlices {
	return &HashMapGroupingByteSlices{Keys: keys, out: out, index: make(map[string]uint32)}
}

func (g *HashMapGroupingByteSlices) Inputs() []buffer.Ref  { return []buffer.Ref{g.Keys} }
func (g *HashMapGroupingByteSlices) Outputs() []buffer.Ref { return []buffer.Ref{g.out} }
func (g *HashMapGroupingByteSlices) Allocates() bool       { return true }
func (g *HashMapGroupingByteSlices) GroupCount() int { return int(g.next) }

// GroupValues is HashMapGrouping.GroupValues's string-keyed counterpart.
func (g *HashMapGroupingByteSlices) GroupValues() []string {
	values := make([]string, g.next)
	for k, id := range g.index {
		values[id] = k
	}

	return values
}

func (g *HashMapGroupingByteSlices) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	keys := s.Str(g.Keys)
	out := make([]uint32, len(keys))
	for i, k := range keys {
		id, ok := g.index[k]
		if !ok {
			id = g.next
			g.index[k] = id
			g.next++
		}
		out[i] = id
	}
	s.SetU32(g.out, out)

	return false, nil
}

// DirectGrouping assigns group ids by direct addressing: keys are assumed
// to lie in a known, small [Min, Min+Cardinality) range, so the "group id"
// is the key minus Min with no map lookup required. This is the cheapest of the three grouping
// strategies and is selected by the planner only when a column's Range is
// Known and narrow enough.
type DirectGrouping struct {
	base

	Keys        buffer.Ref
	Min         int64
	Cardinality int
	out         buffer.Ref
}

var _ Operator = (*DirectGrouping)(nil)

func NewDirectGrouping(keys buffer.Ref, min int64, cardinality int, out buffer.Ref) *DirectGrouping {
	return &DirectGrouping{Keys: keys, Min: min, Cardinality: cardinality, out: out}
}

func (g *DirectGrouping) Inputs() []buffer.Ref  { return []buffer.Ref{g.Keys} }
func (g *DirectGrouping) Outputs() []buffer.Ref { return []buffer.Ref{g.out} }
func (g *DirectGrouping) Allocates() bool       { return true }

func (g *DirectGrouping) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	keys := s.I64(g.Keys)
	out := make([]uint32, len(keys))
	for i, k := range keys {
		out[i] = uint32(k - g.Min)
	}
	s.SetU32(g.out, out)

	return false, nil
}
