package ops

import (
	"container/heap"
	"sort"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/types"
)

// SortBy produces a permutation of [0, n) that orders In ascending
// (Descending=false) or descending (Descending=true), stable so that ties
// preserve row order, so results stay deterministic wherever ties occur.
// Execute reads In's Encoding and selects a comparison over either the
// I64 or F64 key vector.
type SortBy struct {
	base

	In         buffer.Ref
	Descending bool
	out        buffer.Ref
}

var _ Operator = (*SortBy)(nil)

func NewSortBy(in buffer.Ref, descending bool, out buffer.Ref) *SortBy {
	return &SortBy{In: in, Descending: descending, out: out}
}

func (sb *SortBy) Inputs() []buffer.Ref  { return []buffer.Ref{sb.In} }
func (sb *SortBy) Outputs() []buffer.Ref { return []buffer.Ref{sb.out} }
func (sb *SortBy) Allocates() bool       { return true }

func (sb *SortBy) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	var n int
	var less func(i, j int) bool
	idx := []uint32{}

	switch sb.In.Encoding() {
	case types.F64:
		in := s.F64(sb.In)
		n = len(in)
		idx = make([]uint32, n)
		less = func(i, j int) bool { return in[idx[i]] < in[idx[j]] }
		if sb.Descending {
			less = func(i, j int) bool { return in[idx[i]] > in[idx[j]] }
		}
	default:
		in := s.I64(sb.In)
		n = len(in)
		idx = make([]uint32, n)
		less = func(i, j int) bool { return in[idx[i]] < in[idx[j]] }
		if sb.Descending {
			less = func(i, j int) bool { return in[idx[i]] > in[idx[j]] }
		}
	}
	for i := range idx {
		idx[i] = uint32(i)
	}
	sort.SliceStable(idx, less)

	s.SetU32(sb.out, idx)

	return false, nil
}

// TopNKind selects the ordering direction a TopN keeps: the K smallest
// (LessThan, an ascending LIMIT) or K largest (GreaterThan, descending).
type TopNKind uint8

const (
	TopNLessThan TopNKind = iota
	TopNGreaterThan
)

type topNHeap struct {
	keys []int64
	idx  []uint32
	kind TopNKind
}

func (h topNHeap) Len() int { return len(h.keys) }
func (h topNHeap) Less(i, j int) bool {
	// A min-heap on the "worse" ordering so the root is the first element
	// to evict once the heap reaches capacity K.
	if h.kind == TopNLessThan {
		return h.keys[i] > h.keys[j]
	}

	return h.keys[i] < h.keys[j]
}
func (h topNHeap) Swap(i, j int) {
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.idx[i], h.idx[j] = h.idx[j], h.idx[i]
}
func (h *topNHeap) Push(x any) {
	p := x.([2]int64)
	h.keys = append(h.keys, p[0])
	h.idx = append(h.idx, uint32(p[1]))
}
func (h *topNHeap) Pop() any {
	n := len(h.keys)
	k, i := h.keys[n-1], h.idx[n-1]
	h.keys = h.keys[:n-1]
	h.idx = h.idx[:n-1]

	return [2]int64{k, int64(i)}
}

// TopN keeps the K rows of In that compare best under Kind, returning
// their original indices sorted so the best row is first — the planner
// decides whether to fall back to SortBy for a large K before ever
// constructing a TopN; TopN itself has no cap.
type TopN struct {
	base

	In   buffer.Ref
	K    int
	Kind TopNKind
	out  buffer.Ref
}

var _ Operator = (*TopN)(nil)

func NewTopN(in buffer.Ref, k int, kind TopNKind, out buffer.Ref) *TopN {
	return &TopN{In: in, K: k, Kind: kind, out: out}
}

func (t *TopN) Inputs() []buffer.Ref        { return []buffer.Ref{t.In} }
func (t *TopN) Outputs() []buffer.Ref       { return []buffer.Ref{t.out} }
func (t *TopN) Allocates() bool             { return true }
func (t *TopN) FixedOutputLen() (int, bool) { return t.K, true }

func (t *TopN) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	if t.In.Encoding() == types.F64 {
		return t.executeFloat(s)
	}

	in := s.I64(t.In)
	k := t.K
	if k > len(in) {
		k = len(in)
	}

	h := &topNHeap{kind: t.Kind}
	heap.Init(h)
	for i, v := range in {
		if h.Len() < k {
			heap.Push(h, [2]int64{v, int64(i)})

			continue
		}
		if (t.Kind == TopNLessThan && v < h.keys[0]) || (t.Kind == TopNGreaterThan && v > h.keys[0]) {
			heap.Pop(h)
			heap.Push(h, [2]int64{v, int64(i)})
		}
	}

	idx := make([]uint32, len(h.idx))
	copy(idx, h.idx)
	keys := make([]int64, len(h.keys))
	copy(keys, h.keys)

	less := func(i, j int) bool { return keys[i] < keys[j] }
	if t.Kind == TopNGreaterThan {
		less = func(i, j int) bool { return keys[i] > keys[j] }
	}
	sort.Sort(&sortPair{keys: keys, idx: idx, less: less})

	s.SetU32(t.out, idx)

	return false, nil
}

// topNHeapF64 mirrors topNHeap for a float64-keyed TopN (e.g. ORDER BY on a
// float column), since the i64 heap above can't carry a float comparison key.
type topNHeapF64 struct {
	keys []float64
	idx  []uint32
	kind TopNKind
}

func (h topNHeapF64) Len() int { return len(h.keys) }
func (h topNHeapF64) Less(i, j int) bool {
	if h.kind == TopNLessThan {
		return h.keys[i] > h.keys[j]
	}

	return h.keys[i] < h.keys[j]
}
func (h topNHeapF64) Swap(i, j int) {
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.idx[i], h.idx[j] = h.idx[j], h.idx[i]
}
func (h *topNHeapF64) Push(x any) {
	p := x.([2]float64)
	h.keys = append(h.keys, p[0])
	h.idx = append(h.idx, uint32(p[1]))
}
func (h *topNHeapF64) Pop() any {
	n := len(h.keys)
	k, i := h.keys[n-1], h.idx[n-1]
	h.keys = h.keys[:n-1]
	h.idx = h.idx[:n-1]

	return [2]float64{k, float64(i)}
}

func (t *TopN) executeFloat(s *buffer.Scratchpad) (more bool, err error) {
	in := s.F64(t.In)
	k := t.K
	if k > len(in) {
		k = len(in)
	}

	h := &topNHeapF64{kind: t.Kind}
	heap.Init(h)
	for i, v := range in {
		if h.Len() < k {
			heap.Push(h, [2]float64{v, float64(i)})

			continue
		}
		if (t.Kind == TopNLessThan && v < h.keys[0]) || (t.Kind == TopNGreaterThan && v > h.keys[0]) {
			heap.Pop(h)
			heap.Push(h, [2]float64{v, float64(i)})
		}
	}

	idx := make([]uint32, len(h.idx))
	copy(idx, h.idx)
	keys := make([]float64, len(h.keys))
	copy(keys, h.keys)

	less := func(i, j int) bool { return keys[i] < keys[j] }
	if t.Kind == TopNGreaterThan {
		less = func(i, j int) bool { return keys[i] > keys[j] }
	}
	sort.Sort(&sortPairF64{keys: keys, idx: idx, less: less})

	s.SetU32(t.out, idx)

	return false, nil
}

type sortPairF64 struct {
	keys []float64
	idx  []uint32
	less func(i, j int) bool
}

func (p *sortPairF64) Len() int           { return len(p.keys) }
func (p *sortPairF64) Less(i, j int) bool { return p.less(i, j) }
func (p *sortPairF64) Swap(i, j int) {
	p.keys[i], p.keys[j] = p.keys[j], p.keys[i]
	p.idx[i], p.idx[j] = p.idx[j], p.idx[i]
}

type sortPair struct {
	keys []int64
	idx  []uint32
	less func(i, j int) bool
}

func (p *sortPair) Len() int           { return len(p.keys) }
func (p *sortPair) Less(i, j int) bool { return p.less(i, j) }
func (p *sortPair) Swap(i, j int) {
	p.keys[i], p.keys[j] = p.keys[j], p.keys[i]
	p.idx[i], p.idx[j] = p.idx[j], p.idx[i]
}
