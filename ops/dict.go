package ops

import (
	"sort"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/codec"
)

// DictLookup decodes a vector of dictionary codes into their string
// values, given the dictionary's offset table and backing heap (see
// codec.DictEntry). This is the runtime counterpart of codec.Codec's
// DictLookup op.
type DictLookup struct {
	base

	Codes   buffer.Ref
	Entries []codec.DictEntry
	Heap    []byte
	out     buffer.Ref
}

var _ Operator = (*DictLookup)(nil)

func NewDictLookup(codes buffer.Ref, entries []codec.DictEntry, heap []byte, out buffer.Ref) *DictLookup {
	return &DictLookup{Codes: codes, Entries: entries, Heap: heap, out: out}
}

func (d *DictLookup) Inputs() []buffer.Ref  { return []buffer.Ref{d.Codes} }
func (d *DictLookup) Outputs() []buffer.Ref { return []buffer.Ref{d.out} }
func (d *DictLookup) Allocates() bool       { return true }

func (d *DictLookup) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	codes := s.I64(d.Codes)
	out := make([]string, len(codes))
	for i, c := range codes {
		e := d.Entries[c]
		out[i] = string(d.Heap[e.Offset : e.Offset+uint64(e.Length)])
	}
	s.SetStr(d.out, out)

	return false, nil
}

// InverseDictLookup encodes a vector of string values into dictionary
// codes via binary search over the same sorted offset table DictLookup
// reads, used when a filter or join literal must be pushed through a
// dictionary-encoded column at runtime rather than at plan time (plan-time
// literals use codec.Codec.EncodeStr directly).
type InverseDictLookup struct {
	base

	Values  buffer.Ref
	Entries []codec.DictEntry
	Heap    []byte
	out     buffer.Ref
}

var _ Operator = (*InverseDictLookup)(nil)

func NewInverseDictLookup(values buffer.Ref, entries []codec.DictEntry, heap []byte, out buffer.Ref) *InverseDictLookup {
	return &InverseDictLookup{Values: values, Entries: entries, Heap: heap, out: out}
}

func (d *InverseDictLookup) Inputs() []buffer.Ref  { return []buffer.Ref{d.Values} }
func (d *InverseDictLookup) Outputs() []buffer.Ref { return []buffer.Ref{d.out} }
func (d *InverseDictLookup) Allocates() bool       { return true }

func (d *InverseDictLookup) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	values := s.Str(d.Values)
	out := make([]int64, len(values))
	for i, v := range values {
		idx := sort.Search(len(d.Entries), func(j int) bool {
			e := d.Entries[j]

			return string(d.Heap[e.Offset:e.Offset+uint64(e.Length)]) >= v
		})
		if idx < len(d.Entries) {
			e := d.Entries[idx]
			if string(d.Heap[e.Offset:e.Offset+uint64(e.Length)]) == v {
				out[i] = int64(idx)

				continue
			}
		}
		out[i] = -1 // not found: caller treats as "no row matches"
	}
	s.SetI64(d.out, out)

	return false, nil
}
