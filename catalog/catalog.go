// Package catalog describes the external contract the execution core
// consumes from its collaborators: a column catalog of typed data
// sections plus codec, and a set of resident partitions. Nothing in this
// package materializes or decodes data; it only describes shapes that the
// WAL/partition-file reader and ingestion buffer (out of scope for this
// module) are assumed to provide.
package catalog

import "github.com/cswinter/locustdb-go/types"

// Range is an optional (min, max) hint attached to a Column, used by the
// planner to size group-by keys and pick bit-packing widths.
type Range struct {
	Min, Max int64
	Known    bool
}

// Section is one typed, contiguous data section: one input to a codec
// stack program (see package codec).
type Section struct {
	Encoding types.Encoding
	// Data holds the raw section contents, typed according to Encoding.
	// Exactly one of the typed fields below is populated, selected by
	// Encoding; Len abstracts over this for planner/executor code that
	// only needs the length.
	U8  []uint8
	U16 []uint16
	U32 []uint32
	U64 []uint64
	I64 []int64
	F64 []float64
	Str []string
}

// Len returns the number of elements in the section, independent of which
// typed field is populated.
func (s Section) Len() int {
	switch s.Encoding {
	case types.U8, types.ByteVec:
		return len(s.U8)
	case types.U16:
		return len(s.U16)
	case types.U32:
		return len(s.U32)
	case types.U64:
		return len(s.U64)
	case types.I64:
		return len(s.I64)
	case types.F64:
		return len(s.F64)
	case types.Str:
		return len(s.Str)
	default:
		return 0
	}
}

// Column is a named, length-known sequence of data sections plus a codec,
// plus an optional range hint. Codec is declared as an interface here
// (codec.Codec implements it) so that package catalog does not import
// codec, the same way a description of an encoding can be referenced
// without importing the package that actually runs it.
type Column struct {
	Name     string
	Length   int
	Sections []Section
	Codec    Codec
	Range    Range
	Basic    types.Basic
}

// Codec is the subset of codec.Codec's surface the catalog needs to
// describe a column without importing package codec. Concrete codecs
// additionally implement codec.Codec.
type Codec interface {
	// Identity reports whether the op list is empty.
	Identity() bool
	// Signature produces a deterministic textual descriptor for explain output.
	Signature() string
}

// Partition is a horizontal slice of a table: the set of columns for rows
// [offset, offset+len). Partitions are immutable once sealed; resident
// columns may be evicted and reloaded by an external LRU (out of scope).
type Partition interface {
	// ID is a stable identifier used for debug output selection and stats.
	ID() int
	// Len is the number of rows in the partition. Invariant: every Column
	// reachable via Column(name) has Length == Len().
	Len() int
	// Column fetches a resident column by name, loading it through the
	// external disk-read scheduler if necessary. This call is synchronous
	// and may block.
	Column(name string) (*Column, bool)
	// Names lists the columns available in this partition.
	Names() []string
}
