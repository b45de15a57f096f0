// Package buffer defines the scratchpad, buffer handles, and scalar
// values that are the only currency passed between the planner, the
// operator library, and the executor. A Ref is produced by exactly one
// operator and is never dereferenced by the planner — only the executor's
// Scratchpad resolves a Ref to live data, at execution time.
package buffer

import (
	"github.com/cswinter/locustdb-go/internal/pool"
	"github.com/cswinter/locustdb-go/types"
)

// Ref is an opaque, typed index into a Scratchpad. Two Refs are equal iff
// they were produced by the same operator call.
type Ref struct {
	idx uint32
	enc types.Encoding
}

// Encoding reports the tagged encoding type of the buffer this Ref refers to.
func (r Ref) Encoding() types.Encoding { return r.enc }

// Valid reports whether r was ever assigned by an Allocator (the zero Ref is
// invalid and is used as a sentinel "no input" value by some operators).
func (r Ref) Valid() bool { return r.enc != types.Unspecified }

// Index exposes the raw slot index, used only for dependency-ordering
// checks in the executor's stage topological sort (package exec) — never
// by the planner to read data.
func (r Ref) Index() uint32 { return r.idx }

// Scalar is a single constant value used for scalar×vector operator forms.
type Scalar struct {
	enc types.Encoding
	i   int64
	f   float64
	s   string
}

func ScalarInt(v int64) Scalar   { return Scalar{enc: types.ScalarI64, i: v} }
func ScalarFloat(v float64) Scalar { return Scalar{enc: types.ScalarF64, f: v} }
func ScalarStr(v string) Scalar  { return Scalar{enc: types.ScalarStr, s: v} }

func (s Scalar) Encoding() types.Encoding { return s.enc }
func (s Scalar) Int() int64              { return s.i }
func (s Scalar) Float() float64          { return s.f }
func (s Scalar) Str() string             { return s.s }

// slot holds one scratchpad buffer's live data, tagged by Encoding. Exactly
// one field is populated per slot, selected by enc.
type slot struct {
	enc      types.Encoding
	u8       []uint8
	u16      []uint16
	u32      []uint32
	u64      []uint64
	i64      []int64
	f64      []float64
	str      []string
	presence []uint8 // bit i set => value i present; used by nullable overlays
	scalar   Scalar
	release  func() // returns pooled backing storage, if any
}

// Allocator is the planner-facing half of Ref issuance: it hands out
// monotonically increasing Refs tagged with an encoding, without knowing
// anything about the eventual live data. Package plan's Builder embeds one.
type Allocator struct {
	next uint32
}

// Alloc reserves the next Ref for an output of the given encoding.
func (a *Allocator) Alloc(enc types.Encoding) Ref {
	r := Ref{idx: a.next, enc: enc}
	a.next++

	return r
}

// Checkpoint returns an opaque mark that Reset can roll back to, supporting
// the planner's checkpoint()/reset() speculative-compilation support.
func (a *Allocator) Checkpoint() uint32 { return a.next }

// Reset rolls the allocator back to a previous checkpoint, discarding Refs
// issued since. The caller is responsible for discarding the operators that
// referenced the rolled-back Refs too (package plan's Builder does this).
func (a *Allocator) Reset(mark uint32) { a.next = mark }

// Len reports how many Refs have been issued.
func (a *Allocator) Len() int { return int(a.next) }

// Scratchpad is the executor's indexed pool of typed buffer slots. It is
// owned by exactly one Executor instance and is never shared across
// partitions.
type Scratchpad struct {
	slots []slot
}

// New creates a Scratchpad sized to hold n Refs worth of slots, matching an
// Allocator.Len() snapshot from the plan that will execute against it.
func New(n int) *Scratchpad {
	return &Scratchpad{slots: make([]slot, n)}
}

// Grow extends the scratchpad to hold at least n slots, used when the
// planner issues more Refs after a checkpoint/reset than it did on a prior
// speculative pass.
func (s *Scratchpad) Grow(n int) {
	if len(s.slots) >= n {
		return
	}
	grown := make([]slot, n)
	copy(grown, s.slots)
	s.slots = grown
}

func (s *Scratchpad) slotFor(r Ref) *slot { return &s.slots[r.idx] }

// SetU8 stores a uint8 vector (or ByteVec boolean mask) at r.
func (s *Scratchpad) SetU8(r Ref, v []uint8) { sl := s.slotFor(r); sl.enc = r.enc; sl.u8 = v }

// U8 retrieves the uint8 vector stored at r.
func (s *Scratchpad) U8(r Ref) []uint8 { return s.slotFor(r).u8 }

func (s *Scratchpad) SetU16(r Ref, v []uint16) { sl := s.slotFor(r); sl.enc = r.enc; sl.u16 = v }
func (s *Scratchpad) U16(r Ref) []uint16       { return s.slotFor(r).u16 }

func (s *Scratchpad) SetU32(r Ref, v []uint32) { sl := s.slotFor(r); sl.enc = r.enc; sl.u32 = v }
func (s *Scratchpad) U32(r Ref) []uint32       { return s.slotFor(r).u32 }

func (s *Scratchpad) SetU64(r Ref, v []uint64) { sl := s.slotFor(r); sl.enc = r.enc; sl.u64 = v }
func (s *Scratchpad) U64(r Ref) []uint64       { return s.slotFor(r).u64 }

func (s *Scratchpad) SetI64(r Ref, v []int64) { sl := s.slotFor(r); sl.enc = r.enc; sl.i64 = v }
func (s *Scratchpad) I64(r Ref) []int64       { return s.slotFor(r).i64 }

func (s *Scratchpad) SetF64(r Ref, v []float64) { sl := s.slotFor(r); sl.enc = r.enc; sl.f64 = v }
func (s *Scratchpad) F64(r Ref) []float64       { return s.slotFor(r).f64 }

func (s *Scratchpad) SetStr(r Ref, v []string) { sl := s.slotFor(r); sl.enc = r.enc; sl.str = v }
func (s *Scratchpad) Str(r Ref) []string       { return s.slotFor(r).str }

// SetPresence stores the nullable overlay's presence bitset (one bit per
// element, packed 8-to-a-byte, length = ceil(data length / 8)).
func (s *Scratchpad) SetPresence(r Ref, v []uint8) { s.slotFor(r).presence = v }
func (s *Scratchpad) Presence(r Ref) []uint8       { return s.slotFor(r).presence }

func (s *Scratchpad) SetScalar(r Ref, v Scalar) { sl := s.slotFor(r); sl.enc = r.enc; sl.scalar = v }
func (s *Scratchpad) Scalar(r Ref) Scalar       { return s.slotFor(r).scalar }

// SetRelease registers a cleanup closure (typically a pool.Get* cleanup) to
// run when the executor recycles this slot's storage.
func (s *Scratchpad) SetRelease(r Ref, release func()) { s.slotFor(r).release = release }

// Release runs and clears r's registered cleanup, if any.
func (s *Scratchpad) Release(r Ref) {
	sl := s.slotFor(r)
	if sl.release != nil {
		sl.release()
		sl.release = nil
	}
}

// ReleaseAll runs every slot's registered cleanup, returning any pooled
// backing storage (e.g. ops.LZ4Decode's/ZstdDecode's/S2Decode's blob-pool
// borrow) once this Scratchpad's data is no longer needed by anything.
func (s *Scratchpad) ReleaseAll() {
	for i := range s.slots {
		sl := &s.slots[i]
		if sl.release != nil {
			sl.release()
			sl.release = nil
		}
	}
}

// PresenceBit reports whether element i is present in a nullable overlay's
// bitset: bit i set means "value present".
func PresenceBit(presence []uint8, i int) bool {
	return presence[i/8]&(1<<uint(i%8)) != 0
}

// SetPresenceBit sets or clears bit i in a nullable overlay's bitset.
func SetPresenceBit(presence []uint8, i int, v bool) {
	if v {
		presence[i/8] |= 1 << uint(i%8)
	} else {
		presence[i/8] &^= 1 << uint(i%8)
	}
}

// NewPresence allocates a presence bitset of the correct length for n
// elements (rounded up by 8), all bits initially set
// (present) — callers that compute presence from scratch should zero the
// bits they find absent rather than relying on this default for "unknown".
func NewPresence(n int) ([]uint8, func()) {
	bytes, release := pool.GetUint8Slice((n + 7) / 8)
	for i := range bytes {
		bytes[i] = 0xFF
	}

	return bytes, release
}
