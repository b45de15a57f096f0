// Package codec models the stack-program codec that decodes a column's
// on-disk data sections into a logical column, and the semantic predicates
// (order-preserving, summation-preserving, elementwise-decodable) the
// planner folds over an op list to decide how to compile reads of that
// column.
//
// This package is deliberately execution-free: it describes *what* a codec
// does and *which properties it has*, not how to run it. Package plan
// consumes codec.Codec to emit operator intents (package ops) that perform
// the actual decode at query time — describing an encoding is kept
// separate from running it.
package codec

import (
	"strconv"
	"strings"

	"github.com/cswinter/locustdb-go/types"
)

// OpKind identifies a codec operation. The concrete Op types below each
// report one of these from Kind().
type OpKind uint8

const (
	OpNullable OpKind = iota
	OpRoaringNullable
	OpAdd
	OpDelta
	OpToI64
	OpPushDataSection
	OpDictLookup
	OpLZ4
	OpZstd
	OpS2
	OpUnpackStrings
	OpUnhexpackStrings
	OpUnknown
)

func (k OpKind) String() string {
	switch k {
	case OpNullable:
		return "Nullable"
	case OpRoaringNullable:
		return "RoaringNullable"
	case OpAdd:
		return "Add"
	case OpDelta:
		return "Delta"
	case OpToI64:
		return "ToI64"
	case OpPushDataSection:
		return "PushDataSection"
	case OpDictLookup:
		return "DictLookup"
	case OpLZ4:
		return "LZ4"
	case OpZstd:
		return "Zstd"
	case OpS2:
		return "S2"
	case OpUnpackStrings:
		return "UnpackStrings"
	case OpUnhexpackStrings:
		return "UnhexpackStrings"
	default:
		return "Unknown"
	}
}

// Op is one codec stack-program operation. Each pops its arguments from the
// (conceptual) decode stack and pushes one result.
type Op interface {
	Kind() OpKind
	// OrderPreserving reports whether this op, applied alone, preserves the
	// sort order of its input.
	OrderPreserving() bool
	// SummationPreserving reports whether sums commute with this op's decode.
	SummationPreserving() bool
	// ElementwiseDecodable reports whether decoding this op commutes with
	// arbitrary index-subset selection.
	ElementwiseDecodable() bool
	// String renders the op for Signature().
	String() string
}

// Nullable combines a data section with a presence bitset.
type Nullable struct{}

func (Nullable) Kind() OpKind               { return OpNullable }
func (Nullable) OrderPreserving() bool      { return true }
func (Nullable) SummationPreserving() bool  { return false }
func (Nullable) ElementwiseDecodable() bool { return true }
func (Nullable) String() string             { return "Nullable" }

// RoaringNullable combines a data section with a presence section stored as
// a serialized compact bitmap rather than a raw packed-byte bitset, for
// sparse nullable columns where most rows are absent.
type RoaringNullable struct{}

func (RoaringNullable) Kind() OpKind               { return OpRoaringNullable }
func (RoaringNullable) OrderPreserving() bool      { return true }
func (RoaringNullable) SummationPreserving() bool  { return false }
func (RoaringNullable) ElementwiseDecodable() bool { return true }
func (RoaringNullable) String() string             { return "RoaringNullable" }

// Add is an offset decode: output = encoded + K.
type Add struct {
	Width types.Encoding
	K     int64
}

func (Add) Kind() OpKind              { return OpAdd }
func (Add) OrderPreserving() bool     { return true }
func (a Add) SummationPreserving() bool {
	return a.K == 0
}
func (Add) ElementwiseDecodable() bool { return true }
func (a Add) String() string           { return "Add(" + a.Width.String() + ", " + strconv.FormatInt(a.K, 10) + ")" }

// Delta is a prefix-sum decode.
type Delta struct {
	Width types.Encoding
}

func (Delta) Kind() OpKind              { return OpDelta }
func (Delta) OrderPreserving() bool     { return false }
func (Delta) SummationPreserving() bool { return false }
func (Delta) ElementwiseDecodable() bool {
	return false
}
func (d Delta) String() string { return "Delta(" + d.Width.String() + ")" }

// ToI64 is a width extension to i64.
type ToI64 struct {
	Width types.Encoding
}

func (ToI64) Kind() OpKind               { return OpToI64 }
func (ToI64) OrderPreserving() bool      { return true }
func (ToI64) SummationPreserving() bool  { return true }
func (ToI64) ElementwiseDecodable() bool { return true }
func (t ToI64) String() string           { return "ToI64(" + t.Width.String() + ")" }

// PushDataSection loads data section i onto the stack.
type PushDataSection struct {
	Index int
}

func (PushDataSection) Kind() OpKind               { return OpPushDataSection }
func (PushDataSection) OrderPreserving() bool      { return true }
func (PushDataSection) SummationPreserving() bool  { return true }
func (PushDataSection) ElementwiseDecodable() bool { return true }
func (p PushDataSection) String() string           { return "PushDataSection(" + strconv.Itoa(p.Index) + ")" }

// DictLookup is a three-operand op: indices + offset/length table + string
// heap -> strings.
type DictLookup struct {
	IndexWidth types.Encoding
}

func (DictLookup) Kind() OpKind               { return OpDictLookup }
func (DictLookup) OrderPreserving() bool      { return false }
func (DictLookup) SummationPreserving() bool  { return false }
func (DictLookup) ElementwiseDecodable() bool { return true }
func (d DictLookup) String() string           { return "DictLookup(" + d.IndexWidth.String() + ")" }

// LZ4 block-decompresses to a typed vector of DecodedLen elements.
type LZ4 struct {
	Width      types.Encoding
	DecodedLen int
}

func (LZ4) Kind() OpKind               { return OpLZ4 }
func (LZ4) OrderPreserving() bool      { return false }
func (LZ4) SummationPreserving() bool  { return false }
func (LZ4) ElementwiseDecodable() bool { return false }
func (l LZ4) String() string {
	return "LZ4(" + l.Width.String() + ", " + strconv.Itoa(l.DecodedLen) + ")"
}

// Zstd block-decompresses to a typed vector of DecodedLen elements, used for
// data sections where LZ4's lower compression ratio costs more storage than
// Zstd's extra decode latency is worth paying back.
type Zstd struct {
	Width      types.Encoding
	DecodedLen int
}

func (Zstd) Kind() OpKind               { return OpZstd }
func (Zstd) OrderPreserving() bool      { return false }
func (Zstd) SummationPreserving() bool  { return false }
func (Zstd) ElementwiseDecodable() bool { return false }
func (z Zstd) String() string {
	return "Zstd(" + z.Width.String() + ", " + strconv.Itoa(z.DecodedLen) + ")"
}

// S2 block-decompresses to a typed vector of DecodedLen elements, the
// Snappy-compatible format favoring decode throughput over ratio.
type S2 struct {
	Width      types.Encoding
	DecodedLen int
}

func (S2) Kind() OpKind               { return OpS2 }
func (S2) OrderPreserving() bool      { return false }
func (S2) SummationPreserving() bool  { return false }
func (S2) ElementwiseDecodable() bool { return false }
func (s S2) String() string {
	return "S2(" + s.Width.String() + ", " + strconv.Itoa(s.DecodedLen) + ")"
}

// UnpackStrings turns length-prefixed packed strings into a string vector.
type UnpackStrings struct{}

func (UnpackStrings) Kind() OpKind               { return OpUnpackStrings }
func (UnpackStrings) OrderPreserving() bool      { return false }
func (UnpackStrings) SummationPreserving() bool  { return false }
func (UnpackStrings) ElementwiseDecodable() bool { return false }
func (UnpackStrings) String() string             { return "UnpackStrings" }

// UnhexpackStrings turns hex-pairs into raw bytes, optionally uppercase hex.
type UnhexpackStrings struct {
	Upper      bool
	TotalBytes int
}

func (UnhexpackStrings) Kind() OpKind               { return OpUnhexpackStrings }
func (UnhexpackStrings) OrderPreserving() bool      { return false }
func (UnhexpackStrings) SummationPreserving() bool  { return false }
func (UnhexpackStrings) ElementwiseDecodable() bool { return false }
func (u UnhexpackStrings) String() string {
	return "UnhexpackStrings(" + strconv.FormatBool(u.Upper) + ", " + strconv.Itoa(u.TotalBytes) + ")"
}

// Unknown is only produced for forward-compatibility of persisted plans. It
// must raise errs.ErrUnknownCodecOp on decode; see plan's lowering of it.
type Unknown struct {
	Tag byte
}

func (Unknown) Kind() OpKind               { return OpUnknown }
func (Unknown) OrderPreserving() bool      { return false }
func (Unknown) SummationPreserving() bool  { return false }
func (Unknown) ElementwiseDecodable() bool { return false }
func (u Unknown) String() string           { return "Unknown(0x" + strconv.FormatUint(uint64(u.Tag), 16) + ")" }

// Codec is an ordered sequence of codec operations transforming data
// sections into a decoded column.
type Codec struct {
	Ops []Op
}

// New builds a Codec from an ordered op list.
func New(ops ...Op) Codec { return Codec{Ops: ops} }

// Identity reports whether the codec is empty.
func (c Codec) Identity() bool { return len(c.Ops) == 0 }

// OrderPreserving folds short-circuit over the op list: the codec's
// encoding sort order equals decoded sort order iff every op preserves order.
func (c Codec) OrderPreserving() bool {
	for _, op := range c.Ops {
		if !op.OrderPreserving() {
			return false
		}
	}

	return true
}

// SummationPreserving folds short-circuit over the op list: sums of encoded
// values, mapped back by a linear decode, equal sums of decoded values iff
// every op is summation-preserving.
func (c Codec) SummationPreserving() bool {
	for _, op := range c.Ops {
		if !op.SummationPreserving() {
			return false
		}
	}

	return true
}

// ElementwiseDecodable folds short-circuit over the op list: any index
// subset can be decoded independently iff every op is elementwise decodable.
func (c Codec) ElementwiseDecodable() bool {
	for _, op := range c.Ops {
		if !op.ElementwiseDecodable() {
			return false
		}
	}

	return true
}

// EnsureFixedWidth splits the op list into the minimal suffix whose removal
// makes the remainder elementwise decodable. It returns the index at which
// that suffix begins (len(c.Ops) if the codec is already fully elementwise
// decodable, i.e. the suffix is empty).
//
// The caller (package plan) executes the ops in [splitAt:] eagerly against
// the already-decoded prefix and builds a new residual Codec describing the
// partially decoded column — this function only computes where to split.
func (c Codec) EnsureFixedWidth() (splitAt int) {
	// ElementwiseDecodable is a per-op property, so Codec.Ops[:i] is
	// decodable iff every op before the first non-decodable one is
	// included. The maximal such prefix — i.e. the minimal suffix to
	// execute eagerly — ends right before the first non-decodable op.
	for i, op := range c.Ops {
		if !op.ElementwiseDecodable() {
			return i
		}
	}

	return len(c.Ops)
}

// Signature produces a deterministic textual descriptor used in explain output.
func (c Codec) Signature() string {
	if c.Identity() {
		return "identity"
	}

	parts := make([]string, len(c.Ops))
	for i, op := range c.Ops {
		parts[i] = op.String()
	}

	return strings.Join(parts, " -> ")
}
