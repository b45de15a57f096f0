// Package ops implements the vector operator library: the concrete
// operators the planner wires into a DAG and the executor runs in stages.
// Every operator declares input/output handles, which of each can be
// streamed, whether it allocates a fresh buffer versus mutating in place,
// and whether it is a streaming producer — the declarations the executor's
// stage partitioning (package exec) consumes.
package ops

import "github.com/cswinter/locustdb-go/buffer"

// Operator is the uniform contract every concrete vector operator
// implements, generalizing a per-type encoder/decoder contract
// (Bytes/Len/Size/Reset/Finish) to a DAG node.
type Operator interface {
	// Inputs returns the buffer handles this operator reads.
	Inputs() []buffer.Ref
	// Outputs returns the buffer handles this operator produces. An
	// in-place operator (And, Or, Compact, NonzeroCompact) returns the same
	// Ref(s) it reads in Inputs, signaling the executor not to allocate a
	// fresh buffer or stream this output independently.
	Outputs() []buffer.Ref
	// StreamableInput reports whether input i can be consumed in batches
	// rather than requiring full materialization first.
	StreamableInput(i int) bool
	// StreamableOutput reports whether output i can be produced
	// incrementally.
	StreamableOutput(i int) bool
	// Allocates reports whether this operator produces a new buffer
	// (true) or mutates an input buffer in place (false).
	Allocates() bool
	// IsStreamingProducer reports whether this operator can originate a
	// streamed batch sequence with no upstream streaming input (e.g. a
	// column section reader).
	IsStreamingProducer() bool
	// FixedOutputLen reports a length for this operator's output that is
	// independent of input length (e.g. a scalar aggregate), or ok=false
	// if the output length tracks input length.
	FixedOutputLen() (n int, ok bool)
	// Execute advances the operator by at most batch elements (for
	// streaming ops) or runs to completion in one call (for non-streaming
	// ops). more reports whether the operator has additional input to
	// process on a subsequent call.
	Execute(s *buffer.Scratchpad, batch int) (more bool, err error)
	// Finalize is called once after a stage's execution loop completes,
	// allowing an operator to truncate or shrink its output buffer.
	Finalize(s *buffer.Scratchpad) error
}

// base implements the parts of Operator that are identical across most
// concrete operators (no fixed output length, no finalize, non-producer),
// so each operator only overrides what differs.
type base struct{}

func (base) FixedOutputLen() (int, bool)                   { return 0, false }
func (base) Finalize(*buffer.Scratchpad) error              { return nil }
func (base) IsStreamingProducer() bool                      { return false }
func (base) StreamableInput(int) bool                       { return false }
func (base) StreamableOutput(int) bool                      { return false }
