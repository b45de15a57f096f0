package ops

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/errs"
)

// PresenceAnd combines two nullable overlays' presence bitsets with a
// bitwise AND in place on Left, the nullability propagation rewrite's
// runtime step: a row is present in a binary expression's result only if
// it was present in both operands.
type PresenceAnd struct {
	base

	Left, Right buffer.Ref
}

var _ Operator = (*PresenceAnd)(nil)

func NewPresenceAnd(left, right buffer.Ref) *PresenceAnd {
	return &PresenceAnd{Left: left, Right: right}
}

func (p *PresenceAnd) Inputs() []buffer.Ref  { return []buffer.Ref{p.Left, p.Right} }
func (p *PresenceAnd) Outputs() []buffer.Ref { return []buffer.Ref{p.Left} }
func (p *PresenceAnd) Allocates() bool       { return false }

func (p *PresenceAnd) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left := s.Presence(p.Left)
	right := s.Presence(p.Right)
	for i := range left {
		left[i] &= right[i]
	}
	s.SetPresence(p.Left, left)

	return false, nil
}

// PresenceFromRoaring decodes a column's presence section stored as a
// serialized compact bitmap into the dense packed-byte overlay the rest of
// the runtime reads via Scratchpad.Presence, used for sparse nullable
// columns where a roaring bitmap's run-length compression of long absent
// stretches beats a raw packed-byte bitset.
type PresenceFromRoaring struct {
	base

	In  buffer.Ref // serialized roaring.Bitmap bytes, read as a u8 vector
	N   int         // number of rows the decoded presence bitset must cover
	out buffer.Ref
}

var _ Operator = (*PresenceFromRoaring)(nil)

func NewPresenceFromRoaring(in buffer.Ref, n int, out buffer.Ref) *PresenceFromRoaring {
	return &PresenceFromRoaring{In: in, N: n, out: out}
}

func (p *PresenceFromRoaring) Inputs() []buffer.Ref  { return []buffer.Ref{p.In} }
func (p *PresenceFromRoaring) Outputs() []buffer.Ref { return []buffer.Ref{p.out} }
func (p *PresenceFromRoaring) Allocates() bool       { return true }

func (p *PresenceFromRoaring) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	bm := roaring.New()
	if err := bm.UnmarshalBinary(s.U8(p.In)); err != nil {
		return false, errs.New(errs.Fatal, "PresenceFromRoaring", fmt.Errorf("%w: %v", errs.ErrCorruptCodec, err))
	}

	presence, _ := buffer.NewPresence(p.N)
	for i := range presence {
		presence[i] = 0
	}
	for _, row := range bm.ToArray() {
		buffer.SetPresenceBit(presence, int(row), true)
	}
	s.SetPresence(p.out, presence)

	return false, nil
}
