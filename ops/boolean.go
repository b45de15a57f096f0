package ops

import "github.com/cswinter/locustdb-go/buffer"

// BoolKind identifies one of the three boolean combinators.
type BoolKind uint8

const (
	BoolAnd BoolKind = iota
	BoolOr
	BoolNot
)

// Boolean combines one or two u8 mask vectors elementwise. And/Or mutate
// the left operand in place (Allocates returns false); Not mutates its
// sole operand in place, mutating a mask vector elementwise rather than
// allocating a fresh one.
type Boolean struct {
	base

	Kind        BoolKind
	Left, Right buffer.Ref // Right is unused for BoolNot
}

var _ Operator = (*Boolean)(nil)

func NewBoolean(kind BoolKind, left, right buffer.Ref) *Boolean {
	return &Boolean{Kind: kind, Left: left, Right: right}
}

func (b *Boolean) Inputs() []buffer.Ref {
	if b.Kind == BoolNot {
		return []buffer.Ref{b.Left}
	}

	return []buffer.Ref{b.Left, b.Right}
}

// Outputs returns Left: And/Or/Not all mutate the left operand in place.
func (b *Boolean) Outputs() []buffer.Ref { return []buffer.Ref{b.Left} }

func (b *Boolean) StreamableInput(int) bool  { return true }
func (b *Boolean) StreamableOutput(int) bool { return true }
func (b *Boolean) Allocates() bool           { return false }

func (b *Boolean) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	left := s.U8(b.Left)

	if b.Kind == BoolNot {
		for i, v := range left {
			if v == 0 {
				left[i] = 1
			} else {
				left[i] = 0
			}
		}

		return false, nil
	}

	right := s.U8(b.Right)
	for i := range left {
		switch b.Kind {
		case BoolAnd:
			if left[i] != 0 && right[i] != 0 {
				left[i] = 1
			} else {
				left[i] = 0
			}
		case BoolOr:
			if left[i] != 0 || right[i] != 0 {
				left[i] = 1
			} else {
				left[i] = 0
			}
		}
	}

	return false, nil
}
