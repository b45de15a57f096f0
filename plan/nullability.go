package plan

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/ops"
)

// PresenceOverlay tracks the nullable-overlay Ref associated with a
// compiled expression's result, separate from the value Ref itself
// (matching the Scratchpad's own split between a slot's data and its
// presence bitset). The zero value means "no nullable overlay: every row
// is present."
type PresenceOverlay struct {
	Present bool
	Ref     buffer.Ref
}

// CombinePresence implements the nullability propagation rewrite: a
// binary expression's result is present at row i only if both operands
// were present at row i. When only one operand carries an overlay, that
// overlay propagates unchanged (ANDing against "always present" is a
// no-op); when neither does, the combined result also carries none.
func (b *Builder) CombinePresence(left, right PresenceOverlay) PresenceOverlay {
	switch {
	case !left.Present && !right.Present:
		return PresenceOverlay{}
	case left.Present && !right.Present:
		return left
	case !left.Present && right.Present:
		return right
	default:
		b.emit(ops.NewPresenceAnd(left.Ref, right.Ref), left.Ref)

		return PresenceOverlay{Present: true, Ref: left.Ref}
	}
}
