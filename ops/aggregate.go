package ops

import (
	"math"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/errs"
)

// AggKind identifies one of the four per-group reduction functions.
type AggKind uint8

const (
	AggSum AggKind = iota
	AggCount
	AggMin
	AggMax
)

// Aggregate reduces In per GroupID into Groups buckets, the two-phase
// aggregate/projection normalization's "main_phase" step. With Checked
// set, AggSum reports overflow as an errs.Overflow error; with Checked
// unset, the sum wraps.
type Aggregate struct {
	base

	Kind     AggKind
	In       buffer.Ref
	GroupIDs buffer.Ref
	Groups   int
	Checked  bool
	out      buffer.Ref
}

var _ Operator = (*Aggregate)(nil)

func NewAggregate(kind AggKind, in, groupIDs buffer.Ref, groups int, checked bool, out buffer.Ref) *Aggregate {
	return &Aggregate{Kind: kind, In: in, GroupIDs: groupIDs, Groups: groups, Checked: checked, out: out}
}

func (a *Aggregate) Inputs() []buffer.Ref        { return []buffer.Ref{a.In, a.GroupIDs} }
func (a *Aggregate) Outputs() []buffer.Ref       { return []buffer.Ref{a.out} }
func (a *Aggregate) Allocates() bool             { return true }
func (a *Aggregate) FixedOutputLen() (int, bool) { return a.Groups, true }

func (a *Aggregate) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	groupIDs := s.U32(a.GroupIDs)

	switch a.Kind {
	case AggCount:
		out := make([]int64, a.Groups)
		for _, g := range groupIDs {
			out[g]++
		}
		s.SetI64(a.out, out)

		return false, nil
	case AggMin:
		out := make([]int64, a.Groups)
		for i := range out {
			out[i] = math.MaxInt64
		}
		in := s.I64(a.In)
		for i, g := range groupIDs {
			if in[i] < out[g] {
				out[g] = in[i]
			}
		}
		s.SetI64(a.out, out)

		return false, nil
	case AggMax:
		out := make([]int64, a.Groups)
		for i := range out {
			out[i] = math.MinInt64
		}
		in := s.I64(a.In)
		for i, g := range groupIDs {
			if in[i] > out[g] {
				out[g] = in[i]
			}
		}
		s.SetI64(a.out, out)

		return false, nil
	default: // AggSum
		out := make([]int64, a.Groups)
		in := s.I64(a.In)
		for i, g := range groupIDs {
			v := in[i]
			if a.Checked {
				r := out[g] + v
				if (v > 0 && r < out[g]) || (v < 0 && r > out[g]) {
					return false, errs.New(errs.Overflow, "Aggregate.Sum", errs.ErrOverflow)
				}
				out[g] = r
			} else {
				out[g] += v
			}
		}
		s.SetI64(a.out, out)

		return false, nil
	}
}

// Exists writes one u8 flag per group, set to 1 when any row mapped to
// it, used for boolean "group exists" projections (e.g. a bare GROUP BY
// with no further aggregate).
type Exists struct {
	base

	GroupIDs buffer.Ref
	Groups   int
	out      buffer.Ref
}

var _ Operator = (*Exists)(nil)

func NewExists(groupIDs buffer.Ref, groups int, out buffer.Ref) *Exists {
	return &Exists{GroupIDs: groupIDs, Groups: groups, out: out}
}

func (e *Exists) Inputs() []buffer.Ref        { return []buffer.Ref{e.GroupIDs} }
func (e *Exists) Outputs() []buffer.Ref       { return []buffer.Ref{e.out} }
func (e *Exists) Allocates() bool             { return true }
func (e *Exists) FixedOutputLen() (int, bool) { return e.Groups, true }

func (e *Exists) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	groupIDs := s.U32(e.GroupIDs)
	out := make([]uint8, e.Groups)
	for _, g := range groupIDs {
		out[g] = 1
	}
	s.SetU8(e.out, out)

	return false, nil
}
