package ops

import (
	"regexp"
	"time"

	"github.com/cswinter/locustdb-go/buffer"
)

// MapKind identifies one of the allocating unary projections. Unlike
// Boolean (which mutates its operand in place), Map always allocates a
// fresh output, since ToYear changes the element's logical type.
type MapKind uint8

const (
	MapBooleanNot MapKind = iota
	MapToYear
	MapRegexMatch
)

// Map applies one of BooleanNot/ToYear/RegexMatch elementwise. Pattern is
// only set (and only read) when Kind is MapRegexMatch.
type Map struct {
	base

	Kind    MapKind
	In      buffer.Ref
	Pattern *regexp.Regexp
	out     buffer.Ref
}

var _ Operator = (*Map)(nil)

func NewMapBooleanNot(in, out buffer.Ref) *Map {
	return &Map{Kind: MapBooleanNot, In: in, out: out}
}

func NewMapToYear(in, out buffer.Ref) *Map {
	return &Map{Kind: MapToYear, In: in, out: out}
}

func NewMapRegexMatch(in buffer.Ref, pattern *regexp.Regexp, out buffer.Ref) *Map {
	return &Map{Kind: MapRegexMatch, In: in, Pattern: pattern, out: out}
}

func (m *Map) Inputs() []buffer.Ref  { return []buffer.Ref{m.In} }
func (m *Map) Outputs() []buffer.Ref { return []buffer.Ref{m.out} }
func (m *Map) Allocates() bool       { return true }

func (m *Map) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	switch m.Kind {
	case MapBooleanNot:
		in := s.U8(m.In)
		out := make([]uint8, len(in))
		for i, v := range in {
			if v == 0 {
				out[i] = 1
			}
		}
		s.SetU8(m.out, out)
	case MapToYear:
		in := s.I64(m.In)
		out := make([]int64, len(in))
		for i, v := range in {
			out[i] = int64(time.Unix(v, 0).UTC().Year())
		}
		s.SetI64(m.out, out)
	case MapRegexMatch:
		in := s.Str(m.In)
		s.SetU8(m.out, matchAll(m.Pattern, in))
	}

	return false, nil
}
