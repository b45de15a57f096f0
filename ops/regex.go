package ops

import (
	"regexp"

	"github.com/cswinter/locustdb-go/buffer"
)

// Regex tests a string vector against a pattern compiled once at plan time
// (package plan validates the pattern literal and surfaces a compile
// error before an Operator is ever constructed, producing a u8 match mask.
type Regex struct {
	base

	In      buffer.Ref
	Pattern *regexp.Regexp
	out     buffer.Ref
}

var _ Operator = (*Regex)(nil)

func NewRegex(in buffer.Ref, pattern *regexp.Regexp, out buffer.Ref) *Regex {
	return &Regex{In: in, Pattern: pattern, out: out}
}

func (r *Regex) Inputs() []buffer.Ref  { return []buffer.Ref{r.In} }
func (r *Regex) Outputs() []buffer.Ref { return []buffer.Ref{r.out} }
func (r *Regex) Allocates() bool       { return true }

func (r *Regex) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	in := s.Str(r.In)
	out := matchAll(r.Pattern, in)
	s.SetU8(r.out, out)

	return false, nil
}

func matchAll(pattern *regexp.Regexp, values []string) []uint8 {
	out := make([]uint8, len(values))
	for i, v := range values {
		if pattern.MatchString(v) {
			out[i] = 1
		}
	}

	return out
}
