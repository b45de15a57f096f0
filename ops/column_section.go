package ops

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/types"
)

// ColumnSection is a streaming producer: each Execute call yields up to
// batch elements from the named column's section, appending them to the
// output buffer. It is the only operator in the DAG with no Inputs.
type ColumnSection struct {
	base

	Name    string
	Section catalog.Section
	out     buffer.Ref

	pos int
}

var _ Operator = (*ColumnSection)(nil)

// NewColumnSection constructs a streaming reader over one of a column's
// data sections, with out pre-allocated by the planner's Builder.
func NewColumnSection(name string, sec catalog.Section, out buffer.Ref) *ColumnSection {
	return &ColumnSection{Name: name, Section: sec, out: out}
}

func (c *ColumnSection) Inputs() []buffer.Ref  { return nil }
func (c *ColumnSection) Outputs() []buffer.Ref { return []buffer.Ref{c.out} }

func (c *ColumnSection) StreamableOutput(int) bool { return true }
func (c *ColumnSection) IsStreamingProducer() bool  { return true }
func (c *ColumnSection) Allocates() bool            { return true }

func (c *ColumnSection) Execute(s *buffer.Scratchpad, batch int) (more bool, err error) {
	n := c.Section.Len()
	end := c.pos + batch
	if end > n {
		end = n
	}

	switch c.Section.Encoding {
	case types.U8, types.ByteVec:
		s.SetU8(c.out, append(s.U8(c.out), c.Section.U8[c.pos:end]...))
	case types.U16:
		s.SetU16(c.out, append(s.U16(c.out), c.Section.U16[c.pos:end]...))
	case types.U32:
		s.SetU32(c.out, append(s.U32(c.out), c.Section.U32[c.pos:end]...))
	case types.U64:
		s.SetU64(c.out, append(s.U64(c.out), c.Section.U64[c.pos:end]...))
	case types.I64:
		s.SetI64(c.out, append(s.I64(c.out), c.Section.I64[c.pos:end]...))
	case types.F64:
		s.SetF64(c.out, append(s.F64(c.out), c.Section.F64[c.pos:end]...))
	case types.Str:
		s.SetStr(c.out, append(s.Str(c.out), c.Section.Str[c.pos:end]...))
	}

	c.pos = end

	return c.pos < n, nil
}
