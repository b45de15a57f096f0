package plan

import (
	"github.com/cswinter/locustdb-go/catalog"
)

// fakePartition is a minimal in-memory catalog.Partition for compiling
// expressions in tests without a real partition-file reader.
type fakePartition struct {
	id      int
	length  int
	columns map[string]*catalog.Column
}

func newFakePartition(length int, columns map[string]*catalog.Column) *fakePartition {
	return &fakePartition{id: 1, length: length, columns: columns}
}

func (p *fakePartition) ID() int  { return p.id }
func (p *fakePartition) Len() int { return p.length }

func (p *fakePartition) Column(name string) (*catalog.Column, bool) {
	c, ok := p.columns[name]

	return c, ok
}

func (p *fakePartition) Names() []string {
	names := make([]string, 0, len(p.columns))
	for n := range p.columns {
		names = append(names, n)
	}

	return names
}

var _ catalog.Partition = (*fakePartition)(nil)
