// Package exec runs a plan.Plan's operator DAG to completion: it
// partitions operators into stages by connected-component analysis over
// streamable edges (an edge between two operators can stay inside one
// stage only if both sides declare the connecting buffer streamable), then
// drives each stage's operators in lockstep batches of a configured size
// until every operator in the stage reports no more input.
package exec

import (
	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/ops"
)

// stage is a maximal set of operators connected by edges that are
// streamable on both ends — the same buffer Ref is a streamable output of
// its producer and a streamable input of its consumer. Operators within a
// stage execute in the same batch loop; an operator whose input is NOT
// streamable (e.g. Select's "input" operand) starts a new stage, since
// its producer must run to completion (and that buffer fully
// materialize) before the consumer's first Execute call.
type stage struct {
	operators []ops.Operator
}

// partitionStages groups a topologically-ordered operator list into
// stages via union-find over streamable producer/consumer edges — the
// vector operator runtime's analogue of connected-component analysis.
func partitionStages(operators []ops.Operator) []stage {
	n := len(operators)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}

		return x
	}
	union := func(a, bIdx int) {
		ra, rb := find(a), find(bIdx)
		if ra != rb {
			parent[ra] = rb
		}
	}

	// producerOf maps a Ref's raw index to the operator that produced it,
	// so a later operator's streamable input can be matched back to its
	// producer's streamable output.
	producerOf := make(map[uint32]int)
	for i, op := range operators {
		for _, out := range op.Outputs() {
			producerOf[out.Index()] = i
		}
	}

	for i, op := range operators {
		for inIdx, in := range op.Inputs() {
			if !in.Valid() {
				continue
			}
			producer, ok := producerOf[in.Index()]
			if !ok {
				continue
			}
			if !op.StreamableInput(inIdx) {
				continue
			}
			if !producerStreamsOutput(operators[producer], in) {
				continue
			}
			union(producer, i)
		}
	}

	groups := make(map[int][]ops.Operator)
	var order []int
	for i, op := range operators {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], op)
	}

	stages := make([]stage, 0, len(order))
	for _, root := range order {
		stages = append(stages, stage{operators: groups[root]})
	}

	return stages
}

func producerStreamsOutput(producer ops.Operator, ref buffer.Ref) bool {
	for i, out := range producer.Outputs() {
		if out.Index() == ref.Index() {
			return producer.StreamableOutput(i)
		}
	}

	return false
}
