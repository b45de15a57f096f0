// Package query drives a single query across every partition of a table:
// it compiles and executes a plan.Plan per partition concurrently, then
// combines the per-partition results with a tournament merge — a
// stack-based, equal-level pairing scheme that keeps the merge tree
// balanced without knowing the final partition count up front.
package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cswinter/locustdb-go/catalog"
	"github.com/cswinter/locustdb-go/config"
	"github.com/cswinter/locustdb-go/exec"
	"github.com/cswinter/locustdb-go/plan"
)

// PartitionResult is one partition's compiled-and-executed output, ready
// to be folded into the tournament merge.
type PartitionResult struct {
	PartitionID int
	Plan        *plan.Plan
	Executor    *exec.Executor
}

// Stats reports what a Driver.Run call did, for callers instrumenting
// query latency and fan-out breadth (a small stats struct returned
// alongside the primary result rather than a separate metrics subsystem).
type Stats struct {
	PartitionsScanned int
	PartitionsSkipped int
	MergeStages       int
}

// Driver compiles and executes q against every partition of parts,
// fanning out up to cfg.Threads partitions concurrently (unbounded when
// Threads <= 0). Run returns the per-partition results unmerged;
// TournamentMerge folds them together.
type Driver struct {
	cfg   *config.Config
	parts []catalog.Partition
}

// New creates a Driver over the given partitions using cfg's concurrency
// and batching tunables.
func New(cfg *config.Config, parts []catalog.Partition) *Driver {
	return &Driver{cfg: cfg, parts: parts}
}

// Run compiles q against every partition, executes each one (fanned out
// via errgroup, at most cfg.Threads at a time when Threads > 0), and returns the
// per-partition results in partition order. A compile or execute error on
// any partition cancels the remaining work and is returned to the caller.
func (d *Driver) Run(ctx context.Context, q plan.Query) ([]PartitionResult, Stats, error) {
	results := make([]PartitionResult, len(d.parts))

	g, gctx := errgroup.WithContext(ctx)
	if d.cfg.Threads > 0 {
		g.SetLimit(d.cfg.Threads)
	}

	for i, p := range d.parts {
		i, p := i, p
		g.Go(func() error {
			compiled, err := plan.CompileQuery(p, q)
			if err != nil {
				return err
			}

			ex := exec.New(compiled.Operators, operatorSlotCount(compiled), d.cfg.BatchSize)
			if err := ex.Run(gctx); err != nil {
				return err
			}

			results[i] = PartitionResult{PartitionID: p.ID(), Plan: compiled, Executor: ex}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	return results, Stats{PartitionsScanned: len(d.parts)}, nil
}

// operatorSlotCount derives a Scratchpad size from the highest Ref index
// any operator in the plan reads or writes, since plan.Builder's
// Allocator isn't retained on the Plan itself.
func operatorSlotCount(p *plan.Plan) int {
	max := 0
	bump := func(idx int) {
		if idx+1 > max {
			max = idx + 1
		}
	}
	for _, op := range p.Operators {
		for _, r := range op.Inputs() {
			bump(int(r.Index()))
		}
		for _, r := range op.Outputs() {
			bump(int(r.Index()))
		}
	}
	for _, r := range p.Output {
		bump(int(r.Index()))
	}
	if p.GroupKey.Valid() {
		bump(int(p.GroupKey.Index()))
	}
	if p.OrderIndices.Valid() {
		bump(int(p.OrderIndices.Index()))
	}
	if p.OrderKey.Valid() {
		bump(int(p.OrderKey.Index()))
	}

	return max
}
