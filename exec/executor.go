package exec

import (
	"context"

	"github.com/cswinter/locustdb-go/buffer"
	"github.com/cswinter/locustdb-go/ops"
)

// defaultBatchSize matches config.Config's default batch_size of 1024;
// package query overrides it from the caller's Config.
const defaultBatchSize = 1024

// Executor drives one plan.Plan's operator DAG to completion against a
// single Scratchpad. It is not safe for concurrent use — package query
// creates one Executor per partition being queried, run concurrently via
// its own goroutine, each with its own Scratchpad never shared across
// partitions.
type Executor struct {
	stages    []stage
	scratch   *buffer.Scratchpad
	batchSize int
	completed bool
}

// New builds an Executor for the given operator DAG, sizing its
// Scratchpad to hold slotCount Refs (an Allocator.Len() snapshot from the
// plan.Builder that produced operators).
func New(operators []ops.Operator, slotCount int, batchSize int) *Executor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Executor{
		stages:    partitionStages(operators),
		scratch:   buffer.New(slotCount),
		batchSize: batchSize,
	}
}

// Scratchpad exposes the executor's buffer store for callers that need to
// read a plan's Output Refs after Run completes.
func (e *Executor) Scratchpad() *buffer.Scratchpad { return e.scratch }

// Close releases any pooled backing storage slots in this Executor's
// Scratchpad borrowed (e.g. by ops.LZ4Decode/ZstdDecode/S2Decode). Callers
// must have finished reading every Output Ref before calling Close — once
// called, the Scratchpad's buffers may have been returned to a pool and
// reused by an unrelated caller.
func (e *Executor) Close() {
	e.scratch.ReleaseAll()
}

// Run drives every stage's operators in lockstep batches until each
// stage's operators all report no further input, or ctx is canceled.
// Cancellation is checked between stages (and between batches within a
// streaming stage), not inside a single operator's Execute call, matching
// checking context at natural boundaries rather than threading it
// through every inner loop.
func (e *Executor) Run(ctx context.Context) error {
	if e.completed {
		return nil
	}

	for _, st := range e.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runStage(ctx, st); err != nil {
			return err
		}
	}

	e.completed = true

	return nil
}

func (e *Executor) runStage(ctx context.Context, st stage) error {
	pending := make([]bool, len(st.operators))
	for i := range pending {
		pending[i] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		anyPending := false
		for i, op := range st.operators {
			if !pending[i] {
				continue
			}
			more, err := op.Execute(e.scratch, e.batchSize)
			if err != nil {
				return err
			}
			pending[i] = more
			if more {
				anyPending = true
			}
		}
		if !anyPending {
			break
		}
	}

	for _, op := range st.operators {
		if err := op.Finalize(e.scratch); err != nil {
			return err
		}
	}

	return nil
}
