// Package scheduler decides which queued tool invocations are ready to
// run and dispatches them through a runner.ToolRunner until the queue is
// empty.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/runner"
	"github.com/jra3/harvest/internal/tool"
)

// ErrStalled is wrapped by the error RunAll returns when invocations are
// still queued but nothing is running. Check it with errors.Is.
var ErrStalled = errors.New("scheduler: stalled")

type queuedInvocation struct {
	outputID id.Id
	inputs   []id.Id
	tool     tool.Tool
}

// Scheduler holds the set of tool invocations queued to run, along with
// each one's declared input Ids. Queue order is automatically a
// topological order: an Id can only be referenced as an input after
// QueueAfter has already returned it, so a queued invocation can never
// depend on one declared after it.
type Scheduler struct {
	queued []queuedInvocation
}

// New constructs an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Queue adds a tool invocation with no input dependencies, runnable
// immediately.
func (s *Scheduler) Queue(t tool.Tool) id.Id {
	return s.QueueAfter(t, nil)
}

// QueueAfter adds a tool invocation that must not run until every Id in
// inputs is present in the IR. It reserves and returns the Id the
// tool's eventual result will be inserted under.
func (s *Scheduler) QueueAfter(t tool.Tool, inputs []id.Id) id.Id {
	outputID := id.New()
	s.queued = append(s.queued, queuedInvocation{outputID: outputID, inputs: inputs, tool: t})
	return outputID
}

// RunAll repeatedly attempts to spawn every queued invocation whose
// inputs are all present in target, waits for at least one running
// invocation to complete, and repeats until nothing is queued and
// nothing is running. It returns an error if the queue is nonempty but
// nothing is running: every remaining invocation would then wait
// forever, which can only happen if an input Id is never produced.
func (s *Scheduler) RunAll(r *runner.ToolRunner, target *ir.IR, cfg *config.Config) error {
	for {
		remaining := s.queued[:0]
		for _, inv := range s.queued {
			if !inputsReady(target, inv.inputs) {
				remaining = append(remaining, inv)
				continue
			}
			snapshot := target.Snapshot()
			r.SpawnTool(inv.tool, snapshot, cfg, inv.inputs, inv.outputID)
		}
		s.queued = remaining

		if !r.ProcessToolResults(target) {
			if len(s.queued) > 0 {
				return fmt.Errorf("%w: %d tool(s) queued but nothing is running; an input Id will never be produced", ErrStalled, len(s.queued))
			}
			return nil
		}
	}
}

func inputsReady(target *ir.IR, inputs []id.Id) bool {
	for _, in := range inputs {
		if !target.Contains(in) {
			return false
		}
	}
	return true
}
