// Package runner spawns each tool invocation on its own goroutine and
// isolates panics so a single broken tool cannot take the process down.
package runner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/diagnostics"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/tool"
)

// completion is what a tool invocation's goroutine sends back once it
// finishes, successfully or not.
type completion struct {
	outputID id.Id
	repr     ir.Representation
	err      error
}

// ToolRunner spawns tool invocations and collects their results. Unlike
// a thread-identity-keyed tracker, it only counts in-flight invocations:
// each completion carries the output Id the scheduler reserved for it,
// since Go has no stable, user-visible goroutine identity to key on.
type ToolRunner struct {
	mu       sync.Mutex
	inFlight int

	reporter diagnostics.Reporter
	results  chan completion
	sem      *semaphore.Weighted // nil means unbounded parallelism
}

// New constructs a ToolRunner. maxParallelism <= 0 means unbounded,
// matching the original's one-OS-thread-per-invocation behavior.
func New(reporter diagnostics.Reporter, maxParallelism int) *ToolRunner {
	r := &ToolRunner{
		reporter: reporter,
		results:  make(chan completion),
	}
	if maxParallelism > 0 {
		r.sem = semaphore.NewWeighted(int64(maxParallelism))
	}
	return r
}

// SpawnTool runs tool in its own goroutine against an immutable IR
// snapshot and configuration, reserving outputID as the Id its result
// will be inserted under once ProcessToolResults observes completion.
func (r *ToolRunner) SpawnTool(t tool.Tool, snapshot *ir.IR, cfg *config.Config, inputs []id.Id, outputID id.Id) {
	r.mu.Lock()
	r.inFlight++
	r.mu.Unlock()

	runReporter := r.reporter.StartToolRun(t.Name())

	go func() {
		// Acquire and release the semaphore entirely inside the
		// goroutine, and release it as soon as invoke returns rather
		// than deferring past the results send below: the send blocks
		// until ProcessToolResults reads it, and the caller of
		// SpawnTool is often the one that will get around to reading
		// it, so holding the slot across the send can deadlock a
		// bounded runner against its own dispatch loop.
		if r.sem != nil {
			_ = r.sem.Acquire(context.Background(), 1)
		}

		repr, runErr := r.invoke(t, snapshot, cfg, runReporter, inputs)
		if r.sem != nil {
			r.sem.Release(1)
		}

		runReporter.Done(runErr == nil, runErr)
		r.results <- completion{outputID: outputID, repr: repr, err: runErr}
	}()
}

// invoke calls the tool's Run method, converting any panic into an
// error instead of letting it propagate and crash the process. Tool.Run
// is not required to be panic-safe: this is the one place that
// guarantees isolation, the Go equivalent of the original's
// catch_unwind boundary around each spawned thread.
func (r *ToolRunner) invoke(t tool.Tool, snapshot *ir.IR, cfg *config.Config, reporter diagnostics.RunReporter, inputs []id.Id) (repr ir.Representation, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool %s panicked: %v", t.Name(), p)
		}
	}()
	return t.Run(tool.New(snapshot, cfg, reporter), inputs)
}

// ProcessToolResults blocks until at least one running invocation
// completes, then drains every other already-completed invocation
// without blocking, inserting successful results into target. It
// returns false when no invocations are in flight, signaling the
// scheduler that nothing more can become ready.
func (r *ToolRunner) ProcessToolResults(target *ir.IR) bool {
	r.mu.Lock()
	inFlight := r.inFlight
	r.mu.Unlock()
	if inFlight == 0 {
		return false
	}

	first := <-r.results
	r.apply(target, first)

	for {
		select {
		case c := <-r.results:
			r.apply(target, c)
		default:
			return true
		}
	}
}

func (r *ToolRunner) apply(target *ir.IR, c completion) {
	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()

	if c.err != nil {
		return
	}
	target.Insert(c.outputID, c.repr)
}
