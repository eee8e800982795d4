// Package tool defines the interfaces tool authors implement and the
// context the runner hands them at invocation time.
package tool

import (
	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/diagnostics"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
)

// Tool is a single unit of scheduled work. Run consumes the Tool: a
// Tool value is run exactly once, by exactly one goroutine.
type Tool interface {
	// Name is a stable, short tool name used in diagnostics and logs.
	Name() string
	// Run executes the tool against the given context and declared
	// input Ids, returning the representation it produced or an error.
	// The inputs slice is in the same order the tool was queued with.
	Run(ctx RunContext, inputs []id.Id) (ir.Representation, error)
}

// RunContext carries everything a Tool needs to read its inputs and
// report on its own execution: an immutable IR snapshot, an immutable
// configuration snapshot, and a diagnostics reporter scoped to this
// one tool run.
type RunContext struct {
	IRSnapshot *ir.IR
	Config     *config.Config
	Reporter   diagnostics.RunReporter
}

// New constructs a RunContext. Unexported fields are not needed here:
// RunContext is a plain data carrier, constructed fresh per invocation
// by the runner.
func New(snapshot *ir.IR, cfg *config.Config, reporter diagnostics.RunReporter) RunContext {
	return RunContext{IRSnapshot: snapshot, Config: cfg, Reporter: reporter}
}
