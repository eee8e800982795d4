// Package diagnostics defines the reporter interface tools and the
// scheduler report through: tool-run lifecycle, IR-version growth, and
// per-worker scoped logging. This package is a consumed, not specified
// collaborator from the scheduler's point of view — ir.Reporter and
// tool.RunContext only depend on the small interfaces here, never on a
// concrete implementation.
package diagnostics

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// RunReporter is the scoped handle a single tool invocation receives
// through its RunContext: a logger routed with this run's identity, and
// a way to record the run's outcome.
type RunReporter interface {
	Logf(format string, args ...any)
	Done(success bool, err error)
}

// Reporter is the thread-safe, process-wide diagnostics sink. It
// satisfies ir.Reporter (ReportVersion) so it can be passed directly as
// the IR's growth reporter.
type Reporter interface {
	// ReportVersion is called by the IR after every successful insert.
	ReportVersion(version uint64)
	// StartToolRun is called by the runner before invoking a tool. It
	// returns a RunReporter scoped to this one invocation, identified
	// by a fresh run id for correlating log lines and ledger rows.
	StartToolRun(toolName string) RunReporter
}

// LogReporter is the default Reporter: stdlib log.Printf with
// bracket-tagged components, matching the ambient logging convention
// used throughout this module.
type LogReporter struct{}

// NewLogReporter constructs the default, dependency-free Reporter.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

func (r *LogReporter) ReportVersion(version uint64) {
	log.Printf("[ir] version %d", version)
}

func (r *LogReporter) StartToolRun(toolName string) RunReporter {
	runID := uuid.NewString()
	log.Printf("[runner] starting %s (run %s)", toolName, runID)
	return &logRunReporter{toolName: toolName, runID: runID}
}

type logRunReporter struct {
	toolName string
	runID    string
}

func (r *logRunReporter) Logf(format string, args ...any) {
	log.Printf("[runner] %s (run %s): %s", r.toolName, r.runID, fmt.Sprintf(format, args...))
}

func (r *logRunReporter) Done(success bool, err error) {
	if success {
		log.Printf("[runner] %s (run %s) succeeded", r.toolName, r.runID)
		return
	}
	log.Printf("[runner] %s (run %s) failed: %v", r.toolName, r.runID, err)
}
