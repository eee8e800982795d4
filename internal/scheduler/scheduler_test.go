package scheduler

import (
	"testing"

	"github.com/jra3/harvest/internal/diagnostics"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/runner"
	"github.com/jra3/harvest/internal/testutil"
	"github.com/jra3/harvest/internal/tool"
)

func TestRunAllRunsDependentToolsInOrder(t *testing.T) {
	target := ir.New(nil)
	r := runner.New(diagnostics.NewLogReporter(), 0)
	s := New()

	aID := s.Queue(testutil.NewMockTool().WithName("a"))
	var observedInputs []id.Id
	bTool := testutil.NewMockTool().WithName("b").WithRun(func(ctx tool.RunContext, inputs []id.Id) (ir.Representation, error) {
		observedInputs = inputs
		if !ctx.IRSnapshot.Contains(aID) {
			t.Error("b ran before a's result was visible in its IR snapshot")
		}
		return testutil.MockRepresentation{}, nil
	})
	s.QueueAfter(bTool, []id.Id{aID})

	if err := s.RunAll(r, target, nil); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(observedInputs) != 1 || observedInputs[0] != aID {
		t.Fatalf("b's inputs = %v, want [%v]", observedInputs, aID)
	}
	if target.Version() != 2 {
		t.Fatalf("IR version = %d, want 2", target.Version())
	}
}

func TestRunAllWithNoQueuedToolsReturnsImmediately(t *testing.T) {
	target := ir.New(nil)
	r := runner.New(diagnostics.NewLogReporter(), 0)
	s := New()
	if err := s.RunAll(r, target, nil); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
}

func TestRunAllToleratesAToolErrorInOneBranch(t *testing.T) {
	target := ir.New(nil)
	r := runner.New(diagnostics.NewLogReporter(), 0)
	s := New()

	failing := testutil.NewMockTool().WithName("failing").WithRun(func(tool.RunContext, []id.Id) (ir.Representation, error) {
		return nil, errBoom
	})
	failID := s.Queue(failing)
	s.Queue(testutil.NewMockTool().WithName("independent"))

	if err := s.RunAll(r, target, nil); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if target.Contains(failID) {
		t.Fatal("failed tool's id should never appear in the IR")
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
