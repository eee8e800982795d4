// Package testutil holds helpers shared by this module's own tests:
// a programmable MockTool and a trivial MockRepresentation, for testing
// the runner and scheduler without a real tool implementation.
package testutil

import (
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/tool"
)

// MockTool is a Tool whose name and Run behavior are set by the caller,
// for exercising code that calls Tool's methods without a real tool.
type MockTool struct {
	name string
	run  func(tool.RunContext, []id.Id) (ir.Representation, error)
}

// NewMockTool returns a MockTool named "mock_tool" that succeeds with a
// MockRepresentation.
func NewMockTool() *MockTool {
	return &MockTool{
		name: "mock_tool",
		run: func(tool.RunContext, []id.Id) (ir.Representation, error) {
			return MockRepresentation{}, nil
		},
	}
}

// WithName sets the value Name() returns.
func (m *MockTool) WithName(name string) *MockTool {
	m.name = name
	return m
}

// WithRun sets the function Run delegates to.
func (m *MockTool) WithRun(run func(tool.RunContext, []id.Id) (ir.Representation, error)) *MockTool {
	m.run = run
	return m
}

func (m *MockTool) Name() string { return m.name }

func (m *MockTool) Run(ctx tool.RunContext, inputs []id.Id) (ir.Representation, error) {
	return m.run(ctx, inputs)
}

// MockRepresentation is a trivial Representation for tests that need
// any concrete IR value but don't care what it contains.
type MockRepresentation struct{}

func (MockRepresentation) Name() string { return "mock_representation" }

func (MockRepresentation) Materialize(path string) error { return nil }

func (MockRepresentation) String() string { return "MockRepresentation" }
