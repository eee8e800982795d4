package buildcheck

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/diagnostics"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/tool"
)

type fakeModule struct {
	files map[string]string
}

func (f fakeModule) Name() string { return "fake_module" }
func (f fakeModule) String() string { return "fake module" }
func (f fakeModule) Materialize(path string) error {
	for name, contents := range f.files {
		full := filepath.Join(path, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func runBuildCheck(t *testing.T, bc *BuildCheck, module fakeModule) (BuildResult, error) {
	t.Helper()
	target := ir.New(nil)
	inputID := id.New()
	target.Insert(inputID, module)

	cfg := &config.Config{Output: t.TempDir()}
	reporter := diagnostics.NewLogReporter().StartToolRun("build_check")
	ctx := tool.New(target, cfg, reporter)
	repr, err := bc.Run(ctx, []id.Id{inputID})
	if err != nil {
		return BuildResult{}, err
	}
	return repr.(BuildResult), nil
}

func TestBuildCheckSucceedsOnValidModule(t *testing.T) {
	module := fakeModule{files: map[string]string{
		"go.mod":  "module example.com/fakemod\n\ngo 1.24\n",
		"main.go": "package main\n\nfunc main() {}\n",
	}}
	bc := New(1, 30*time.Second, time.Millisecond)
	result, err := runBuildCheck(t, bc, module)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected build to succeed, output: %s", result.Output)
	}
}

func TestBuildCheckReportsFailureOnBrokenModule(t *testing.T) {
	module := fakeModule{files: map[string]string{
		"go.mod":  "module example.com/fakemod\n\ngo 1.24\n",
		"main.go": "package main\n\nfunc main() { this is not valid go }\n",
	}}
	bc := New(1, 30*time.Second, time.Millisecond)
	result, err := runBuildCheck(t, bc, module)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Fatal("expected build to fail for syntactically invalid Go")
	}
	if result.Output == "" {
		t.Fatal("expected captured compiler output on failure")
	}
}

func TestBuildCheckCompileFailureWithRetriesEnabledReturnsResult(t *testing.T) {
	module := fakeModule{files: map[string]string{
		"go.mod":  "module example.com/fakemod\n\ngo 1.24\n",
		"main.go": "package main\n\nfunc main() { broken }\n",
	}}
	bc := New(3, 5*time.Second, time.Millisecond)
	result, err := runBuildCheck(t, bc, module)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Fatal("expected the compile failure to be returned as a failed BuildResult")
	}
}
