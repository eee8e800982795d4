package loadsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/diagnostics"
	"github.com/jra3/harvest/internal/tool"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunFreezesInputDirectory(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "project")
	writeFile(t, filepath.Join(src, "main.go"), "package main\n")
	writeFile(t, filepath.Join(src, "sub", "helper.go"), "package sub\n")

	l := New(src)
	reporter := diagnostics.NewLogReporter().StartToolRun("load_source")
	ctx := tool.New(nil, &config.Config{}, reporter)

	repr, err := l.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rawSource, ok := repr.(RawSource)
	if !ok {
		t.Fatalf("Run returned %T, want RawSource", repr)
	}
	if _, ok := rawSource.Dir().GetEntry("main.go"); !ok {
		t.Fatal("expected main.go entry in frozen RawSource")
	}
	if _, ok := rawSource.Dir().GetEntry("sub"); !ok {
		t.Fatal("expected sub entry in frozen RawSource")
	}
}

func TestMaterializeRecreatesTreeThroughSymlinks(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "project")
	writeFile(t, filepath.Join(src, "a", "b.txt"), "hello")

	l := New(src)
	reporter := diagnostics.NewLogReporter().StartToolRun("load_source")
	ctx := tool.New(nil, &config.Config{}, reporter)
	repr, err := l.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rawSource := repr.(RawSource)

	out := filepath.Join(root, "materialized")
	if err := rawSource.Materialize(out); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "a", "b.txt"))
	if err != nil {
		t.Fatalf("reading materialized file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("materialized content = %q, want %q", data, "hello")
	}
}
