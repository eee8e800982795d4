package ledger

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenRecordsRunStart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	l, err := Open(dbPath, "/src", "/out")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close(true)

	var count int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, l.runID).Scan(&count); err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one run row, got %d", count)
	}
}

func TestStartToolRunRecordsAndUpdatesRow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	l, err := Open(dbPath, "/src", "/out")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close(true)

	run := l.StartToolRun("loadsource")
	run.Logf("freezing %d bytes", 128)
	run.Done(true, nil)

	var success bool
	if err := l.db.QueryRow(`SELECT success FROM tool_runs WHERE tool_name = ?`, "loadsource").Scan(&success); err != nil {
		t.Fatalf("query tool_runs: %v", err)
	}
	if !success {
		t.Fatal("expected success = true")
	}
}

func TestStartToolRunRecordsFailureError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	l, err := Open(dbPath, "/src", "/out")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close(false)

	run := l.StartToolRun("buildcheck")
	run.Done(false, errors.New("compile failed"))

	var errText string
	if err := l.db.QueryRow(`SELECT error FROM tool_runs WHERE tool_name = ?`, "buildcheck").Scan(&errText); err != nil {
		t.Fatalf("query tool_runs: %v", err)
	}
	if errText != "compile failed" {
		t.Fatalf("error = %q, want %q", errText, "compile failed")
	}
}

func TestOpenRecreatesIncompatibleDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	l1, err := Open(dbPath, "/src", "/out")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := l1.db.Exec(`ALTER TABLE runs RENAME TO runs_old`); err != nil {
		t.Fatalf("simulate incompatible schema: %v", err)
	}
	l1.db.Close()

	l2, err := Open(dbPath, "/src", "/out")
	if err != nil {
		t.Fatalf("Open after simulated incompatibility: %v", err)
	}
	defer l2.Close(true)
}
