// Package ledger persists a record of each run and each tool invocation
// within it to a local SQLite database, so a harvest run can be audited
// after the process exits. It is optional: a Config with an empty
// LedgerPath disables it and the run command falls back to LogReporter.
package ledger

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jra3/harvest/internal/diagnostics"
)

//go:embed schema.sql
var schemaSQL string

// Ledger is a diagnostics.Reporter backed by a SQLite database. It
// delegates actual log lines to an embedded LogReporter and additionally
// persists row-level records of every run and tool invocation.
type Ledger struct {
	db     *sql.DB
	logger *diagnostics.LogReporter
	runID  string
}

// Open opens or creates the ledger database at dbPath, recording a new
// run row scoped to (inputPath, outputPath). If the existing database
// has an incompatible schema it is deleted and recreated.
func Open(dbPath, inputPath, outputPath string) (*Ledger, error) {
	l, err := openDB(dbPath)
	if err != nil {
		if strings.Contains(err.Error(), "no such column") ||
			strings.Contains(err.Error(), "no such table") ||
			strings.Contains(err.Error(), "SQL logic error") {
			if removeErr := os.Remove(dbPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("remove incompatible ledger: %w", removeErr)
			}
			os.Remove(dbPath + "-wal")
			os.Remove(dbPath + "-shm")
			l, err = openDB(dbPath)
		}
		if err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	if _, err := l.db.Exec(
		`INSERT INTO runs (id, input_path, output_path, started_at) VALUES (?, ?, ?, ?)`,
		runID, inputPath, outputPath, time.Now().UTC(),
	); err != nil {
		l.db.Close()
		return nil, fmt.Errorf("record run start: %w", err)
	}
	l.runID = runID

	return l, nil
}

func openDB(dbPath string) (*Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	escapedPath := strings.ReplaceAll(dbPath, " ", "%20")
	connStr := "file:" + escapedPath + "?_time_format=sqlite"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize ledger schema: %w", err)
	}

	return &Ledger{db: db, logger: diagnostics.NewLogReporter()}, nil
}

// Close records the run's completion and closes the database.
func (l *Ledger) Close(success bool) error {
	if _, err := l.db.Exec(
		`UPDATE runs SET finished_at = ?, success = ? WHERE id = ?`,
		time.Now().UTC(), success, l.runID,
	); err != nil {
		l.db.Close()
		return fmt.Errorf("record run end: %w", err)
	}
	return l.db.Close()
}

// ReportVersion satisfies diagnostics.Reporter by delegating to the
// embedded LogReporter; IR growth is not itself persisted.
func (l *Ledger) ReportVersion(version uint64) {
	l.logger.ReportVersion(version)
}

// StartToolRun persists a new tool_runs row and returns a RunReporter
// that updates it on completion.
func (l *Ledger) StartToolRun(toolName string) diagnostics.RunReporter {
	toolRunID := uuid.NewString()
	started := time.Now().UTC()
	if _, err := l.db.Exec(
		`INSERT INTO tool_runs (id, run_id, tool_name, started_at) VALUES (?, ?, ?, ?)`,
		toolRunID, l.runID, toolName, started,
	); err != nil {
		// The ledger is a diagnostics aid, not load-bearing: fall back to
		// log-only reporting rather than failing the run.
		return l.logger.StartToolRun(toolName)
	}
	return &toolRunReporter{
		db:      l.db,
		id:      toolRunID,
		name:    toolName,
		started: started,
		inner:   l.logger.StartToolRun(toolName),
	}
}

type toolRunReporter struct {
	db      *sql.DB
	id      string
	name    string
	started time.Time
	inner   diagnostics.RunReporter
}

func (r *toolRunReporter) Logf(format string, args ...any) {
	r.inner.Logf(format, args...)
}

func (r *toolRunReporter) Done(success bool, err error) {
	r.inner.Done(success, err)

	errText := ""
	if err != nil {
		errText = err.Error()
	}
	elapsed := time.Since(r.started)
	if _, dbErr := r.db.Exec(
		`UPDATE tool_runs SET finished_at = ?, success = ?, error = ? WHERE id = ?`,
		time.Now().UTC(), success, errText, r.id,
	); dbErr != nil {
		r.inner.Logf("failed to persist completion after %s: %v", humanize.RelTime(r.started, time.Now(), "ago", "from now"), dbErr)
		return
	}
	r.inner.Logf("recorded in ledger, elapsed %s", elapsed.Round(time.Millisecond))
}
