package diagnostics

import "testing"

func TestLogReporterStartToolRunReturnsDistinctRunReporters(t *testing.T) {
	r := NewLogReporter()
	a := r.StartToolRun("loadsource")
	b := r.StartToolRun("loadsource")
	if a == b {
		t.Fatal("StartToolRun should return a fresh RunReporter per call")
	}
}

func TestLogReporterDoneDoesNotPanicOnSuccessOrFailure(t *testing.T) {
	r := NewLogReporter()
	run := r.StartToolRun("identifykind")
	run.Logf("scanning %d entries", 3)
	run.Done(true, nil)

	run2 := r.StartToolRun("buildcheck")
	run2.Done(false, errBoom)
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestLogReporterReportVersionDoesNotPanic(t *testing.T) {
	r := NewLogReporter()
	r.ReportVersion(1)
	r.ReportVersion(2)
}
