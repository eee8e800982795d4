// Package buildcheck validates that a materialized Go source tree
// builds, the Go-domain successor to the original's `cargo build
// --release` validation tool. It materializes its input representation
// to the configured output directory, then runs `go build ./...`
// against it under a watchdog timeout, retrying under a rate limit only
// when an attempt times out. A build that finishes with an error is
// reported as a failed BuildResult on the first attempt, without retry.
package buildcheck

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/tool"
)

// materializable is satisfied by any Representation: Materialize is
// already part of the Representation interface, so buildcheck can
// accept whatever upstream tool produced its input.
type materializable interface {
	Materialize(path string) error
}

// BuildResult is the Representation buildcheck produces: either the
// build succeeded, or it failed with the captured compiler output.
type BuildResult struct {
	Success bool
	Output  string
}

func (BuildResult) Name() string { return "build_result" }

func (b BuildResult) String() string {
	if b.Success {
		return "Built Go package: build succeeded."
	}
	return fmt.Sprintf("Built Go package: build failed.\n%s", b.Output)
}

func (BuildResult) Materialize(path string) error { return nil }

// BuildCheck is the Tool that runs `go build ./...` against its
// materialized input and reports the outcome.
type BuildCheck struct {
	maxAttempts int
	timeout     time.Duration
	retryEvery  time.Duration
}

// New constructs a BuildCheck tool that makes up to maxAttempts attempts
// when attempts time out (no faster than one attempt per retryEvery),
// each attempt bounded by timeout.
func New(maxAttempts int, timeout, retryEvery time.Duration) *BuildCheck {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if retryEvery <= 0 {
		retryEvery = time.Second
	}
	return &BuildCheck{maxAttempts: maxAttempts, timeout: timeout, retryEvery: retryEvery}
}

func (*BuildCheck) Name() string { return "build_check" }

func (b *BuildCheck) Run(ctx tool.RunContext, inputs []id.Id) (ir.Representation, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("buildcheck: expected exactly 1 input, got %d", len(inputs))
	}
	pair, ok := find(ctx.IRSnapshot, inputs[0])
	if !ok {
		return nil, fmt.Errorf("buildcheck: no representation found in IR for declared input")
	}

	outputPath := ctx.Config.Output
	if err := pair.Materialize(outputPath); err != nil {
		return nil, fmt.Errorf("materialize build input: %w", err)
	}

	limiter := rate.NewLimiter(rate.Every(b.retryEvery), 1)
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := limiter.Wait(context.Background()); err != nil {
				return nil, fmt.Errorf("buildcheck: rate limiter wait: %w", err)
			}
		}

		ctx.Reporter.Logf("build attempt %d/%d", attempt, b.maxAttempts)
		result, err := b.attempt(outputPath)
		if err == nil {
			return result, nil
		}
		lastErr = err
		ctx.Reporter.Logf("build attempt %d failed: %v", attempt, err)
	}
	return nil, fmt.Errorf("buildcheck: all %d attempts failed: %w", b.maxAttempts, lastErr)
}

// attempt runs a single `go build ./...` invocation bounded by a
// watchdog timeout: an errgroup goroutine runs the command while the
// parent waits on either completion or context cancellation, so a
// hung build cannot block the whole scheduler forever.
func (b *BuildCheck) attempt(outputPath string) (BuildResult, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	g, gctx := errgroup.WithContext(ctxTimeout)
	done := make(chan error, 1)
	g.Go(func() error {
		cmd := exec.CommandContext(gctx, "go", "build", "./...")
		cmd.Dir = outputPath
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		done <- cmd.Run()
		return nil
	})

	select {
	case err := <-done:
		_ = g.Wait()
		if err != nil {
			return BuildResult{Success: false, Output: stderr.String() + stdout.String()}, nil
		}
		return BuildResult{Success: true}, nil
	case <-ctxTimeout.Done():
		_ = g.Wait()
		return BuildResult{}, fmt.Errorf("build timed out after %s", b.timeout)
	}
}

func find(snapshot *ir.IR, target id.Id) (materializable, bool) {
	for _, pair := range snapshot.Iter() {
		if pair.Id == target {
			return pair.Value, true
		}
	}
	return nil, false
}
