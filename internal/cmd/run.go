package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/diagnostics"
	"github.com/jra3/harvest/internal/diagnostics/ledger"
	"github.com/jra3/harvest/internal/id"
	"github.com/jra3/harvest/internal/ir"
	"github.com/jra3/harvest/internal/runner"
	"github.com/jra3/harvest/internal/scheduler"
	"github.com/jra3/harvest/internal/tools/buildcheck"
	"github.com/jra3/harvest/internal/tools/identifykind"
	"github.com/jra3/harvest/internal/tools/loadsource"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Freeze the configured input and run the tool pipeline",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("input", "", "source directory to freeze (overrides config)")
	runCmd.Flags().String("output", "", "directory to materialize results into (overrides config)")
	runCmd.Flags().Bool("force", false, "erase the output/diagnostics directories before running")
}

func runRun(cmd *cobra.Command, args []string) error {
	explicitConfig, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(explicitConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if debugEnabled(cmd) {
		cfg.Log.Level = "debug"
		log.Printf("[run] debug logging enabled")
	}

	if input, _ := cmd.Flags().GetString("input"); input != "" {
		cfg.Input = input
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output = output
	}
	if force, _ := cmd.Flags().GetBool("force"); force {
		cfg.Force = true
	}
	if cfg.Input == "" {
		return fmt.Errorf("no input directory configured: pass --input or set input in the config file")
	}
	if cfg.Output == "" {
		return fmt.Errorf("no output directory configured: pass --output or set output in the config file")
	}

	if cfg.Force {
		if err := os.RemoveAll(cfg.Output); err != nil {
			return fmt.Errorf("force-clean output directory: %w", err)
		}
		if err := os.RemoveAll(cfg.Diagnostics.Dir); err != nil {
			return fmt.Errorf("force-clean diagnostics directory: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Diagnostics.Dir, 0o755); err != nil {
		return fmt.Errorf("create diagnostics directory: %w", err)
	}

	var reporter diagnostics.Reporter
	var l *ledger.Ledger
	if cfg.Diagnostics.LedgerPath != "" {
		l, err = ledger.Open(cfg.Diagnostics.LedgerPath, cfg.Input, cfg.Output)
		if err != nil {
			return fmt.Errorf("open diagnostics ledger: %w", err)
		}
		reporter = l
	} else {
		reporter = diagnostics.NewLogReporter()
	}

	harvestIR := ir.New(reporter)
	s := scheduler.New()

	rawSourceID := s.Queue(loadsource.New(cfg.Input))
	// identifykind and buildcheck both read the frozen raw source
	// independently: classification is informational, and build
	// validation always runs against the raw tree itself.
	s.QueueAfter(identifykind.New(), []id.Id{rawSourceID})
	s.QueueAfter(buildcheck.New(3, 2*time.Minute, time.Second), []id.Id{rawSourceID})

	r := runner.New(reporter, cfg.Scheduler.MaxParallelism)
	runErr := s.RunAll(r, harvestIR, cfg)

	success := runErr == nil
	if l != nil {
		if closeErr := l.Close(success); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing diagnostics ledger: %v\n", closeErr)
		}
	}
	if runErr != nil {
		return fmt.Errorf("run pipeline: %w", runErr)
	}

	fmt.Printf("harvest: pipeline completed, IR version %d\n", harvestIR.Version())
	return nil
}
