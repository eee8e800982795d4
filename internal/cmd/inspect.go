package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jra3/harvest/internal/config"
	"github.com/jra3/harvest/internal/frozenfs"
	"github.com/jra3/harvest/internal/fuseview"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [directory] [mountpoint]",
	Short: "Freeze a directory and mount it read-only for inspection",
	Long:  `inspect freezes the given directory (default: the configured input) and mounts it read-only at mountpoint via FUSE, so it can be browsed with ordinary filesystem tools.`,
	Args:  cobra.MaximumNArgs(2),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	explicitConfig, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(explicitConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	directory := cfg.Input
	if len(args) > 0 {
		directory = args[0]
	}
	if directory == "" {
		return fmt.Errorf("no directory to inspect: pass a directory argument or set input in the config file")
	}

	mountpoint := ""
	if len(args) > 1 {
		mountpoint = args[1]
	}
	if mountpoint == "" {
		return fmt.Errorf("mountpoint required: harvest inspect [directory] /path/to/mount")
	}
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return fmt.Errorf("create mountpoint: %w", err)
	}

	parent := filepath.Dir(directory)
	base := filepath.Base(directory)
	fz := frozenfs.New(parent)
	entry, err := fz.Freeze(base)
	if err != nil {
		return fmt.Errorf("freeze %s: %w", directory, err)
	}
	dir, ok := frozenfs.AsDir(entry)
	if !ok {
		return fmt.Errorf("%s is not a directory", directory)
	}

	view := fuseview.New(dir, debugEnabled(cmd))
	server, err := view.Mount(mountpoint)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nUnmounting...")
		server.Unmount()
	}()

	fmt.Printf("Mounted %s (read-only) at %s. Press Ctrl+C to unmount.\n", directory, mountpoint)
	server.Wait()
	return nil
}
