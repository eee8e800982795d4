// Package config loads the process-wide, immutable configuration
// snapshot shared by the CLI, the scheduler, and every tool: a YAML
// file overridden by environment variables, overridden in turn by
// explicit CLI flags (applied by the caller after Load returns).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide, immutable snapshot tools and the
// scheduler read from. The core only reads it; it never validates the
// per-tool sub-tables in Tools.
type Config struct {
	// Input is the path to the on-disk tree tools will freeze and
	// translate.
	Input string `yaml:"input"`
	// Output is the path tools materialize their final artifacts to.
	Output string `yaml:"output"`
	// Force erases the output/diagnostics directories if nonempty
	// before a run starts.
	Force bool `yaml:"force"`
	// Tools holds opaque, per-tool configuration tables, looked up by
	// tool name. The core never inspects these; individual tools do.
	Tools map[string]map[string]any `yaml:"tools"`

	Log         LogConfig         `yaml:"log"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// LogConfig controls ambient logging, independent of any per-tool config.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SchedulerConfig controls the runner's concurrency policy.
type SchedulerConfig struct {
	// MaxParallelism bounds how many tool invocations may run at once.
	// 0 means unbounded, matching the original's one-OS-thread-per-
	// invocation behavior.
	MaxParallelism int `yaml:"max_parallelism"`
}

// DiagnosticsConfig controls the scratch/diagnostics directory and the
// optional persistent run ledger.
type DiagnosticsConfig struct {
	// Dir is the scratch/diagnostics directory that `harvest run`
	// creates before a run (and erases first when Force is set). The
	// frozen filesystem is not rooted here: loadsource freezes the
	// input directory in place, with its parent as the freezer root.
	Dir string `yaml:"dir"`
	// LedgerPath is the SQLite database path for the run ledger. Empty
	// disables the ledger.
	LedgerPath string `yaml:"ledger_path"`
}

// Snapshot returns a config, cheap to clone and share with a worker
// goroutine: Config is immutable once Load returns, so a snapshot is
// just the same pointer.
func (c *Config) Snapshot() *Config {
	return c
}

// ToolConfig returns the opaque per-tool config table for name, or nil
// if none was configured.
func (c *Config) ToolConfig(name string) map[string]any {
	if c == nil {
		return nil
	}
	return c.Tools[name]
}

// DefaultConfig returns the configuration used when no file, env var,
// or flag supplies a value.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Scheduler: SchedulerConfig{
			MaxParallelism: 0,
		},
		Diagnostics: DiagnosticsConfig{
			Dir: filepath.Join(os.TempDir(), "harvest-diagnostics"),
		},
	}
}

// Load loads configuration using the real environment and the default
// config file search path.
func Load(explicitPath string) (*Config, error) {
	return LoadWithEnv(explicitPath, os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function, so tests can supply isolated environment values. explicitPath,
// if non-empty, is used instead of the XDG-derived default location
// (mirroring the CLI's --config flag taking precedence over the default
// search path).
func LoadWithEnv(explicitPath string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := explicitPath
	if configPath == "" {
		configPath = configPathWithEnv(getenv)
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	if input := getenv("HARVEST_INPUT"); input != "" {
		cfg.Input = input
	}
	if output := getenv("HARVEST_OUTPUT"); output != "" {
		cfg.Output = output
	}
	if force := getenv("HARVEST_FORCE"); force != "" {
		cfg.Force = force == "1" || force == "true"
	}
	if dir := getenv("HARVEST_DIAGNOSTICS_DIR"); dir != "" {
		cfg.Diagnostics.Dir = dir
	}
	if level := getenv("HARVEST_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

// ConfigPath returns the default config file path using the real
// environment.
func ConfigPath() string {
	return configPathWithEnv(os.Getenv)
}

func configPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "harvest", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "harvest", "config.yaml")
}
