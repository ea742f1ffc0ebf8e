// Package config loads the TOML configuration file that drives a
// pssh run: pool sizes, timeouts, the module tree location, and
// output behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/parallelssh/pssh/internal/pathutil"
)

// OutputProps controls how results are persisted.
type OutputProps struct {
	SaveToFile          bool   `toml:"save_to_file"`
	Filename            string `toml:"filename,omitempty"`
	PrettyFormat        bool   `toml:"pretty_format"`
	ShowProgress        bool   `toml:"show_progress"`
	KeepIncrementalData bool   `toml:"keep_incremental_data"`
}

// DefaultOutputProps mirrors the source tool's defaults: nothing
// saved to disk, plain (non-pretty) JSON, no progress bar.
func DefaultOutputProps() OutputProps {
	return OutputProps{
		SaveToFile:          false,
		PrettyFormat:        false,
		ShowProgress:        false,
		KeepIncrementalData: false,
	}
}

// Config is the top-level pssh configuration.
type Config struct {
	// Threads also sets TcpPool's size — one worker slot per thread.
	Threads int `toml:"threads"`
	// AgentParallelism sets AgentPool's size.
	AgentParallelism int `toml:"agent_parallelism"`
	// Command is the default command run in command-mode when the
	// host file doesn't carry a per-host command column.
	Command string `toml:"command"`
	// User is the remote SSH username. The source tool always
	// authenticated as "scan"; pssh keeps that as the config default
	// while letting an operator override it.
	User string `toml:"user,omitempty"`
	// TimeoutSeconds bounds every blocking SSH step.
	TimeoutSeconds int `toml:"timeout"`
	// ModulesPath is the module registry root, expanded for a
	// leading ~/.
	ModulesPath string      `toml:"modules_path,omitempty"`
	Output      OutputProps `toml:"output"`
}

// Default returns a Config with the source tool's documented
// defaults: 10 threads, agent_parallelism 1, a 60s timeout, and a
// "modules" registry root relative to the working directory.
func Default() *Config {
	return &Config{
		Threads:          10,
		AgentParallelism: 1,
		User:             "scan",
		TimeoutSeconds:   60,
		ModulesPath:      "modules",
		Output:           DefaultOutputProps(),
	}
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolvedModulesPath expands a leading ~/ in ModulesPath.
func (c *Config) ResolvedModulesPath() string {
	return pathutil.ExpandHome(c.ModulesPath)
}

// Load reads and parses a TOML config file. Unlike the source tool
// (which silently falls back to defaults on any read or parse
// error, only logging to stderr), Load returns the error — pssh's
// CLI layer decides whether silently defaulting is acceptable for
// its use case.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like the source tool's get_config: a missing
// or unparseable file yields the default Config rather than an error,
// with the cause reported through log rather than returned.
func LoadOrDefault(path string, logf func(format string, args ...interface{})) *Config {
	cfg, err := Load(path)
	if err != nil {
		if logf != nil {
			logf("failed loading config from %s, using defaults: %v", path, err)
		}
		return Default()
	}
	return cfg
}

// DefaultConfigPath returns ~/.config/pssh/config.toml, respecting
// $XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pssh", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pssh", "config.toml")
}

// Validate checks the config for values that would make a dispatch
// impossible to run correctly.
func (c *Config) Validate() error {
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.AgentParallelism <= 0 {
		return fmt.Errorf("agent_parallelism must be positive, got %d", c.AgentParallelism)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.TimeoutSeconds)
	}
	if c.Output.SaveToFile && c.Output.Filename == "" {
		return fmt.Errorf("output.filename is required when output.save_to_file is true")
	}
	return nil
}
