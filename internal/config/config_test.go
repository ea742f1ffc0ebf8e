package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Threads != 10 {
		t.Fatalf("Threads = %d, want 10", cfg.Threads)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
threads = 50
agent_parallelism = 5
command = "uptime"
timeout = 30
modules_path = "./modules"

[output]
save_to_file = true
filename = "results.json"
pretty_format = true
show_progress = false
keep_incremental_data = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threads != 50 || cfg.AgentParallelism != 5 {
		t.Fatalf("unexpected pool sizes: %+v", cfg)
	}
	if cfg.Command != "uptime" {
		t.Fatalf("Command = %q, want uptime", cfg.Command)
	}
	if !cfg.Output.SaveToFile || cfg.Output.Filename != "results.json" {
		t.Fatalf("unexpected output props: %+v", cfg.Output)
	}
	if cfg.Timeout().Seconds() != 30 {
		t.Fatalf("Timeout() = %v, want 30s", cfg.Timeout())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrDefaultFallsBackAndLogs(t *testing.T) {
	var logged string
	cfg := LoadOrDefault("/nonexistent/config.toml", func(format string, args ...interface{}) {
		logged = format
	})
	if cfg.Threads != Default().Threads {
		t.Fatalf("expected default config on load failure")
	}
	if logged == "" {
		t.Fatal("expected the fallback to be logged")
	}
}

func TestValidateRequiresFilenameWhenSaving(t *testing.T) {
	cfg := Default()
	cfg.Output.SaveToFile = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when save_to_file is set without a filename")
	}
}

func TestValidateRejectsNonPositiveThreads(t *testing.T) {
	cfg := Default()
	cfg.Threads = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero threads")
	}
}
