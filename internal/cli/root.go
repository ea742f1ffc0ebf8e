// Package cli wires pssh's cobra commands to the dispatch, hostfile,
// module, save, and discover packages. Argument parsing and the
// on-disk config format are this repo's own collaborator layer on
// top of the dispatch engine, laid out the way nixfleet lays out its
// cobra command tree: one rootCmd with persistent flags, one
// constructor function per subcommand.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parallelssh/pssh/internal/config"
)

// Global flags, shared across every subcommand.
var (
	configPath  string
	hostsPath   string
	hostsFormat string
	threads     int
	agentPool   int
	user        string
	timeoutSecs int
	modulesPath string
	saveOutput  bool
	outputFile  string
	prettyJSON  bool
	showBar     bool
	verbose     bool
)

// ExecuteContext runs the pssh command tree under ctx (canceled on
// SIGINT/SIGTERM by main), returning the error cobra surfaced (if
// any) for main to report and turn into an exit code.
func ExecuteContext(ctx context.Context) error {
	return rootCmd().ExecuteContext(ctx)
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pssh",
		Short:         "Run a command or module across thousands of hosts in parallel over SSH",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "Path to pssh config.toml")
	cmd.PersistentFlags().StringVar(&hostsPath, "hosts", "", "Path to a host list or host,command CSV file")
	cmd.PersistentFlags().StringVar(&hostsFormat, "hosts-format", "list", "Host file format: \"list\" or \"csv\"")
	cmd.PersistentFlags().IntVar(&threads, "threads", 0, "Override TcpPool size (0 = use config)")
	cmd.PersistentFlags().IntVar(&agentPool, "agent-pool", 0, "Override AgentPool size (0 = use config)")
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "", "Remote SSH username (default from config)")
	cmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "Override the SSH step timeout in seconds (0 = use config)")
	cmd.PersistentFlags().StringVar(&modulesPath, "modules-path", "", "Override the module registry root (empty = use config)")
	cmd.PersistentFlags().BoolVar(&saveOutput, "save", false, "Persist results incrementally under the date-partitioned output dir")
	cmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Write the final JSON array here instead of (or in addition to) incremental saves")
	cmd.PersistentFlags().BoolVar(&prettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&showBar, "progress", false, "Show a completion bar on stderr")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug-level logging")

	cmd.AddCommand(commandCmd())
	cmd.AddCommand(moduleCmd())
	cmd.AddCommand(discoverCmd())

	return cmd
}

// loadConfig resolves the effective config, applying CLI overrides on
// top of the file (or the documented defaults if none loads).
func loadConfig() *config.Config {
	log := newLogger(verbose)
	cfg := config.LoadOrDefault(configPath, func(format string, args ...interface{}) {
		log.Warn().Msgf(format, args...)
	})

	if threads > 0 {
		cfg.Threads = threads
	}
	if agentPool > 0 {
		cfg.AgentParallelism = agentPool
	}
	if user != "" {
		cfg.User = user
	}
	if timeoutSecs > 0 {
		cfg.TimeoutSeconds = timeoutSecs
	}
	if modulesPath != "" {
		cfg.ModulesPath = modulesPath
	}
	if saveOutput {
		cfg.Output.SaveToFile = true
	}
	if outputFile != "" {
		cfg.Output.Filename = outputFile
	}
	if prettyJSON {
		cfg.Output.PrettyFormat = true
	}
	if showBar {
		cfg.Output.ShowProgress = true
	}
	return cfg
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
