package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parallelssh/pssh/internal/hostfile"
)

// commandCmd runs a single shell command (or a per-host command column
// from a CSV host file) against every target host.
func commandCmd() *cobra.Command {
	var command string

	cmd := &cobra.Command{
		Use:   "command [flags] [command]",
		Short: "Run a shell command across the configured hosts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				command = args[0]
			}
			return runCommand(cmd.Context(), command)
		},
	}
	return cmd
}

func runCommand(ctx context.Context, commandOverride string) error {
	if hostsPath == "" {
		return fmt.Errorf("--hosts is required")
	}
	cfg := loadConfig()
	log := newLogger(verbose)

	f, err := os.Open(hostsPath)
	if err != nil {
		return fmt.Errorf("open hosts file: %w", err)
	}
	defer f.Close()

	var hosts map[string]string
	switch strings.ToLower(hostsFormat) {
	case "csv":
		hosts, err = hostfile.ParseCSV(f)
	case "list":
		var addrs []string
		addrs, err = hostfile.ParseList(f)
		if err == nil {
			command := commandOverride
			if command == "" {
				command = cfg.Command
			}
			if command == "" {
				return fmt.Errorf("no command given: pass one as an argument, set config.command, or use --hosts-format csv")
			}
			hosts = make(map[string]string, len(addrs))
			for _, a := range addrs {
				hosts[a] = command
			}
		}
	default:
		return fmt.Errorf("unknown --hosts-format %q (want \"list\" or \"csv\")", hostsFormat)
	}
	if err != nil {
		return fmt.Errorf("parse hosts file: %w", err)
	}
	if len(hosts) == 0 {
		return fmt.Errorf("hosts file %s yielded no usable hosts", hostsPath)
	}

	d := buildDispatcher(cfg, false, log)
	ch := d.ParallelCommandEvaluation(ctx, hosts)
	responses := drain(ctx, ch, cfg, "command", log, len(hosts))

	ok := 0
	for _, r := range responses {
		if r.Status {
			ok++
		}
	}
	log.Info().Int("ok", ok).Int("total", len(responses)).Msg("command run complete")
	return nil
}
