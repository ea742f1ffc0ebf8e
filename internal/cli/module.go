package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parallelssh/pssh/internal/hostfile"
)

// moduleCmd runs a named module (a bundled bin/bash/python script)
// against every host in a line-list host file.
func moduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module [flags] <module-name>",
		Short: "Run a registered module across the configured hosts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(cmd.Context(), args[0])
		},
	}
	return cmd
}

func runModule(ctx context.Context, moduleName string) error {
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

	hosts, err := hostfile.ParseList(f)
	if err != nil {
		return fmt.Errorf("parse hosts file: %w", err)
	}
	if len(hosts) == 0 {
		return fmt.Errorf("hosts file %s yielded no usable hosts", hostsPath)
	}

	d := buildDispatcher(cfg, true, log)
	ch := d.ParallelModuleEvaluation(ctx, hosts, moduleName)
	responses := drain(ctx, ch, cfg, moduleName, log, len(hosts))

	ok := 0
	for _, r := range responses {
		if r.Status {
			ok++
		}
	}
	log.Info().Str("module", moduleName).Int("ok", ok).Int("total", len(responses)).Msg("module run complete")
	return nil
}
