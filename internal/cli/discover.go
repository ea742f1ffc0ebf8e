package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parallelssh/pssh/internal/discover"
)

// discoverCmd scans a CIDR range for reachable SSH hosts and writes
// the result as a line-list host file (host:port per line, via
// discover.Addrs), suitable as --hosts input to command or module —
// hostfile.ParseList accepts an explicit port so a non-default port
// found by this scan survives into the dispatch.
func discoverCmd() *cobra.Command {
	var (
		port        int
		concurrency int
		timeoutMS   int
		out         string
	)

	cmd := &cobra.Command{
		Use:   "discover <cidr>",
		Short: "Scan a CIDR range for hosts listening on an SSH port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := discover.CIDRScan(cmd.Context(), args[0], port, concurrency, time.Duration(timeoutMS)*time.Millisecond)
			if err != nil {
				return fmt.Errorf("scan %s: %w", args[0], err)
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			for _, addr := range discover.Addrs(hosts) {
				fmt.Fprintln(w, addr)
			}
			if out != "" {
				fmt.Fprintf(os.Stderr, "found %d hosts, written to %s\n", len(hosts), out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 22, "TCP port to probe")
	cmd.Flags().IntVar(&concurrency, "concurrency", 256, "Max parallel dials")
	cmd.Flags().IntVar(&timeoutMS, "timeout-ms", 500, "Per-host dial timeout in milliseconds")
	cmd.Flags().StringVar(&out, "out", "", "Write discovered hosts here instead of stdout")

	return cmd
}
