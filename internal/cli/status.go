package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/health"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *options) *cobra.Command {
	var (
		healthPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe the management API",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			url := strings.TrimRight(opts.server, "/") + "/" + strings.TrimLeft(healthPath, "/")
			monitor := health.NewMonitor(
				health.Retry(health.HTTPProbe(store.HTTPClient(), url), 3, 200*time.Millisecond),
				store,
				health.Config{Timeout: timeout, Logger: opts.logger},
			)
			monitor.Check(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", opts.server, store.ServerStatus())
			return nil
		},
	}

	cmd.Flags().StringVar(&healthPath, "health-path", "/api/health", "Health endpoint path")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")
	return cmd
}
