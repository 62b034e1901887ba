// ABOUTME: Location status command
// ABOUTME: Shows the configured store and checks that it is reachable

package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/location/internal/config"
)

// pinger is implemented by stores that can check server health.
type pinger interface {
	Ping(ctx context.Context) (bool, error)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store configuration and connection health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		faint := color.New(color.Faint).SprintFunc()

		fmt.Fprintf(out, "%s %s\n", faint("backend:"), cfg.GetBackend())
		switch cfg.GetBackend() {
		case config.BackendInflux:
			fmt.Fprintf(out, "%s %s\n", faint("url:    "), cfg.GetInfluxURL())
		default:
			fmt.Fprintf(out, "%s %s\n", faint("data:   "), cfg.GetDataDir())
		}
		fmt.Fprintf(out, "%s %s\n", faint("bucket: "), repo.Bucket())
		fmt.Fprintf(out, "%s %s\n", faint("org:    "), repo.Org())

		if !store.Connected() {
			fmt.Fprintln(out, color.RedString("✗ not connected"))
			return nil
		}

		p, ok := store.(pinger)
		if !ok {
			fmt.Fprintln(out, color.GreenString("✓ connected"))
			return nil
		}
		healthy, err := p.Ping(cmd.Context())
		if err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		if !healthy {
			fmt.Fprintln(out, color.YellowString("⚠ connected, server not ready"))
			return nil
		}
		fmt.Fprintln(out, color.GreenString("✓ connected, server ready"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
