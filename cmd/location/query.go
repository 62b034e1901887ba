// ABOUTME: Location query command
// ABOUTME: Runs raw Flux against the store and prints the flattened samples

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <org> <flux>",
	Short: "Run a raw Flux query (admin)",
	Long: `Run Flux query text verbatim and print every record's time and value as JSON.
The query is not scoped to animal data. Only the influxdb backend supports it.

Examples:
  location query PetP 'from(bucket: "Location") |> range(start: -1h)'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		org, text := args[0], args[1]
		if strings.TrimSpace(text) == "" {
			return invalidInput("query text is empty")
		}

		samples, err := store.ExecuteQuery(cmd.Context(), org, text)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		logger.Debug("query", "org", org, "samples", len(samples))

		data, err := json.MarshalIndent(samples, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
