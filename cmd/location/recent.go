// ABOUTME: Location recent command
// ABOUTME: Shows an animal's track over the last hour, oldest first

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/location/internal/models"
	"github.com/harper/location/internal/position"
	"github.com/harper/location/internal/ui"
)

var recentCmd = &cobra.Command{
	Use:     "recent <animal>",
	Aliases: []string{"last"},
	Short:   "Show an animal's positions from the last hour",
	Long: `Show every position recorded for an animal in the last hour, oldest first.
Exits non-zero when there is no location data.

Examples:
  location recent animal1
  location recent animal1 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		animalID := args[0]
		if err := models.ValidateAnimalID(animalID); err != nil {
			return invalidInput("%v", err)
		}

		positions, err := repo.PositionsLastHour(cmd.Context(), animalID)
		if err != nil {
			return fmt.Errorf("failed to read positions: %w", err)
		}
		if len(positions) == 0 {
			return fmt.Errorf("%w for %s in the last hour", errNoLocationData, animalID)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(positions, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, ui.FormatTrackHeader(animalID, len(positions), position.RecentWindow))
		for i := range positions {
			fmt.Fprintln(out, ui.FormatPositionForTrack(&positions[i]))
		}
		return nil
	},
}

func init() {
	recentCmd.Flags().Bool("json", false, "print positions as JSON")

	rootCmd.AddCommand(recentCmd)
}
