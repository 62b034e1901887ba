// ABOUTME: Location record command
// ABOUTME: Writes one timestamped position sample for an animal

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/location/internal/models"
	"github.com/harper/location/internal/ui"
)

var recordCmd = &cobra.Command{
	Use:     "record <animal> <latitude> <longitude> <altitude>",
	Aliases: []string{"r"},
	Short:   "Record the current position of an animal",
	Long: `Record a position sample for an animal, timestamped now.

Examples:
  location record animal1 52.0907 5.1214 100.5
  location record rex 41.8781 -87.6298 181`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		animalID := args[0]
		if err := models.ValidateAnimalID(animalID); err != nil {
			return invalidInput("%v", err)
		}

		coords := make([]float64, 3)
		for i, name := range []string{"latitude", "longitude", "altitude"} {
			v, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return invalidInput("invalid %s %q", name, args[i+1])
			}
			coords[i] = v
		}
		lat, lng, alt := coords[0], coords[1], coords[2]
		if err := models.ValidateCoordinates(lat, lng, alt); err != nil {
			return invalidInput("%v", err)
		}

		pos, err := repo.RecordPosition(cmd.Context(), animalID, lat, lng, alt)
		if err != nil {
			return fmt.Errorf("failed to record position: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ Recorded position for %s", animalID))
		fmt.Fprintf(out, "  %s\n", ui.FormatPosition(pos))
		fmt.Fprintf(out, "  %s\n", color.New(color.Faint).Sprint(pos.Timestamp.Format(time.RFC3339Nano)))
		return nil
	},
}

func init() {
	// Negative coordinates must not be parsed as flags.
	recordCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(recordCmd)
}
