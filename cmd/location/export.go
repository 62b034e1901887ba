// ABOUTME: Export command for generating GeoJSON, YAML, and JSON output
// ABOUTME: Supports relative time windows and point or line geometry

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harper/location/internal/geojson"
	"github.com/harper/location/internal/models"
)

// durationRegex matches relative duration strings like "24h", "7d", "1w".
var durationRegex = regexp.MustCompile(`^(\d+)([hdw])$`)

var exportCmd = &cobra.Command{
	Use:     "export <animal>",
	Aliases: []string{"e"},
	Short:   "Export an animal's positions in various formats",
	Long: `Export an animal's positions as GeoJSON, YAML, or JSON.

Examples:
  # Export the last hour as GeoJSON points
  location export animal1

  # Export the last day as a track
  location export animal1 --since 24h --geometry line

  # Export a week as YAML
  location export animal1 --since 7d --format yaml

  # Save to file
  location export animal1 --since 24h --output track.geojson`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "geojson" && format != "yaml" && format != "json" {
			return invalidInput("unsupported format: %s (use 'geojson', 'yaml', or 'json')", format)
		}

		geometry, _ := cmd.Flags().GetString("geometry")
		if geometry != "points" && geometry != "line" {
			return invalidInput("unsupported geometry: %s (use 'points' or 'line')", geometry)
		}

		since, _ := cmd.Flags().GetString("since")
		window, err := parseWindow(since)
		if err != nil {
			return invalidInput("invalid --since value: %v", err)
		}

		animalID := args[0]
		if err := models.ValidateAnimalID(animalID); err != nil {
			return invalidInput("%v", err)
		}

		positions, err := repo.PositionsSince(cmd.Context(), animalID, window)
		if err != nil {
			return fmt.Errorf("failed to read positions: %w", err)
		}
		if len(positions) == 0 {
			return fmt.Errorf("%w for %s in the last %s", errNoLocationData, animalID, since)
		}

		var data []byte
		switch format {
		case "yaml":
			data, err = yaml.Marshal(positions)
		case "json":
			data, err = json.MarshalIndent(positions, "", "  ")
		default:
			var fc *geojson.FeatureCollection
			if geometry == "line" {
				fc = geojson.ToLineFeatureCollection(positions)
			} else {
				fc = geojson.ToPointsFeatureCollection(positions)
			}
			data, err = fc.ToJSONIndent()
		}
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", format, err)
		}

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d positions to %s\n", len(positions), output)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// parseWindow parses relative windows like "24h", "7d", "1w", or any Go
// duration such as "90m".
func parseWindow(s string) (time.Duration, error) {
	if matches := durationRegex.FindStringSubmatch(s); matches != nil {
		num, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number in duration '%s': %w", s, err)
		}
		var d time.Duration
		switch matches[2] {
		case "h":
			d = time.Duration(num) * time.Hour
		case "d":
			d = time.Duration(num) * 24 * time.Hour
		case "w":
			d = time.Duration(num) * 7 * 24 * time.Hour
		}
		if d <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return d, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format (use e.g., 1h, 90m, 7d, 1w)")
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "geojson", "output format (geojson, yaml, json)")
	exportCmd.Flags().StringP("geometry", "g", "points", "geometry type (points, line)")
	exportCmd.Flags().String("since", "1h", "relative window (e.g., 1h, 90m, 7d, 1w)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}
