// ABOUTME: Location delete and forget commands
// ABOUTME: Remove points by predicate or every position of one animal

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/location/internal/flux"
	"github.com/harper/location/internal/models"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <bucket> <org> <predicate>",
	Short: "Delete points matching a predicate across all time (admin)",
	Long: `Delete every point in a bucket that matches a predicate, across all time.

Examples:
  location delete Location PetP '_measurement="Animal_position" AND Animal="animal1"'
  location delete Location PetP 'Animal="rex"' --confirm`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, org, predicate := args[0], args[1], args[2]
		if _, err := flux.ParsePredicate(predicate); err != nil {
			return invalidInput("%v", err)
		}

		prompt := fmt.Sprintf("Delete every point in %s matching %s? [y/N] ", bucket, predicate)
		if !confirmed(cmd, prompt) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := store.DeleteRange(cmd.Context(), bucket, org, predicate); err != nil {
			return fmt.Errorf("failed to delete: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Deleted points matching %s from %s", predicate, bucket))
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:     "forget <animal>",
	Aliases: []string{"rm"},
	Short:   "Remove every recorded position of an animal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		animalID := args[0]
		if err := models.ValidateAnimalID(animalID); err != nil {
			return invalidInput("%v", err)
		}

		prompt := fmt.Sprintf("Remove all position history for '%s'? [y/N] ", animalID)
		if !confirmed(cmd, prompt) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := repo.DeleteAnimal(cmd.Context(), animalID); err != nil {
			return fmt.Errorf("failed to remove positions: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Removed %s", animalID))
		return nil
	},
}

// confirmed returns true when --confirm is set or the user answers yes.
func confirmed(cmd *cobra.Command, prompt string) bool {
	if ok, _ := cmd.Flags().GetBool("confirm"); ok {
		return true
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	return readYes(cmd.InOrStdin())
}

func readYes(r io.Reader) bool {
	response, _ := bufio.NewReader(r).ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func init() {
	deleteCmd.Flags().Bool("confirm", false, "skip confirmation prompt")
	forgetCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(forgetCmd)
}
