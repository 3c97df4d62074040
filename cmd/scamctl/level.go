package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scamshield/internal/domain/models"
)

var levelCmd = &cobra.Command{
	Use:   "level <points>",
	Short: "show the reputation level for a point total",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := strconv.Atoi(args[0])
		if err != nil || points < 0 {
			return fmt.Errorf("points must be a non-negative integer, got %q", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "level: %s\n", models.LevelFor(points))
		if next, toNext, ok := models.NextLevel(points); ok {
			fmt.Fprintf(out, "next:  %s in %d points\n", next, toNext)
		} else {
			fmt.Fprintln(out, "next:  top level reached")
		}
		return nil
	},
}
