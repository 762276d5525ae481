package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"automata/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tGRID\tSTATES\tMEMO")
		for _, r := range rules.All() {
			grid := "1-D or 2-D"
			if r.Elementary() {
				grid = "1-D"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", r, grid, r.States(), r.StepInvariant())
		}
		return w.Flush()
	},
}
