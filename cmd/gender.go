package cmd

import (
	"fmt"

	"github.com/KaramelBytes/malstat/internal/pivot"
	"github.com/spf13/cobra"
)

var genSort string

var genderCmd = &cobra.Command{
	Use:   "gender <data>",
	Short: "Compare the latest male and female testing rates per country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if genSort != "gap" && genSort != "entity" {
			return fmt.Errorf("unsupported --sort: %s (use gap|entity)", genSort)
		}
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		rows := pivot.GenderGap(s.Observations())
		if genSort == "gap" {
			pivot.SortByAbsGap(rows)
		}
		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No country reports both sexes")
			return nil
		}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{
				r.Entity,
				fmt.Sprintf("%.1f (%d)", r.First.Value, r.First.Period),
				fmt.Sprintf("%.1f (%d)", r.Second.Value, r.Second.Period),
				fmt.Sprintf("%+.1f", r.Gap),
			})
		}
		printTable(out, []string{"Country", "Male %", "Female %", "Gap"}, table)
		higher, lower, equal := pivot.Direction(rows)
		fmt.Fprintf(out, "\n✓ %d countries: male higher in %d, female higher in %d, equal in %d\n", len(rows), higher, lower, equal)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genderCmd)
	genderCmd.Flags().StringVar(&genSort, "sort", "gap", "row order: gap|entity")
}
