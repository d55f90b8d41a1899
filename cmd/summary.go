package cmd

import (
	"fmt"

	"github.com/KaramelBytes/malstat/internal/aggregate"
	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	sumSex    string
	sumTop    int
	sumBottom bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <data>",
	Short: "Rank countries by mean testing rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sex, err := parseSexFlag(sumSex)
		if err != nil {
			return err
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		n := c.TopN
		if cmd.Flags().Changed("top") {
			n = sumTop
		}
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		ranked := aggregate.Summarize(s.Observations(), dataset.BySex(sex))
		pick := aggregate.Top(ranked, n)
		if sumBottom {
			pick = aggregate.Bottom(ranked, n)
		}
		out := cmd.OutOrStdout()
		rows := make([][]string, 0, len(pick))
		for _, r := range pick {
			rows = append(rows, []string{
				r.Entity, fmt.Sprintf("%.1f", r.Mean), fmt.Sprintf("%.1f", r.Min), fmt.Sprintf("%.1f", r.Max),
				fmt.Sprintf("%d/%d", r.Count, r.Rows), fmt.Sprintf("%d–%d", r.First, r.Last),
			})
		}
		printTable(out, []string{"Country", "Mean %", "Min %", "Max %", "Values", "Years"}, rows)
		invalid := len(ranked) - len(aggregate.Top(ranked, 0))
		fmt.Fprintf(out, "\n✓ %d of %d countries shown (%s)\n", len(pick), len(ranked), sex)
		if invalid > 0 {
			fmt.Fprintf(out, "⚠ %d countries have rows but no value\n", invalid)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&sumSex, "sex", "", "category: Total|Male|Female (default from config)")
	summaryCmd.Flags().IntVar(&sumTop, "top", 10, "number of countries to show (0 = all)")
	summaryCmd.Flags().BoolVar(&sumBottom, "bottom", false, "show the lowest ranked countries instead")
}
