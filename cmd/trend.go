package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/malstat/internal/trend"
	"github.com/spf13/cobra"
)

var (
	trendMinPeriods int
	trendEntities   []string
)

var trendCmd = &cobra.Command{
	Use:   "trend <data>",
	Short: "List countries with enough years of data to chart a trend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opt := trend.Options{MinPeriods: c.MinPeriods, Entities: c.TrendEntities}
		if cmd.Flags().Changed("min-periods") {
			opt.MinPeriods = trendMinPeriods
		}
		if len(trendEntities) > 0 {
			opt.Entities = trendEntities
		}
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := trend.Select(s.Observations(), opt)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		rows := make([][]string, 0, len(res.Series))
		for _, ser := range res.Series {
			first, last := ser.Span()
			vals := make([]string, len(ser.Points))
			for i, p := range ser.Points {
				vals[i] = fmt.Sprintf("%d:%.1f", p.Period, p.Value)
			}
			rows = append(rows, []string{
				ser.Entity, fmt.Sprint(len(ser.Points)), fmt.Sprintf("%d–%d", first, last),
				fmt.Sprintf("%+.1f", ser.Change()), strings.Join(vals, " "),
			})
		}
		printTable(out, []string{"Country", "Years", "Span", "Change", "Series"}, rows)
		fmt.Fprintf(out, "\n✓ %d series (%d eligible with %d+ years)\n", len(res.Series), res.Eligible, res.MinPeriods)
		if len(res.Excluded) > 0 {
			fmt.Fprintf(out, "⚠ Not enough years: %s\n", strings.Join(res.Excluded, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendCmd.Flags().IntVar(&trendMinPeriods, "min-periods", trend.DefaultMinPeriods, "minimum distinct years with a value")
	trendCmd.Flags().StringSliceVar(&trendEntities, "entity", nil, "restrict to these countries (repeatable)")
}
