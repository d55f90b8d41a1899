package cmd

import (
	"fmt"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/snapshot"
	"github.com/spf13/cobra"
)

var snapSex string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <data>",
	Short: "Show the latest observation per country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sex, err := parseSexFlag(snapSex)
		if err != nil {
			return err
		}
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		snaps := snapshot.Latest(s.Observations(), dataset.BySex(sex))
		out := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintf(out, "No %s rows in %s\n", sex, s.Name())
			return nil
		}
		rows := make([][]string, 0, len(snaps))
		for _, o := range snaps {
			rows = append(rows, []string{
				o.Entity, fmt.Sprint(o.Period), fmtPtr(o.Value),
				fmtPtr(o.GDPPerCapita), fmtPtr(o.Population), fmtPtr(o.LifeExpectancy),
			})
		}
		printTable(out, []string{"Country", "Year", "Test %", "GDP per capita", "Population", "Life expectancy"}, rows)
		fmt.Fprintf(out, "\n✓ %d countries (%s)\n", len(snaps), sex)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVar(&snapSex, "sex", "", "category: Total|Male|Female (default from config)")
}
