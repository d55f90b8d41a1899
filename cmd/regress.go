package cmd

import (
	"fmt"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/regress"
	"github.com/KaramelBytes/malstat/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	regCovariate string
	regLevel     float64
	regAllRows   bool
)

var regressCmd = &cobra.Command{
	Use:   "regress <data>",
	Short: "Fit the testing rate against a covariate",
	Long: `Fits an ordinary least-squares line between a covariate and the testing rate
over the latest Total snapshot (one point per country). --all-rows fits every
Total row instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		name := c.Covariate
		if regCovariate != "" {
			name = regCovariate
		}
		cov, err := dataset.ParseCovariate(name)
		if err != nil {
			return err
		}
		level := c.ConfidenceLevel
		if cmd.Flags().Changed("level") {
			level = regLevel
		}
		if level <= 0 || level >= 1 {
			return fmt.Errorf("--level must be in (0,1), got %v", level)
		}
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		rows := s.Select(dataset.BySex(dataset.Total))
		if !regAllRows {
			rows = snapshot.Latest(rows, nil)
		}
		fit, err := regress.Fit(regress.Points(rows, cov), level)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Model: Test %% = %.4g + %.4g × %s\n", fit.Intercept, fit.Slope, cov.Label())
		fmt.Fprintf(out, "n=%d, r=%.3f, R²=%.3f, t=%.3f, p=%.4g\n", fit.N, fit.R, fit.R2, fit.T, fit.PValue)
		fmt.Fprintf(out, "Slope %.0f%% CI: [%.4g, %.4g]\n", fit.Level*100, fit.SlopeCI[0], fit.SlopeCI[1])
		fmt.Fprintf(out, "Intercept %.0f%% CI: [%.4g, %.4g]\n", fit.Level*100, fit.InterceptCI[0], fit.InterceptCI[1])
		verdict := "not significant"
		if fit.Significant() {
			verdict = "significant"
		}
		fmt.Fprintf(out, "\n✓ %s association, %s at the %.0f%% level\n", fit.Strength(), verdict, fit.Level*100)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regressCmd)
	regressCmd.Flags().StringVar(&regCovariate, "covariate", "", "gdp_per_capita|population|life_expectancy (default from config)")
	regressCmd.Flags().Float64Var(&regLevel, "level", regress.DefaultLevel, "confidence level for intervals")
	regressCmd.Flags().BoolVar(&regAllRows, "all-rows", false, "fit every Total row instead of the latest per country")
}
