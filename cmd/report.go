package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/export"
	"github.com/KaramelBytes/malstat/internal/logger"
	"github.com/KaramelBytes/malstat/internal/manifest"
	"github.com/KaramelBytes/malstat/internal/metrics"
	"github.com/KaramelBytes/malstat/internal/render"
	"github.com/KaramelBytes/malstat/internal/report"
	"github.com/KaramelBytes/malstat/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repGeo         string
	repNameMap     string
	repNameProp    string
	repOut         string
	repNoCharts    bool
	repNoXLSX      bool
	repMetricsFile string
	repSex         string
	repTop         int
	repCovariate   string
	repLevel       float64
	repMinPeriods  int
	repEntities    []string
)

var reportCmd = &cobra.Command{
	Use:   "report <data>",
	Short: "Build the full report: Markdown, charts, workbook and manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()

		opt := report.DefaultOptions()
		opt.Logger = logger.Named("report")
		if opt.Sex, err = parseSexFlag(repSex); err != nil {
			return err
		}
		opt.TopN = c.TopN
		if f.Changed("top") {
			opt.TopN = repTop
		}
		opt.Trend.MinPeriods = c.MinPeriods
		opt.Trend.Entities = c.TrendEntities
		if f.Changed("min-periods") {
			opt.Trend.MinPeriods = repMinPeriods
		}
		if len(repEntities) > 0 {
			opt.Trend.Entities = repEntities
		}
		cov := c.Covariate
		if repCovariate != "" {
			cov = repCovariate
		}
		if cov != "" {
			if opt.Covariate, err = dataset.ParseCovariate(cov); err != nil {
				return err
			}
		}
		if c.ConfidenceLevel > 0 {
			opt.Level = c.ConfidenceLevel
		}
		if f.Changed("level") {
			opt.Level = repLevel
		}
		outDir := c.OutputDir
		if repOut != "" {
			outDir = repOut
		}
		if outDir == "" {
			outDir = "report"
		}
		charts := c.Charts && !repNoCharts
		xlsx := c.XLSX && !repNoXLSX
		metricsFile := c.MetricsTextfile
		if repMetricsFile != "" {
			metricsFile = repMetricsFile
		}
		if metricsFile != "" {
			opt.Metrics = metrics.NewManager(metrics.WithNamespace(c.MetricsNamespace), metrics.WithSubsystem(c.MetricsSubsystem))
		}

		start := time.Now()
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		opt.Metrics.ObserveStage("load", start)
		if opt.Basemap, opt.NameMap, err = loadGeometry(repGeo, repNameMap, repNameProp); err != nil {
			return err
		}

		rep, err := report.Build(ctx, s, opt)
		if err != nil {
			return err
		}

		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		m := manifest.New(rep.RunID, args[0], outDir)
		if repGeo != "" {
			m.Geometry = repGeo
		} else {
			m.Geometry = c.GeoPath
		}
		m.SetOption("sex", string(opt.Sex))
		m.SetOption("top_n", fmt.Sprint(opt.TopN))
		m.SetOption("min_periods", fmt.Sprint(opt.Trend.MinPeriods))
		m.SetOption("covariate", string(opt.Covariate))
		m.SetOption("confidence_level", fmt.Sprint(opt.Level))
		for _, p := range rep.Problems {
			m.Problems = append(m.Problems, p.Error())
		}

		out := cmd.OutOrStdout()
		mdPath := filepath.Join(outDir, "report.md")
		if err := utils.SafeWriteFile(mdPath, []byte(rep.Markdown())); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if err := m.Add("markdown", mdPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote report to %s\n", mdPath)

		if charts {
			start := time.Now()
			written, failures := render.Charts(rep, chartOptions(outDir, rep))
			opt.Metrics.ObserveStage("charts", start)
			for _, ch := range written {
				if err := m.Add("chart", ch.Path); err != nil {
					return err
				}
			}
			for _, fl := range failures {
				m.Problems = append(m.Problems, fl.Error())
				opt.Metrics.RecordFailure("chart_" + fl.Kind)
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %v\n", fl)
			}
			fmt.Fprintf(out, "✓ Wrote %d charts\n", len(written))
		}
		if xlsx {
			start := time.Now()
			path := filepath.Join(outDir, "malstat.xlsx")
			if err := export.Workbook(rep, path); err != nil {
				return err
			}
			opt.Metrics.ObserveStage("xlsx", start)
			if err := m.Add("workbook", path); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote workbook to %s\n", path)
		}
		if metricsFile != "" {
			if err := opt.Metrics.WriteTextfile(metricsFile); err != nil {
				return err
			}
			if err := m.Add("metrics", metricsFile); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote metrics to %s\n", metricsFile)
		}
		if err := m.Save(); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		fmt.Fprintf(out, "✓ Run %s: %d artifacts listed in %s\n", rep.RunID, len(m.Artifacts), m.Path())
		if len(rep.Problems) > 0 {
			views := make([]string, len(rep.Problems))
			for i, p := range rep.Problems {
				views[i] = p.View
			}
			fmt.Fprintf(out, "⚠ Views unavailable: %s (see [NOTES])\n", strings.Join(views, ", "))
		}
		return nil
	},
}

// chartOptions sizes the ranked chart like the [TOP ENTITIES] table.
func chartOptions(outDir string, rep *report.Report) render.Options {
	ro := render.DefaultOptions(filepath.Join(outDir, "charts"))
	if rep.TopN > 0 {
		ro.TopN = rep.TopN
	}
	return ro
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&repGeo, "geo", "", "GeoJSON FeatureCollection of country polygons")
	reportCmd.Flags().StringVar(&repNameMap, "name-map", "", "YAML name map (default embedded)")
	reportCmd.Flags().StringVar(&repNameProp, "name-property", "", "feature property holding the country name")
	reportCmd.Flags().StringVarP(&repOut, "out", "o", "", "output directory (default from config: report)")
	reportCmd.Flags().BoolVar(&repNoCharts, "no-charts", false, "skip PNG charts")
	reportCmd.Flags().BoolVar(&repNoXLSX, "no-xlsx", false, "skip the Excel workbook")
	reportCmd.Flags().StringVar(&repMetricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	reportCmd.Flags().StringVar(&repSex, "sex", "", "category for snapshot and ranking: Total|Male|Female")
	reportCmd.Flags().IntVar(&repTop, "top", 10, "countries in the ranked section")
	reportCmd.Flags().StringVar(&repCovariate, "covariate", "", "regression covariate: gdp_per_capita|population|life_expectancy")
	reportCmd.Flags().Float64Var(&repLevel, "level", 0.95, "confidence level for the regression intervals")
	reportCmd.Flags().IntVar(&repMinPeriods, "min-periods", 3, "minimum distinct years for a trend")
	reportCmd.Flags().StringSliceVar(&repEntities, "entity", nil, "restrict trends to these countries (repeatable)")
}
