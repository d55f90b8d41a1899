package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/malstat/internal/config"
	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/logger"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set malstat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "columns.country: %s\n", c.Columns.Country)
		fmt.Fprintf(out, "columns.year: %s\n", c.Columns.Year)
		fmt.Fprintf(out, "columns.sex: %s\n", c.Columns.Sex)
		fmt.Fprintf(out, "columns.value: %s\n", c.Columns.Value)
		fmt.Fprintf(out, "columns.gdp_per_capita: %s\n", c.Columns.GDPPerCapita)
		fmt.Fprintf(out, "columns.population: %s\n", c.Columns.Population)
		fmt.Fprintf(out, "columns.life_expectancy: %s\n", c.Columns.LifeExpectancy)
		if c.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", c.Delimiter)
		}
		if c.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", c.Sheet)
		}
		fmt.Fprintf(out, "sex: %s\n", c.Sex)
		fmt.Fprintf(out, "top_n: %d\n", c.TopN)
		fmt.Fprintf(out, "min_periods: %d\n", c.MinPeriods)
		if len(c.TrendEntities) > 0 {
			fmt.Fprintf(out, "trend_entities: %s\n", strings.Join(c.TrendEntities, ", "))
		}
		fmt.Fprintf(out, "covariate: %s\n", c.Covariate)
		fmt.Fprintf(out, "confidence_level: %.3f\n", c.ConfidenceLevel)
		if c.GeoPath != "" {
			fmt.Fprintf(out, "geo_path: %s\n", c.GeoPath)
		}
		fmt.Fprintf(out, "geo_name_property: %s\n", c.GeoNameProperty)
		if c.NameMapPath != "" {
			fmt.Fprintf(out, "name_map_path: %s\n", c.NameMapPath)
		}
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "charts: %t\n", c.Charts)
		fmt.Fprintf(out, "xlsx: %t\n", c.XLSX)
		if c.MetricsTextfile != "" {
			fmt.Fprintf(out, "metrics_textfile: %s\n", c.MetricsTextfile)
		}
		fmt.Fprintf(out, "metrics_namespace: %s\n", c.MetricsNamespace)
		fmt.Fprintf(out, "metrics_subsystem: %s\n", c.MetricsSubsystem)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	if col, ok := strings.CutPrefix(key, "columns."); ok {
		switch col {
		case "country":
			c.Columns.Country = val
		case "year":
			c.Columns.Year = val
		case "sex":
			c.Columns.Sex = val
		case "value":
			c.Columns.Value = val
		case "gdp_per_capita":
			c.Columns.GDPPerCapita = val
		case "population":
			c.Columns.Population = val
		case "life_expectancy":
			c.Columns.LifeExpectancy = val
		default:
			return fmt.Errorf("unknown column key: %s", key)
		}
		return nil
	}
	switch key {
	case "delimiter":
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "decimal_separator":
		c.DecimalSeparator = val
	case "thousands_separator":
		c.ThousandsSeparator = val
	case "sex":
		s, err := dataset.ParseSex(val)
		if err != nil {
			return err
		}
		c.Sex = string(s)
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = i
	case "min_periods":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for min_periods: %v", val)
		}
		c.MinPeriods = i
	case "trend_entities":
		c.TrendEntities = nil
		for _, e := range strings.Split(val, ",") {
			if e = strings.TrimSpace(e); e != "" {
				c.TrendEntities = append(c.TrendEntities, e)
			}
		}
	case "covariate":
		cov, err := dataset.ParseCovariate(val)
		if err != nil {
			return err
		}
		c.Covariate = string(cov)
	case "confidence_level":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid confidence_level: %v (use a value in (0,1))", val)
		}
		c.ConfidenceLevel = f
	case "geo_path":
		c.GeoPath = val
	case "geo_name_property":
		c.GeoNameProperty = val
	case "name_map_path":
		c.NameMapPath = val
	case "output_dir":
		c.OutputDir = val
	case "charts", "xlsx":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		if key == "charts" {
			c.Charts = b
		} else {
			c.XLSX = b
		}
	case "metrics_textfile":
		c.MetricsTextfile = val
	case "metrics_namespace":
		c.MetricsNamespace = val
	case "metrics_subsystem":
		c.MetricsSubsystem = val
	case "log_level":
		if err := logger.SetLevelString(val); err != nil {
			return err
		}
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
