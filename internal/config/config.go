package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Columns   dataset.Columns `mapstructure:"columns" yaml:"columns"`
	Delimiter string          `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet     string          `mapstructure:"sheet" yaml:"sheet"`
	// Numeric locale; empty means auto-detect per value.
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`

	// Views
	Sex             string   `mapstructure:"sex" yaml:"sex"`
	TopN            int      `mapstructure:"top_n" yaml:"top_n"`
	MinPeriods      int      `mapstructure:"min_periods" yaml:"min_periods"`
	TrendEntities   []string `mapstructure:"trend_entities" yaml:"trend_entities"`
	Covariate       string   `mapstructure:"covariate" yaml:"covariate"`
	ConfidenceLevel float64  `mapstructure:"confidence_level" yaml:"confidence_level"`

	// Geometry
	GeoPath         string `mapstructure:"geo_path" yaml:"geo_path"`
	GeoNameProperty string `mapstructure:"geo_name_property" yaml:"geo_name_property"`
	NameMapPath     string `mapstructure:"name_map_path" yaml:"name_map_path"`

	// Output
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir"`
	Charts          bool   `mapstructure:"charts" yaml:"charts"`
	XLSX            bool   `mapstructure:"xlsx" yaml:"xlsx"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
	// Prefix of every metric name: <namespace>_<subsystem>_rows_loaded.
	MetricsNamespace string `mapstructure:"metrics_namespace" yaml:"metrics_namespace"`
	MetricsSubsystem string `mapstructure:"metrics_subsystem" yaml:"metrics_subsystem"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// LoadOptions converts the dataset settings into loader options.
func (c *Global) LoadOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	opt.Columns = c.Columns
	opt.Delimiter = firstRune(c.Delimiter)
	opt.DecimalSeparator = firstRune(c.DecimalSeparator)
	opt.ThousandsSeparator = firstRune(c.ThousandsSeparator)
	opt.Sheet = c.Sheet
	return opt
}

func firstRune(s string) rune {
	if s == `\t` {
		return '\t'
	}
	for _, r := range s {
		return r
	}
	return 0
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".malstat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.malstat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MALSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	cols := dataset.DefaultColumns()
	v.SetDefault("columns.country", cols.Country)
	v.SetDefault("columns.year", cols.Year)
	v.SetDefault("columns.sex", cols.Sex)
	v.SetDefault("columns.value", cols.Value)
	v.SetDefault("columns.gdp_per_capita", cols.GDPPerCapita)
	v.SetDefault("columns.population", cols.Population)
	v.SetDefault("columns.life_expectancy", cols.LifeExpectancy)
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("sex", string(dataset.Total))
	v.SetDefault("top_n", 10)
	v.SetDefault("min_periods", 3)
	v.SetDefault("trend_entities", []string{})
	v.SetDefault("covariate", string(dataset.GDPPerCapita))
	v.SetDefault("confidence_level", 0.95)
	v.SetDefault("geo_path", "")
	v.SetDefault("geo_name_property", "name")
	v.SetDefault("name_map_path", "")
	v.SetDefault("output_dir", "report")
	v.SetDefault("charts", true)
	v.SetDefault("xlsx", true)
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("metrics_namespace", "malstat")
	v.SetDefault("metrics_subsystem", "report")
	v.SetDefault("log_level", "info")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.TopN <= 0 {
		c.TopN = 10
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return nil, fmt.Errorf("confidence_level must be in (0,1), got %v", c.ConfidenceLevel)
	}
	return &c, nil
}
