package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/malstat/internal/config"
	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string
	// Dataset flags (override config if set)
	flagDelimiter string
	flagSheet     string
	flagDecimal   string
	flagThousands string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "malstat",
	Short: "malstat: malaria testing statistics reports",
	Long: `malstat loads a long-format CSV/XLSX of malaria testing statistics and derives
the views a testing report needs: latest snapshot per country, ranked summaries,
the male/female gap, a map join, longitudinal trends and a covariate regression.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.malstat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	rootCmd.PersistentFlags().StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	rootCmd.PersistentFlags().StringVar(&flagThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
}

func loadConfig() {
	level := "info"
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report the error themselves
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	} else {
		cfg = c
		level = cfg.LogLevel
	}
	if logLevel != "" {
		level = logLevel
	}
	if debug {
		level = "debug"
	}
	if err := logger.Init(os.Stderr, level); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using info\n", err)
		_ = logger.Init(os.Stderr, "info")
	}
}

// currentConfig returns the loaded configuration, loading it on first use.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// loadOptions merges config and dataset flags into loader options.
func loadOptions() (dataset.Options, error) {
	c, err := currentConfig()
	if err != nil {
		return dataset.Options{}, err
	}
	opt := c.LoadOptions()
	if opt.Columns == (dataset.Columns{}) {
		opt.Columns = dataset.DefaultColumns()
	}
	if flagDelimiter != "" {
		switch flagDelimiter {
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		case "|":
			opt.Delimiter = '|'
		default:
			return opt, fmt.Errorf("unsupported --delimiter: %s", flagDelimiter)
		}
	}
	if flagSheet != "" {
		opt.Sheet = flagSheet
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(flagDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", flagDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(flagThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", flagThousands)
	}
	return opt, nil
}

// loadStore reads the dataset at path and reports load warnings on stderr.
func loadStore(cmd *cobra.Command, path string) (*dataset.Store, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	s, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	log := logger.Named("load")
	for _, w := range s.Warnings() {
		log.Debug(context.Background(), w, logger.String("file", s.Name()))
	}
	if n := len(s.Warnings()); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d load warnings for %s (run with --debug to list)\n", n, s.Name())
	}
	return s, nil
}

// parseSexFlag falls back to the configured category when the flag is empty.
func parseSexFlag(v string) (dataset.Sex, error) {
	if v == "" {
		if c, err := currentConfig(); err == nil && c.Sex != "" {
			v = c.Sex
		} else {
			return dataset.Total, nil
		}
	}
	return dataset.ParseSex(v)
}
