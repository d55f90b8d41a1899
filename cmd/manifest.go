package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/malstat/internal/manifest"
	"github.com/spf13/cobra"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [dir]",
	Short: "Show the run manifest of a report directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		} else if c, err := currentConfig(); err == nil {
			dir = c.OutputDir
		}
		if dir == "" {
			dir = "report"
		}
		m, err := manifest.Load(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run: %s\n", m.RunID)
		fmt.Fprintf(out, "Source: %s\n", m.Source)
		if m.Geometry != "" {
			fmt.Fprintf(out, "Geometry: %s\n", m.Geometry)
		}
		fmt.Fprintf(out, "Created: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
		if len(m.Options) > 0 {
			keys := make([]string, 0, len(m.Options))
			for k := range m.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			opts := make([]string, len(keys))
			for i, k := range keys {
				opts[i] = k + "=" + m.Options[k]
			}
			fmt.Fprintf(out, "Options: %s\n", strings.Join(opts, ", "))
		}
		fmt.Fprintln(out)
		rows := make([][]string, len(m.Artifacts))
		for i, a := range m.Artifacts {
			rows[i] = []string{a.Kind, a.Path, fmt.Sprint(a.Bytes)}
		}
		printTable(out, []string{"Kind", "Path", "Bytes"}, rows)
		for _, p := range m.Problems {
			fmt.Fprintf(out, "⚠ %s\n", p)
		}
		fmt.Fprintf(out, "✓ %d artifacts\n", len(m.Artifacts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
