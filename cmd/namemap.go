package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/malstat/internal/geo"
	"github.com/KaramelBytes/malstat/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	nmPath     string
	nmGeo      string
	nmNameProp string
)

var namemapCmd = &cobra.Command{
	Use:   "namemap",
	Short: "Inspect the geometry-to-dataset country name map",
}

var namemapShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective name map as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, nm, err := loadGeometry("", nmPath, "")
		if err != nil {
			return err
		}
		b, err := nm.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var namemapCheckCmd = &cobra.Command{
	Use:   "check [data]",
	Short: "Report name map entries and countries that do not resolve",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bm, nm, err := loadGeometry(nmGeo, nmPath, nmNameProp)
		if err != nil {
			return err
		}
		if bm == nil {
			return fmt.Errorf("no basemap: pass --geo or set geo_path")
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name map version %d, %d entries; basemap %d polygons\n", nm.Version, len(nm.Entries), len(bm.Features))
		dangling := nm.Dangling(bm.Names())
		if len(dangling) == 0 {
			fmt.Fprintln(out, "✓ Every entry names a polygon")
		} else {
			fmt.Fprintf(out, "⚠ %d entries name no polygon: %s\n", len(dangling), strings.Join(dangling, ", "))
		}
		if len(args) == 1 {
			s, err := loadStore(cmd, args[0])
			if err != nil {
				return err
			}
			res := geo.Join(bm.Features, snapshot.Latest(s.Observations(), nil), nm)
			if len(res.Unmatched) == 0 {
				fmt.Fprintln(out, "✓ Every country has a polygon")
			} else {
				fmt.Fprintf(out, "⚠ %d countries have no polygon: %s\n", len(res.Unmatched), strings.Join(res.Unmatched, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(namemapCmd)
	namemapCmd.AddCommand(namemapShowCmd)
	namemapCmd.AddCommand(namemapCheckCmd)
	namemapCmd.PersistentFlags().StringVar(&nmPath, "name-map", "", "YAML name map (default embedded)")
	namemapCheckCmd.Flags().StringVar(&nmGeo, "geo", "", "GeoJSON FeatureCollection of country polygons")
	namemapCheckCmd.Flags().StringVar(&nmNameProp, "name-property", "", "feature property holding the country name")
}
