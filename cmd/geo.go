package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/geo"
	"github.com/KaramelBytes/malstat/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	geoPath     string
	geoNameMap  string
	geoNameProp string
	geoSex      string
	geoAll      bool
)

// loadGeometry resolves the basemap and name map from flags, then config.
// An empty basemap path returns a nil basemap.
func loadGeometry(path, nameMapPath, nameProp string) (*geo.Basemap, *geo.NameMap, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		path = c.GeoPath
	}
	if nameMapPath == "" {
		nameMapPath = c.NameMapPath
	}
	if nameProp == "" {
		nameProp = c.GeoNameProperty
	}
	nm, err := geo.LoadNameMap(nameMapPath)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return nil, nm, nil
	}
	bm, err := geo.LoadGeoJSON(path, nameProp)
	if err != nil {
		return nil, nil, err
	}
	return bm, nm, nil
}

var geoCmd = &cobra.Command{
	Use:   "geo <data>",
	Short: "Join the latest snapshot onto basemap polygons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sex, err := parseSexFlag(geoSex)
		if err != nil {
			return err
		}
		bm, nm, err := loadGeometry(geoPath, geoNameMap, geoNameProp)
		if err != nil {
			return err
		}
		if bm == nil {
			return fmt.Errorf("no basemap: pass --geo or set geo_path")
		}
		s, err := loadStore(cmd, args[0])
		if err != nil {
			return err
		}
		snaps := snapshot.Latest(s.Observations(), dataset.BySex(sex))
		res := geo.Join(bm.Features, snaps, nm)

		out := cmd.OutOrStdout()
		var rows [][]string
		for _, r := range res.Rows {
			if r.Snapshot == nil && !geoAll {
				continue
			}
			year, val := "", "no data"
			if r.Snapshot != nil {
				year = fmt.Sprint(r.Snapshot.Period)
				val = fmtPtr(r.Value())
			}
			rows = append(rows, []string{r.Feature.Name, r.Key, year, val})
		}
		printTable(out, []string{"Polygon", "Country", "Year", "Test %"}, rows)
		fmt.Fprintf(out, "\n✓ %d polygons, %d with data, %d of %d countries matched\n",
			len(res.Rows), res.WithData(), res.Matched, len(snaps))
		if len(res.Unmatched) > 0 {
			fmt.Fprintf(out, "⚠ No polygon for: %s\n", strings.Join(res.Unmatched, ", "))
		}
		for _, w := range bm.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geoCmd)
	geoCmd.Flags().StringVar(&geoPath, "geo", "", "GeoJSON FeatureCollection of country polygons")
	geoCmd.Flags().StringVar(&geoNameMap, "name-map", "", "YAML name map (default embedded)")
	geoCmd.Flags().StringVar(&geoNameProp, "name-property", "", "feature property holding the country name")
	geoCmd.Flags().StringVar(&geoSex, "sex", "", "category: Total|Male|Female (default from config)")
	geoCmd.Flags().BoolVar(&geoAll, "all", false, "also list polygons without data")
}
