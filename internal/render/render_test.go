package render

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/geo"
	"github.com/KaramelBytes/malstat/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basemap = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Kenya"},
     "geometry": {"type": "Polygon", "coordinates": [[[34,4],[41,4],[41,-4],[34,-4],[34,4]]]}},
    {"type": "Feature", "properties": {"name": "Chad"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[14,23],[24,23],[24,8],[14,8],[14,23]]]]}},
    {"type": "Feature", "properties": {"name": "Niger"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,23],[14,23],[14,11],[0,11],[0,23]]]}}
  ]
}`

func buildReport(t *testing.T) *report.Report {
	t.Helper()
	f := dataset.Float
	var obs []dataset.Observation
	add := func(entity string, year int, sex dataset.Sex, v, gdp float64) {
		obs = append(obs, dataset.Observation{Entity: entity, Period: year, Sex: sex, Value: f(v), GDPPerCapita: f(gdp)})
	}
	for i, y := range []int{2014, 2016, 2018} {
		add("Chad", y, dataset.Total, 10+float64(i)*3, 700)
		add("Kenya", y, dataset.Total, 30+float64(i)*4, 1800)
		add("Ghana", y, dataset.Total, 45-float64(i), 2200)
	}
	add("Kenya", 2018, dataset.Male, 40, 1800)
	add("Kenya", 2018, dataset.Female, 36, 1800)
	add("Chad", 2018, dataset.Male, 15, 700)
	add("Chad", 2018, dataset.Female, 17, 700)

	bm, err := geo.ParseGeoJSON([]byte(basemap), "")
	require.NoError(t, err)
	opt := report.DefaultOptions()
	opt.Basemap = bm
	r, err := report.Build(context.Background(), dataset.NewStore("fixture", obs), opt)
	require.NoError(t, err)
	require.Empty(t, r.Problems)
	return r
}

func TestChartsWritesEveryView(t *testing.T) {
	r := buildReport(t)
	dir := filepath.Join(t.TempDir(), "charts")
	charts, failures := Charts(r, DefaultOptions(dir))
	require.Empty(t, failures)
	require.Len(t, charts, 5)
	for _, c := range charts {
		info, err := os.Stat(c.Path)
		require.NoError(t, err, c.Kind)
		assert.Greater(t, info.Size(), int64(0), c.Kind)
		assert.Equal(t, c.Kind+".png", filepath.Base(c.Path))
	}
}

func TestChartsSkipsMissingViews(t *testing.T) {
	r := buildReport(t)
	r.Geo = nil
	r.Regression = nil
	charts, failures := Charts(r, DefaultOptions(t.TempDir()))
	assert.Empty(t, failures)
	assert.Len(t, charts, 3)
}

func TestEmptyViewsReportNoData(t *testing.T) {
	opt := DefaultOptions(t.TempDir())
	err := Choropleth(&geo.Result{}, filepath.Join(opt.Dir, "x.png"), opt)
	assert.True(t, errors.Is(err, dataset.ErrMissingData))
	assert.Error(t, TopEntities(nil, 5, filepath.Join(opt.Dir, "y.png"), opt))
	assert.Error(t, Trends(nil, filepath.Join(opt.Dir, "z.png"), opt))
}

func TestRamp(t *testing.T) {
	rows := []geo.Row{
		{Snapshot: &dataset.Observation{Value: dataset.Float(10)}},
		{Snapshot: &dataset.Observation{Value: dataset.Float(30)}},
		{},
	}
	ramp, ok := NewRamp(rows)
	require.True(t, ok)
	assert.Equal(t, 10.0, ramp.Lo)
	assert.Equal(t, 30.0, ramp.Hi)
	assert.Equal(t, color.Color(noDataColor), ramp.Color(nil))
	assert.Equal(t, color.Color(rampLow), ramp.Color(dataset.Float(10)))
	assert.Equal(t, color.Color(rampHigh), ramp.Color(dataset.Float(30)))
	assert.Equal(t, color.Color(rampHigh), ramp.Color(dataset.Float(99)))

	_, ok = NewRamp([]geo.Row{{}})
	assert.False(t, ok)
}
