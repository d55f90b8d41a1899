// Package render draws the report views as PNG charts with gonum/plot.
package render

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/report"
	"github.com/KaramelBytes/malstat/internal/utils"
	"gonum.org/v1/plot/vg"
)

// Chart kinds, also used as file stems.
const (
	KindTopEntities = "top_entities"
	KindRegression  = "regression"
	KindTrends      = "trends"
	KindGenderGap   = "gender_gap"
	KindChoropleth  = "choropleth"
)

// errNoData is returned for a view with nothing to draw.
var errNoData = fmt.Errorf("nothing to plot: %w", dataset.ErrMissingData)

// Options controls chart output.
type Options struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
	TopN   int
	// MaxSeries caps the number of trend lines; the largest changes are kept.
	MaxSeries int
}

// DefaultOptions writes 8x5 inch charts into dir.
func DefaultOptions(dir string) Options {
	return Options{Dir: dir, Width: 8 * vg.Inch, Height: 5 * vg.Inch, TopN: 15, MaxSeries: 10}
}

// Chart is a written chart file.
type Chart struct {
	Kind string
	Path string
}

// Failure is a chart that could not be written.
type Failure struct {
	Kind string
	Err  error
}

func (f Failure) Error() string { return fmt.Sprintf("%s chart: %v", f.Kind, f.Err) }

// Charts writes one chart per available view. Views missing from the report
// are skipped; a chart that fails does not stop the others.
func Charts(r *report.Report, opt Options) ([]Chart, []Failure) {
	if opt.Width <= 0 || opt.Height <= 0 {
		d := DefaultOptions(opt.Dir)
		opt.Width, opt.Height = d.Width, d.Height
	}
	if err := utils.EnsureDir(opt.Dir); err != nil {
		return nil, []Failure{{Kind: "all", Err: err}}
	}
	type job struct {
		kind string
		ok   bool
		draw func(path string) error
	}
	label := r.Covariate.Label()
	jobs := []job{
		{KindTopEntities, len(r.Ranked) > 0, func(p string) error { return TopEntities(r.Ranked, opt.TopN, p, opt) }},
		{KindRegression, r.Regression != nil, func(p string) error { return Regression(r.Regression, label, p, opt) }},
		{KindTrends, r.Trend != nil, func(p string) error { return Trends(r.Trend, p, opt) }},
		{KindGenderGap, len(r.Gender) > 0, func(p string) error { return GenderGap(r.Gender, p, opt) }},
		{KindChoropleth, r.Geo != nil, func(p string) error { return Choropleth(r.Geo, p, opt) }},
	}
	var charts []Chart
	var failures []Failure
	for _, j := range jobs {
		if !j.ok {
			continue
		}
		path := filepath.Join(opt.Dir, j.kind+".png")
		if err := j.draw(path); err != nil {
			failures = append(failures, Failure{Kind: j.kind, Err: err})
			continue
		}
		charts = append(charts, Chart{Kind: j.kind, Path: path})
	}
	return charts, failures
}
