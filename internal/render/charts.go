package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/KaramelBytes/malstat/internal/aggregate"
	"github.com/KaramelBytes/malstat/internal/pivot"
	"github.com/KaramelBytes/malstat/internal/regress"
	"github.com/KaramelBytes/malstat/internal/trend"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	barColor    = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	maleColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	femaleColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	pointColor  = color.RGBA{R: 139, G: 0, B: 0, A: 255}
)

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

func rotateNominal(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// TopEntities draws the n highest mean rates as a bar chart.
func TopEntities(ranked []aggregate.Row, n int, path string, opt Options) error {
	top := aggregate.Top(ranked, n)
	if len(top) == 0 {
		return errNoData
	}
	p := newPlot(fmt.Sprintf("Top %d countries by mean malaria test rate", len(top)), "", "Mean test rate (%)")
	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, r := range top {
		values[i] = r.Mean
		names[i] = r.Entity
	}
	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)
	rotateNominal(p)
	return p.Save(opt.Width, opt.Height, path)
}

// Regression draws the fitted points with the OLS line.
func Regression(fit *regress.Result, xLabel, path string, opt Options) error {
	if fit == nil || len(fit.Points) == 0 {
		return errNoData
	}
	p := newPlot(fmt.Sprintf("Malaria test rate vs %s (R²=%.2f)", xLabel, fit.R2), xLabel, "Test rate (%)")
	xys := make(plotter.XYs, len(fit.Points))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, pt := range fit.Points {
		xys[i].X, xys[i].Y = pt.X, pt.Y
		lo, hi = math.Min(lo, pt.X), math.Max(hi, pt.X)
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(3)

	line := plotter.NewFunction(fit.Predict)
	line.XMin, line.XMax = lo, hi
	line.Color = color.Black
	line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	line.Width = vg.Points(1.5)

	p.Add(plotter.NewGrid(), scatter, line)
	p.Legend.Add("countries", scatter)
	p.Legend.Add(fmt.Sprintf("y = %.3g + %.3g x", fit.Intercept, fit.Slope), line)
	p.Legend.Top = true
	return p.Save(opt.Width, opt.Height, path)
}

// Trends draws one line per series. When there are more than opt.MaxSeries
// the series with the largest absolute change are kept.
func Trends(res *trend.Result, path string, opt Options) error {
	if res == nil || len(res.Series) == 0 {
		return errNoData
	}
	series := append([]trend.Series(nil), res.Series...)
	if opt.MaxSeries > 0 && len(series) > opt.MaxSeries {
		sort.SliceStable(series, func(i, j int) bool {
			return math.Abs(series[i].Change()) > math.Abs(series[j].Change())
		})
		series = series[:opt.MaxSeries]
		sort.Slice(series, func(i, j int) bool { return series[i].Entity < series[j].Entity })
	}
	p := newPlot("Malaria test rate over time", "Year", "Test rate (%)")
	p.Add(plotter.NewGrid())
	for i, s := range series {
		xys := make(plotter.XYs, len(s.Points))
		for k, pt := range s.Points {
			xys[k].X, xys[k].Y = float64(pt.Period), pt.Value
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Entity, err)
		}
		c := plotutil.Color(i)
		line.Color = c
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = c
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
		p.Legend.Add(s.Entity, line, points)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Tick.Marker = yearTicks{}
	return p.Save(opt.Width, opt.Height, path)
}

// yearTicks labels whole years only.
type yearTicks struct{}

func (yearTicks) Ticks(lo, hi float64) []plot.Tick {
	first, last := int(math.Ceil(lo)), int(math.Floor(hi))
	step := 1
	for (last-first)/step > 10 {
		step++
	}
	var ticks []plot.Tick
	for y := first; y <= last; y += step {
		ticks = append(ticks, plot.Tick{Value: float64(y), Label: fmt.Sprint(y)})
	}
	return ticks
}

// GenderGap draws grouped male and female bars per country.
func GenderGap(rows []pivot.Row, path string, opt Options) error {
	if len(rows) == 0 {
		return errNoData
	}
	sorted := append([]pivot.Row(nil), rows...)
	pivot.SortByEntity(sorted)
	male := make(plotter.Values, len(sorted))
	female := make(plotter.Values, len(sorted))
	names := make([]string, len(sorted))
	for i, r := range sorted {
		male[i], female[i], names[i] = r.First.Value, r.Second.Value, r.Entity
	}
	w := vg.Points(8)
	mb, err := plotter.NewBarChart(male, w)
	if err != nil {
		return fmt.Errorf("male bars: %w", err)
	}
	mb.Color = maleColor
	mb.LineStyle.Width = 0
	mb.Offset = -w / 2
	fb, err := plotter.NewBarChart(female, w)
	if err != nil {
		return fmt.Errorf("female bars: %w", err)
	}
	fb.Color = femaleColor
	fb.LineStyle.Width = 0
	fb.Offset = w / 2

	p := newPlot("Malaria test rate by sex (latest year)", "", "Test rate (%)")
	p.Add(plotter.NewGrid(), mb, fb)
	p.Legend.Add("Male", mb)
	p.Legend.Add("Female", fb)
	p.Legend.Top = true
	p.NominalX(names...)
	rotateNominal(p)
	return p.Save(opt.Width, opt.Height, path)
}
