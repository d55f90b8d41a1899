package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/KaramelBytes/malstat/internal/geo"
	"github.com/paulmach/orb"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	noDataColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	rampLow     = color.RGBA{R: 255, G: 237, B: 160, A: 255}
	rampHigh    = color.RGBA{R: 189, G: 0, B: 38, A: 255}
	borderColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

// Ramp maps values in [lo, hi] onto a linear yellow to red scale.
type Ramp struct {
	Lo, Hi float64
}

// NewRamp spans the values present in the joined rows.
func NewRamp(rows []geo.Row) (Ramp, bool) {
	r := Ramp{Lo: math.Inf(1), Hi: math.Inf(-1)}
	for _, row := range rows {
		if v := row.Value(); v != nil {
			r.Lo, r.Hi = math.Min(r.Lo, *v), math.Max(r.Hi, *v)
		}
	}
	return r, !math.IsInf(r.Lo, 1)
}

// Color returns the fill for v; nil is drawn grey.
func (r Ramp) Color(v *float64) color.Color {
	if v == nil {
		return noDataColor
	}
	t := 0.0
	if r.Hi > r.Lo {
		t = (*v - r.Lo) / (r.Hi - r.Lo)
	}
	t = math.Max(0, math.Min(1, t))
	mix := func(a, b uint8) uint8 { return uint8(math.Round(float64(a) + t*(float64(b)-float64(a)))) }
	return color.RGBA{R: mix(rampLow.R, rampHigh.R), G: mix(rampLow.G, rampHigh.G), B: mix(rampLow.B, rampHigh.B), A: 255}
}

func ringXYs(r orb.Ring) plotter.XYs {
	xys := make(plotter.XYs, len(r))
	for i, p := range r {
		xys[i].X, xys[i].Y = p[0], p[1]
	}
	return xys
}

// Choropleth fills every polygon of the join by its snapshot value.
func Choropleth(res *geo.Result, path string, opt Options) error {
	if res == nil || len(res.Rows) == 0 {
		return errNoData
	}
	ramp, ok := NewRamp(res.Rows)
	p := newPlot("Latest malaria test rate by country", "", "")
	p.HideAxes()
	for _, row := range res.Rows {
		fill := ramp.Color(row.Value())
		for _, poly := range row.Feature.Polygons() {
			rings := make([]plotter.XYer, 0, len(poly))
			for _, ring := range poly {
				if len(ring) < 3 {
					continue
				}
				rings = append(rings, ringXYs(ring))
			}
			if len(rings) == 0 {
				continue
			}
			pg, err := plotter.NewPolygon(rings...)
			if err != nil {
				return fmt.Errorf("polygon %s: %w", row.Feature.Name, err)
			}
			pg.Color = fill
			pg.LineStyle.Color = borderColor
			pg.LineStyle.Width = vg.Points(0.3)
			p.Add(pg)
		}
	}
	type entry struct {
		label string
		fill  color.Color
	}
	var legend []entry
	if ok {
		legend = append(legend,
			entry{fmt.Sprintf("%.1f%%", ramp.Hi), ramp.Color(&ramp.Hi)},
			entry{fmt.Sprintf("%.1f%%", ramp.Lo), ramp.Color(&ramp.Lo)})
	}
	legend = append(legend, entry{"no data", noDataColor})
	for _, e := range legend {
		sw, err := swatch(e.fill)
		if err != nil {
			return err
		}
		p.Legend.Add(e.label, sw)
	}
	p.Legend.Top = true
	return p.Save(opt.Width, opt.Height, path)
}

func swatch(c color.Color) (*plotter.Polygon, error) {
	sw, err := plotter.NewPolygon(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, fmt.Errorf("legend swatch: %w", err)
	}
	sw.Color = c
	return sw, nil
}
