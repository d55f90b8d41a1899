// Package export writes the derived views of a report to an Excel workbook.
package export

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/malstat/internal/report"
	"github.com/xuri/excelize/v2"
)

// Sheet names in workbook order.
const (
	SheetSummary    = "Summary"
	SheetSnapshot   = "Snapshot"
	SheetGender     = "Gender"
	SheetGeo        = "Geo"
	SheetTrend      = "Trend"
	SheetRegression = "Regression"
)

// sheet accumulates rows for one worksheet. A nil cell stays empty.
type sheet struct {
	name   string
	header []string
	rows   [][]interface{}
}

func (s *sheet) add(cells ...interface{}) { s.rows = append(s.rows, cells) }

// floatCell keeps absent values out of the workbook.
func floatCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Workbook writes one sheet per view to path. Views missing from the report
// get a sheet holding only the reason.
func Workbook(r *report.Report, path string) error {
	sheets := []*sheet{
		summarySheet(r), snapshotSheet(r), genderSheet(r),
		geoSheet(r), trendSheet(r), regressionSheet(r),
	}
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("new sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s *sheet) error {
	for i, h := range s.header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.name, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", s.name, err)
		}
	}
	for r, row := range s.rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.name, cell, v); err != nil {
				return fmt.Errorf("%s %s: %w", s.name, cell, err)
			}
		}
	}
	if n := len(s.header); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)
		if err := f.SetColWidth(s.name, "A", last, 18); err != nil {
			return fmt.Errorf("%s width: %w", s.name, err)
		}
	}
	return nil
}

// finite drops infinities and NaN, which have no cell representation.
func finite(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return v
}

func unavailable(s *sheet, r *report.Report, view string) *sheet {
	reason := "not available"
	if p, ok := r.Problem(view); ok {
		reason = p.Err.Error()
	}
	s.header = []string{"Status"}
	s.add(reason)
	return s
}

func summarySheet(r *report.Report) *sheet {
	s := &sheet{name: SheetSummary, header: []string{"Rank", "Country", "Mean %", "Min %", "Max %", "Values", "Rows", "First year", "Last year"}}
	for i, row := range r.Ranked {
		if !row.Valid() {
			s.add(nil, row.Entity, nil, nil, nil, 0, row.Rows)
			continue
		}
		s.add(i+1, row.Entity, row.Mean, row.Min, row.Max, row.Count, row.Rows, row.First, row.Last)
	}
	return s
}

func snapshotSheet(r *report.Report) *sheet {
	s := &sheet{name: SheetSnapshot, header: []string{"Country", "Year", "Sex", "Test %", "GDP per capita", "Population", "Life expectancy"}}
	for _, o := range r.Snapshot {
		s.add(o.Entity, o.Period, string(o.Sex), floatCell(o.Value),
			floatCell(o.GDPPerCapita), floatCell(o.Population), floatCell(o.LifeExpectancy))
	}
	return s
}

func genderSheet(r *report.Report) *sheet {
	s := &sheet{name: SheetGender, header: []string{"Country", "Male %", "Male year", "Female %", "Female year", "Gap"}}
	for _, g := range r.Gender {
		s.add(g.Entity, g.First.Value, g.First.Period, g.Second.Value, g.Second.Period, g.Gap)
	}
	return s
}

func geoSheet(r *report.Report) *sheet {
	s := &sheet{name: SheetGeo}
	if r.Geo == nil {
		return unavailable(s, r, report.ViewGeo)
	}
	s.header = []string{"Polygon", "Country", "Year", "Test %"}
	for _, row := range r.Geo.Rows {
		if row.Snapshot == nil {
			s.add(row.Feature.Name, row.Key)
			continue
		}
		s.add(row.Feature.Name, row.Key, row.Snapshot.Period, floatCell(row.Value()))
	}
	return s
}

func trendSheet(r *report.Report) *sheet {
	s := &sheet{name: SheetTrend}
	if r.Trend == nil {
		return unavailable(s, r, report.ViewTrend)
	}
	s.header = []string{"Country", "Year", "Test %"}
	for _, series := range r.Trend.Series {
		for _, p := range series.Points {
			s.add(series.Entity, p.Period, p.Value)
		}
	}
	return s
}

func regressionSheet(r *report.Report) *sheet {
	s := &sheet{name: SheetRegression}
	fit := r.Regression
	if fit == nil {
		return unavailable(s, r, report.ViewRegression)
	}
	s.header = []string{"Statistic", "Value", "", "Country", r.Covariate.Label(), "Test %", "Fitted"}
	stats := [][2]interface{}{
		{"Covariate", string(r.Covariate)},
		{"N", fit.N},
		{"Slope", finite(fit.Slope)},
		{"Intercept", finite(fit.Intercept)},
		{"R", finite(fit.R)},
		{"R squared", finite(fit.R2)},
		{"Slope SE", finite(fit.SlopeSE)},
		{"t", finite(fit.T)},
		{"p-value", finite(fit.PValue)},
		{"Level", fit.Level},
		{"Slope CI low", finite(fit.SlopeCI[0])},
		{"Slope CI high", finite(fit.SlopeCI[1])},
		{"Intercept CI low", finite(fit.InterceptCI[0])},
		{"Intercept CI high", finite(fit.InterceptCI[1])},
	}
	n := len(stats)
	if len(fit.Points) > n {
		n = len(fit.Points)
	}
	for i := 0; i < n; i++ {
		row := make([]interface{}, 7)
		if i < len(stats) {
			row[0], row[1] = stats[i][0], stats[i][1]
		}
		if i < len(fit.Points) {
			p := fit.Points[i]
			row[3], row[4], row[5], row[6] = p.Entity, p.X, p.Y, fit.Predict(p.X)
		}
		s.add(row...)
	}
	return s
}
