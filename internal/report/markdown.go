package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/malstat/internal/aggregate"
)

// Markdown renders the report as bracketed sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Malaria testing report\n\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("Generated: %s\n", r.Generated.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("Category: %s\n\n", r.Sex))

	if r.Profile != nil {
		b.WriteString(r.Profile.Markdown())
		b.WriteString("\n")
	}

	b.WriteString("[TOP ENTITIES]\n")
	top := aggregate.Top(r.Ranked, r.TopN)
	if len(top) == 0 {
		b.WriteString("(no country has a value)\n")
	} else {
		b.WriteString("| # | Country | Mean % | Min % | Max % | Values | Years |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for i, row := range top {
			b.WriteString(fmt.Sprintf("| %d | %s | %.1f | %.1f | %.1f | %d/%d | %d–%d |\n",
				i+1, row.Entity, row.Mean, row.Min, row.Max, row.Count, row.Rows, row.First, row.Last))
		}
	}
	if n := countInvalid(r.Ranked); n > 0 {
		b.WriteString(fmt.Sprintf("%d countries have rows but no value.\n", n))
	}

	b.WriteString("\n[LATEST SNAPSHOT]\n")
	if len(r.Snapshot) == 0 {
		b.WriteString("(empty)\n")
	} else {
		b.WriteString(fmt.Sprintf("| Country | Year | Test %% | %s |\n", r.Covariate.Label()))
		b.WriteString("|---|---|---|---|\n")
		for _, o := range r.Snapshot {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n", o.Entity, o.Period, fmtValue(o.Value), fmtValue(r.Covariate.Of(o))))
		}
	}

	b.WriteString("\n[GENDER GAP]\n")
	if len(r.Gender) == 0 {
		b.WriteString("(no country reports both sexes)\n")
	} else {
		b.WriteString("| Country | Male % | Female % | Gap |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, g := range r.Gender {
			b.WriteString(fmt.Sprintf("| %s | %.1f (%d) | %.1f (%d) | %+.1f |\n",
				g.Entity, g.First.Value, g.First.Period, g.Second.Value, g.Second.Period, g.Gap))
		}
	}

	b.WriteString("\n[GEO COVERAGE]\n")
	if r.Geo == nil {
		b.WriteString("(skipped)\n")
	} else {
		b.WriteString(fmt.Sprintf("Polygons: %d\n", len(r.Geo.Rows)))
		b.WriteString(fmt.Sprintf("Polygons with data: %d\n", r.Geo.WithData()))
		b.WriteString(fmt.Sprintf("Countries matched: %d of %d\n", r.Geo.Matched, len(r.Snapshot)))
		if len(r.Geo.Unmatched) > 0 {
			b.WriteString(fmt.Sprintf("Unmatched: %s\n", strings.Join(r.Geo.Unmatched, ", ")))
		}
		if len(r.Dangling) > 0 {
			b.WriteString(fmt.Sprintf("Name map entries without geometry: %s\n", strings.Join(r.Dangling, ", ")))
		}
	}

	b.WriteString("\n[TRENDS]\n")
	if r.Trend == nil {
		b.WriteString("(not available)\n")
	} else {
		b.WriteString(fmt.Sprintf("Countries with %d+ years: %d\n", r.Trend.MinPeriods, len(r.Trend.Series)))
		for _, s := range r.Trend.Series {
			first, last := s.Span()
			b.WriteString(fmt.Sprintf("- %s: %d points, %d–%d, change %+.1f\n", s.Entity, len(s.Points), first, last, s.Change()))
		}
	}

	b.WriteString("\n[REGRESSION]\n")
	if fit := r.Regression; fit == nil {
		b.WriteString("(not available)\n")
	} else {
		b.WriteString(fmt.Sprintf("Model: Test %% = %.4g + %.4g × %s\n", fit.Intercept, fit.Slope, r.Covariate.Label()))
		b.WriteString(fmt.Sprintf("n=%d, r=%.3f, R²=%.3f, t=%.3f, p=%.4g\n", fit.N, fit.R, fit.R2, fit.T, fit.PValue))
		b.WriteString(fmt.Sprintf("Slope %.0f%% CI: [%.4g, %.4g]\n", fit.Level*100, fit.SlopeCI[0], fit.SlopeCI[1]))
		b.WriteString(fmt.Sprintf("Intercept %.0f%% CI: [%.4g, %.4g]\n", fit.Level*100, fit.InterceptCI[0], fit.InterceptCI[1]))
	}

	if len(r.Commentary) > 0 {
		b.WriteString("\n[COMMENTARY]\n")
		for _, c := range r.Commentary {
			b.WriteString("- " + c + "\n")
		}
	}

	if len(r.Problems) > 0 || len(r.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, p := range r.Problems {
			b.WriteString(fmt.Sprintf("- %s view unavailable: %v\n", p.View, p.Err))
		}
		for _, n := range r.Notes {
			b.WriteString("- " + n + "\n")
		}
	}
	return b.String()
}

func countInvalid(rows []aggregate.Row) int {
	n := 0
	for _, r := range rows {
		if !r.Valid() {
			n++
		}
	}
	return n
}

func fmtValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", *v)
}
