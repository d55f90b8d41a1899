package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/malstat/internal/aggregate"
	"github.com/KaramelBytes/malstat/internal/pivot"
)

// Commentary turns the built views into short narrative sentences. Views that
// are missing contribute nothing.
func Commentary(r *Report) []string {
	var out []string
	if top := aggregate.Top(r.Ranked, 0); len(top) > 0 {
		hi, lo := top[0], top[len(top)-1]
		if len(top) == 1 {
			out = append(out, fmt.Sprintf("Only %s reports a %s testing rate (mean %.1f%%).", hi.Entity, r.Sex, hi.Mean))
		} else {
			out = append(out, fmt.Sprintf("%s has the highest mean %s testing rate (%.1f%%) and %s the lowest (%.1f%%) across %d countries.",
				hi.Entity, r.Sex, hi.Mean, lo.Entity, lo.Mean, len(top)))
		}
	}
	if len(r.Gender) > 0 {
		higher, lower, equal := pivot.Direction(r.Gender)
		s := fmt.Sprintf("Of %d countries reporting both sexes, boys are tested more often in %d and girls in %d",
			len(r.Gender), higher, lower)
		if equal > 0 {
			s += fmt.Sprintf(", with %d level", equal)
		}
		widest := r.Gender[0]
		for _, g := range r.Gender[1:] {
			if math.Abs(g.Gap) > math.Abs(widest.Gap) {
				widest = g
			}
		}
		s += fmt.Sprintf("; the widest gap is %s (%+.1f points).", widest.Entity, widest.Gap)
		out = append(out, s)
	}
	if r.Geo != nil {
		out = append(out, fmt.Sprintf("%d of %d map polygons carry data; %d countries could not be placed on the map.",
			r.Geo.WithData(), len(r.Geo.Rows), len(r.Geo.Unmatched)))
	}
	if r.Trend != nil && len(r.Trend.Series) > 0 {
		best := r.Trend.Series[0]
		for _, s := range r.Trend.Series[1:] {
			if math.Abs(s.Change()) > math.Abs(best.Change()) {
				best = s
			}
		}
		first, last := best.Span()
		out = append(out, fmt.Sprintf("%d countries have at least %d years of data; %s changed most (%+.1f points, %d to %d).",
			len(r.Trend.Series), r.Trend.MinPeriods, best.Entity, best.Change(), first, last))
	}
	if fit := r.Regression; fit != nil {
		dir := "positive"
		if fit.Slope < 0 {
			dir = "negative"
		}
		sig := "statistically significant"
		if !fit.Significant() {
			sig = "not statistically significant"
		}
		out = append(out, fmt.Sprintf("Testing rates show a %s %s association with %s (r=%.2f, R²=%.2f, n=%d), %s at the %.0f%% level.",
			fit.Strength(), dir, lowerFirst(r.Covariate.Label()), fit.R, fit.R2, fit.N, sig, fit.Level*100))
	}
	return out
}

// lowerFirst lowercases the first letter unless the label starts with an acronym.
func lowerFirst(s string) string {
	if len(s) < 2 || strings.ToUpper(s[:2]) == s[:2] {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
