// Package trend selects entities with enough longitudinal coverage to plot.
package trend

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/malstat/internal/dataset"
)

// DefaultMinPeriods is the minimum number of distinct periods per entity.
const DefaultMinPeriods = 3

// Options controls selection.
type Options struct {
	// MinPeriods is the minimum number of distinct periods with a value.
	// Values below 1 fall back to DefaultMinPeriods.
	MinPeriods int
	// Entities, when set, restricts the result to these names.
	Entities []string
}

// Point is one period of a series.
type Point struct {
	Period int
	Value  float64
}

// Series is the aggregate-category history of one entity, sorted by period.
type Series struct {
	Entity string
	Points []Point
}

// Span returns the first and last period.
func (s Series) Span() (int, int) {
	if len(s.Points) == 0 {
		return 0, 0
	}
	return s.Points[0].Period, s.Points[len(s.Points)-1].Period
}

// Change is the last value minus the first.
func (s Series) Change() float64 {
	if len(s.Points) < 2 {
		return 0
	}
	return s.Points[len(s.Points)-1].Value - s.Points[0].Value
}

// Result holds the selected series and the allow-listed names that did not
// qualify.
type Result struct {
	Series     []Series
	MinPeriods int
	Excluded   []string
	// Eligible counts every entity that met MinPeriods before the allow-list.
	Eligible int
}

// Select keeps Total rows with a present value, builds one series per entity
// (one point per period, later row wins on ties) and retains entities having
// at least MinPeriods points. Nothing is interpolated. It fails with
// dataset.ErrInsufficientSample when no entity qualifies.
func Select(obs []dataset.Observation, opt Options) (*Result, error) {
	need := opt.MinPeriods
	if need < 1 {
		need = DefaultMinPeriods
	}
	perEntity := map[string]map[int]float64{}
	for _, o := range obs {
		if o.Sex != dataset.Total || o.Value == nil {
			continue
		}
		m := perEntity[o.Entity]
		if m == nil {
			m = map[int]float64{}
			perEntity[o.Entity] = m
		}
		m[o.Period] = *o.Value
	}
	allow := map[string]bool{}
	for _, e := range opt.Entities {
		allow[e] = true
	}
	res := &Result{MinPeriods: need}
	for entity, byPeriod := range perEntity {
		if len(byPeriod) < need {
			continue
		}
		res.Eligible++
		if len(allow) > 0 && !allow[entity] {
			continue
		}
		s := Series{Entity: entity, Points: make([]Point, 0, len(byPeriod))}
		for p, v := range byPeriod {
			s.Points = append(s.Points, Point{Period: p, Value: v})
		}
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].Period < s.Points[j].Period })
		res.Series = append(res.Series, s)
	}
	sort.Slice(res.Series, func(i, j int) bool { return res.Series[i].Entity < res.Series[j].Entity })
	kept := map[string]bool{}
	for _, s := range res.Series {
		kept[s.Entity] = true
	}
	for _, e := range opt.Entities {
		if !kept[e] {
			res.Excluded = append(res.Excluded, e)
		}
	}
	sort.Strings(res.Excluded)
	if len(res.Series) == 0 {
		return res, fmt.Errorf("no entity has %d or more periods: %w", need, dataset.ErrInsufficientSample)
	}
	return res, nil
}
