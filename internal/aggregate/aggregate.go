// Package aggregate computes per-entity summary statistics and rankings.
package aggregate

import (
	"sort"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Row summarizes the metric for one entity.
type Row struct {
	Entity string
	Mean   float64
	Min    float64
	Max    float64
	// Count is the number of present values; Rows counts every matching row.
	Count int
	Rows  int
	// First and Last bound the periods of the present values.
	First, Last int
}

// Valid reports whether Mean/Min/Max carry numbers. Rows with Count 0 only
// record that the entity exists.
func (r Row) Valid() bool { return r.Count > 0 }

// Summarize groups rows matching f by entity and ranks them by descending mean,
// breaking ties by entity name. Entities without any present value are kept
// with Count 0 and ranked after every valid row.
func Summarize(obs []dataset.Observation, f dataset.Filter) []Row {
	if f == nil {
		f = dataset.All
	}
	type acc struct {
		vals   []float64
		rows   int
		lo, hi int
	}
	accs := map[string]*acc{}
	var order []string
	for _, o := range obs {
		if !f(o) {
			continue
		}
		a := accs[o.Entity]
		if a == nil {
			a = &acc{}
			accs[o.Entity] = a
			order = append(order, o.Entity)
		}
		a.rows++
		if o.Value == nil {
			continue
		}
		if len(a.vals) == 0 || o.Period < a.lo {
			a.lo = o.Period
		}
		if len(a.vals) == 0 || o.Period > a.hi {
			a.hi = o.Period
		}
		a.vals = append(a.vals, *o.Value)
	}
	out := make([]Row, 0, len(order))
	for _, e := range order {
		a := accs[e]
		r := Row{Entity: e, Count: len(a.vals), Rows: a.rows}
		if r.Count > 0 {
			r.Mean = stat.Mean(a.vals, nil)
			r.Min, r.Max = floats.Min(a.vals), floats.Max(a.vals)
			r.First, r.Last = a.lo, a.hi
		}
		out = append(out, r)
	}
	Rank(out)
	return out
}

// Rank sorts rows in place: valid rows by descending mean, then rows with no
// values; ties by entity ascending.
func Rank(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		if a.Valid() && a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.Entity < b.Entity
	})
}

// Top returns the first n valid rows of a ranked slice. n <= 0 returns every
// valid row.
func Top(ranked []Row, n int) []Row {
	var out []Row
	for _, r := range ranked {
		if !r.Valid() {
			break
		}
		if n > 0 && len(out) == n {
			break
		}
		out = append(out, r)
	}
	return out
}

// Bottom returns the last n valid rows of a ranked slice, lowest mean first.
func Bottom(ranked []Row, n int) []Row {
	valid := Top(ranked, 0)
	var out []Row
	for i := len(valid) - 1; i >= 0; i-- {
		if n > 0 && len(out) == n {
			break
		}
		out = append(out, valid[i])
	}
	return out
}
