// Package pivot reshapes per-category rows into per-entity comparison rows.
package pivot

import (
	"math"
	"sort"

	"github.com/KaramelBytes/malstat/internal/dataset"
)

// Side is one category's latest value for an entity.
type Side struct {
	Sex    dataset.Sex
	Period int
	Value  float64
}

// Row compares two categories for one entity. Gap = First.Value - Second.Value.
type Row struct {
	Entity string
	First  Side
	Second Side
	Gap    float64
}

// GenderGap compares Male against Female.
func GenderGap(obs []dataset.Observation) []Row {
	return Compare(obs, dataset.Male, dataset.Female)
}

// Compare takes each entity's latest row per category (ties keep the later row)
// and emits a Row only when both categories have a latest row with a present
// value. Partial entities are left out. The result is sorted by entity.
func Compare(obs []dataset.Observation, first, second dataset.Sex) []Row {
	byCat := map[dataset.Sex]map[string][]dataset.Observation{
		first:  {},
		second: {},
	}
	for _, o := range obs {
		m, ok := byCat[o.Sex]
		if !ok {
			continue
		}
		m[o.Entity] = append(m[o.Entity], o)
	}
	var out []Row
	for entity, rows := range byCat[first] {
		a, _ := dataset.Latest(rows)
		b, ok := dataset.Latest(byCat[second][entity])
		if !ok || a.Value == nil || b.Value == nil {
			continue
		}
		out = append(out, Row{
			Entity: entity,
			First:  Side{Sex: first, Period: a.Period, Value: *a.Value},
			Second: Side{Sex: second, Period: b.Period, Value: *b.Value},
			Gap:    *a.Value - *b.Value,
		})
	}
	SortByEntity(out)
	return out
}

// SortByEntity orders rows by entity name ascending.
func SortByEntity(rows []Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Entity < rows[j].Entity })
}

// SortByAbsGap orders rows by |gap| descending, ties by entity ascending.
func SortByAbsGap(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := math.Abs(rows[i].Gap), math.Abs(rows[j].Gap)
		if ai == aj {
			return rows[i].Entity < rows[j].Entity
		}
		return ai > aj
	})
}

// Direction counts rows where the first category is higher, lower, or equal.
func Direction(rows []Row) (higher, lower, equal int) {
	for _, r := range rows {
		switch {
		case r.Gap > 0:
			higher++
		case r.Gap < 0:
			lower++
		default:
			equal++
		}
	}
	return
}
