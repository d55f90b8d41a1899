// Package geo joins entity snapshots onto named basemap polygons.
package geo

import (
	"sort"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/snapshot"
)

// Row pairs one polygon with its snapshot. Snapshot is nil when the polygon
// has no data, which is distinct from a zero metric.
type Row struct {
	Feature  Feature
	Key      string
	Snapshot *dataset.Observation
}

// Value returns the joined metric, nil when there is no snapshot or the
// snapshot carries no value.
func (r Row) Value() *float64 {
	if r.Snapshot == nil {
		return nil
	}
	return r.Snapshot.Value
}

// Result is a left outer join with the geometry as the dominant side.
type Result struct {
	Rows []Row
	// Matched counts distinct snapshot entities that found a polygon.
	Matched int
	// Unmatched lists snapshot entities with no polygon, sorted.
	Unmatched []string
}

// Join normalizes every polygon name through nm and attaches the snapshot of
// the same entity. Every polygon appears exactly once in the result, in input
// order; snapshots without a polygon are dropped and listed in Unmatched.
func Join(features []Feature, snaps []dataset.Observation, nm *NameMap) *Result {
	idx := snapshot.Index(snaps)
	res := &Result{Rows: make([]Row, 0, len(features))}
	hit := map[string]struct{}{}
	for _, f := range features {
		key := nm.Normalize(f.Name)
		row := Row{Feature: f, Key: key}
		if s, ok := idx[key]; ok {
			row.Snapshot = &s
			hit[key] = struct{}{}
		}
		res.Rows = append(res.Rows, row)
	}
	res.Matched = len(hit)
	for _, s := range snaps {
		if _, ok := hit[s.Entity]; !ok {
			res.Unmatched = append(res.Unmatched, s.Entity)
		}
	}
	sort.Strings(res.Unmatched)
	return res
}

// WithData counts rows that carry a metric value.
func (r *Result) WithData() int {
	n := 0
	for _, row := range r.Rows {
		if row.Value() != nil {
			n++
		}
	}
	return n
}
