// Package snapshot derives the latest observation per entity.
package snapshot

import "github.com/KaramelBytes/malstat/internal/dataset"

// Latest restricts obs to rows matching f and returns, for every entity, the row
// with the maximum period. Ties keep the later row in input order. Entities with
// no matching rows are absent from the result, which is sorted by entity.
func Latest(obs []dataset.Observation, f dataset.Filter) []dataset.Observation {
	if f == nil {
		f = dataset.All
	}
	var matched []dataset.Observation
	for _, o := range obs {
		if f(o) {
			matched = append(matched, o)
		}
	}
	keys, groups := dataset.GroupByEntity(matched)
	out := make([]dataset.Observation, 0, len(keys))
	for _, k := range keys {
		if o, ok := dataset.Latest(groups[k]); ok {
			out = append(out, o)
		}
	}
	return out
}

// Index maps each snapshot by entity name.
func Index(snaps []dataset.Observation) map[string]dataset.Observation {
	m := make(map[string]dataset.Observation, len(snaps))
	for _, s := range snaps {
		m[s.Entity] = s
	}
	return m
}
