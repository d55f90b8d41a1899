package dataset

import "sort"

// Store holds the raw dataset. It is never mutated after construction; every
// accessor hands out copies.
type Store struct {
	name     string
	obs      []Observation
	warnings []string
	skipped  int
}

// NewStore wraps observations in input order.
func NewStore(name string, obs []Observation, warnings ...string) *Store {
	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return &Store{name: name, obs: cp, warnings: append([]string(nil), warnings...)}
}

// Name is the source file base name.
func (s *Store) Name() string { return s.name }

// Len is the number of loaded observations.
func (s *Store) Len() int { return len(s.obs) }

// Warnings lists data-quality notes gathered while loading.
func (s *Store) Warnings() []string { return append([]string(nil), s.warnings...) }

// Skipped is the number of source rows rejected while loading.
func (s *Store) Skipped() int { return s.skipped }

// Observations returns all rows in input order.
func (s *Store) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

// Select returns the rows matching f in input order. A nil filter matches all.
func (s *Store) Select(f Filter) []Observation {
	if f == nil {
		return s.Observations()
	}
	var out []Observation
	for _, o := range s.obs {
		if f(o) {
			out = append(out, o)
		}
	}
	return out
}

// Entities returns the distinct entity names, sorted.
func (s *Store) Entities() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, o := range s.obs {
		if _, ok := seen[o.Entity]; ok {
			continue
		}
		seen[o.Entity] = struct{}{}
		out = append(out, o.Entity)
	}
	sort.Strings(out)
	return out
}

// Periods returns the smallest and largest period, or 0,0 for an empty store.
func (s *Store) Periods() (lo, hi int) {
	for i, o := range s.obs {
		if i == 0 || o.Period < lo {
			lo = o.Period
		}
		if i == 0 || o.Period > hi {
			hi = o.Period
		}
	}
	return lo, hi
}

// GroupByEntity partitions rows by entity, preserving input order inside each
// group. Keys are returned sorted.
func GroupByEntity(obs []Observation) (keys []string, groups map[string][]Observation) {
	groups = make(map[string][]Observation)
	for _, o := range obs {
		if _, ok := groups[o.Entity]; !ok {
			keys = append(keys, o.Entity)
		}
		groups[o.Entity] = append(groups[o.Entity], o)
	}
	sort.Strings(keys)
	return keys, groups
}

// Latest returns the max-period row of rows. Rows sharing the max period resolve
// to the last one in ascending-period stable order, i.e. the later row in input
// order. ok is false for an empty slice.
func Latest(rows []Observation) (o Observation, ok bool) {
	for i, r := range rows {
		if i == 0 || r.Period >= o.Period {
			o = r
			ok = true
		}
	}
	return o, ok
}
