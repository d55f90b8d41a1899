package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options controls profiling.
type Options struct {
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// Correlations computes Pearson r between the metric and each covariate.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{Outliers: true, OutlierThreshold: 3.5, Correlations: true}
}

// Profile describes a loaded dataset.
type Profile struct {
	Name        string
	Rows        int
	Skipped     int
	Entities    int
	FirstPeriod int
	LastPeriod  int
	Sexes       []CategoryCount
	Fields      []FieldSummary
	Corr        []PairCorr
	Warnings    []string
}

// FieldSummary captures statistics for one numeric field.
type FieldSummary struct {
	Name    string
	NonNull int
	Missing int
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
}

type CategoryCount struct {
	Value string
	Count int
}

// PairCorr is a correlation between two fields over rows where both are present.
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

type field struct {
	name string
	get  func(dataset.Observation) *float64
}

func fields() []field {
	out := []field{{name: "Malaria test %", get: func(o dataset.Observation) *float64 { return o.Value }}}
	for _, c := range dataset.Covariates {
		c := c
		out = append(out, field{name: c.Label(), get: c.Of})
	}
	return out
}

// Analyze profiles every observation of s.
func Analyze(s *dataset.Store, opt Options) *Profile {
	obs := s.Observations()
	p := &Profile{
		Name:     s.Name(),
		Rows:     s.Len(),
		Skipped:  s.Skipped(),
		Entities: len(s.Entities()),
		Warnings: s.Warnings(),
	}
	p.FirstPeriod, p.LastPeriod = s.Periods()

	cats := map[string]int{}
	for _, o := range obs {
		cats[string(o.Sex)]++
	}
	for k, v := range cats {
		p.Sexes = append(p.Sexes, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(p.Sexes, func(i, j int) bool {
		if p.Sexes[i].Count == p.Sexes[j].Count {
			return p.Sexes[i].Value < p.Sexes[j].Value
		}
		return p.Sexes[i].Count > p.Sexes[j].Count
	})

	fs := fields()
	for _, f := range fs {
		p.Fields = append(p.Fields, summarize(obs, f, opt))
	}
	if opt.Correlations {
		for _, f := range fs[1:] {
			if pc, ok := pearson(obs, fs[0], f); ok {
				p.Corr = append(p.Corr, pc)
			}
		}
		sort.SliceStable(p.Corr, func(i, j int) bool { return math.Abs(p.Corr[i].R) > math.Abs(p.Corr[j].R) })
	}
	return p
}

func summarize(obs []dataset.Observation, f field, opt Options) FieldSummary {
	s := FieldSummary{Name: f.name}
	var vals []float64
	for _, o := range obs {
		if v := f.get(o); v != nil {
			vals = append(vals, *v)
		} else {
			s.Missing++
		}
	}
	s.NonNull = len(vals)
	if len(vals) == 0 {
		return s
	}
	s.Min, s.Max = floats.Min(vals), floats.Max(vals)
	if len(vals) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(vals, nil)
	} else {
		s.Mean = vals[0]
	}
	if opt.Outliers && len(vals) >= 8 {
		median, mad := medianMAD(vals)
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		s.OutlierThreshold = thr
		if mad > 0 {
			for _, v := range vals {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					s.OutliersCount++
				}
				if az > s.OutliersMaxAbsZ {
					s.OutliersMaxAbsZ = az
				}
			}
		}
	}
	return s
}

// pearson computes r over pairwise complete rows.
func pearson(obs []dataset.Observation, a, b field) (PairCorr, bool) {
	var xs, ys []float64
	for _, o := range obs {
		x, y := a.get(o), b.get(o)
		if x == nil || y == nil {
			continue
		}
		xs = append(xs, *x)
		ys = append(ys, *y)
	}
	if len(xs) < 3 {
		return PairCorr{}, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return PairCorr{}, false
	}
	r = math.Max(-1, math.Min(1, r))
	return PairCorr{A: a.name, B: b.name, R: r, N: len(xs)}, true
}

// Markdown renders the profile as the dataset section of a report.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	if p.Skipped > 0 {
		b.WriteString(fmt.Sprintf("Rows: %d (skipped %d)\n", p.Rows, p.Skipped))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	}
	b.WriteString(fmt.Sprintf("Countries: %d\n", p.Entities))
	if p.Rows > 0 {
		b.WriteString(fmt.Sprintf("Years: %d–%d\n", p.FirstPeriod, p.LastPeriod))
	}
	if len(p.Sexes) > 0 {
		b.WriteString("Sex: ")
		for i, c := range p.Sexes {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", c.Value, c.Count))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n[SCHEMA]\n")
	for _, f := range p.Fields {
		total := f.NonNull + f.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(f.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: non-null %d, missing %.1f%%", f.Name, f.NonNull, missPct))
		if f.NonNull > 0 {
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", f.Min, f.Max, f.Mean, f.Std))
		}
		if f.OutlierThreshold > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", f.OutliersCount, f.OutlierThreshold))
		}
		b.WriteString("\n")
	}
	if len(p.Corr) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, c := range p.Corr {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", c.A, c.B, c.R, c.N))
		}
	}
	return b.String()
}

// medianMAD computes the median and the median absolute deviation of vals.
// Even-length inputs use the lower middle value.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.Empirical, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = stat.Quantile(0.5, stat.Empirical, dev, nil)
	return
}
