package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/malstat/internal/dataset"
)

func fixtureStore() *dataset.Store {
	var obs []dataset.Observation
	rates := []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	for i, r := range rates {
		obs = append(obs, dataset.Observation{
			Entity:       string(rune('A' + i%3)),
			Period:       2010 + i,
			Sex:          dataset.Total,
			Value:        dataset.Float(r),
			GDPPerCapita: dataset.Float(1000 + 100*r),
		})
	}
	obs = append(obs, dataset.Observation{Entity: "A", Period: 2009, Sex: dataset.Male})
	return dataset.NewStore("fixture.csv", obs, "row 12 skipped: empty country")
}

func TestAnalyze(t *testing.T) {
	p := Analyze(fixtureStore(), DefaultOptions())
	if p.Rows != 10 || p.Entities != 3 {
		t.Fatalf("rows/entities = %d/%d", p.Rows, p.Entities)
	}
	if p.FirstPeriod != 2009 || p.LastPeriod != 2018 {
		t.Fatalf("periods = %d-%d", p.FirstPeriod, p.LastPeriod)
	}
	if len(p.Sexes) != 2 || p.Sexes[0].Value != "Total" || p.Sexes[0].Count != 9 {
		t.Fatalf("sexes = %+v", p.Sexes)
	}
	rate := p.Fields[0]
	if rate.NonNull != 9 || rate.Missing != 1 {
		t.Fatalf("rate counts = %d/%d", rate.NonNull, rate.Missing)
	}
	if rate.Min != 8.8 || rate.Max != 50 {
		t.Fatalf("rate min/max = %v/%v", rate.Min, rate.Max)
	}
	if rate.OutliersCount != 1 {
		t.Fatalf("expected one outlier, got %d", rate.OutliersCount)
	}
	if len(p.Corr) == 0 || p.Corr[0].B != "GDP per capita" || math.Abs(p.Corr[0].R-1) > 1e-9 {
		t.Fatalf("corr = %+v", p.Corr)
	}
	if p.Corr[0].N != 9 {
		t.Fatalf("corr n = %d", p.Corr[0].N)
	}
}

func TestAnalyzeSingleValueAndConstantCovariate(t *testing.T) {
	obs := []dataset.Observation{
		{Entity: "A", Period: 2010, Sex: dataset.Total, Value: dataset.Float(12), GDPPerCapita: dataset.Float(900)},
		{Entity: "B", Period: 2010, Sex: dataset.Total, GDPPerCapita: dataset.Float(900)},
		{Entity: "C", Period: 2010, Sex: dataset.Total, GDPPerCapita: dataset.Float(900)},
	}
	p := Analyze(dataset.NewStore("one.csv", obs), DefaultOptions())
	rate := p.Fields[0]
	if rate.NonNull != 1 || rate.Mean != 12 || rate.Std != 0 {
		t.Fatalf("rate = %+v", rate)
	}
	gdp := p.Fields[1]
	if gdp.Mean != 900 || gdp.Std != 0 {
		t.Fatalf("gdp = %+v", gdp)
	}
	if len(p.Corr) != 0 {
		t.Fatalf("expected no correlations, got %+v", p.Corr)
	}
}

func TestProfileMarkdown(t *testing.T) {
	md := Analyze(fixtureStore(), DefaultOptions()).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: fixture.csv",
		"Rows: 10",
		"Countries: 3",
		"Sex: Total(9), Male(1)",
		"[SCHEMA]",
		"- Malaria test %: non-null 9, missing 10.0%",
		"outliers: 1 above |z|>3.5",
		"[CORRELATIONS]",
		"Malaria test % ~ GDP per capita: r=1.000 (n=9)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 || mad != 1 {
		t.Fatalf("median/mad = %v/%v", med, mad)
	}
	med, mad = medianMAD([]float64{10, 1, 3, 2})
	if med != 2 || mad != 1 {
		t.Fatalf("even median/mad = %v/%v", med, mad)
	}
}
