package aggregate

import (
	"testing"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(entity string, period int, v *float64) dataset.Observation {
	return dataset.Observation{Entity: entity, Period: period, Sex: dataset.Total, Value: v}
}

func TestSummarizeScenario(t *testing.T) {
	in := []dataset.Observation{
		obs("A", 2010, dataset.Float(10)),
		obs("A", 2012, dataset.Float(20)),
		obs("B", 2011, dataset.Float(5)),
	}
	got := Summarize(in, dataset.BySex(dataset.Total))
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Entity)
	assert.Equal(t, 15.0, got[0].Mean)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 10.0, got[0].Min)
	assert.Equal(t, 20.0, got[0].Max)
	assert.Equal(t, 2010, got[0].First)
	assert.Equal(t, 2012, got[0].Last)
	assert.Equal(t, "B", got[1].Entity)
	assert.Equal(t, 5.0, got[1].Mean)
	assert.Equal(t, 1, got[1].Count)
}

func TestSummarizeMissingValues(t *testing.T) {
	in := []dataset.Observation{
		obs("A", 2010, nil),
		obs("A", 2011, dataset.Float(4)),
		obs("Z", 2011, nil),
	}
	got := Summarize(in, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Entity)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, 2, got[0].Rows)
	assert.Equal(t, 4.0, got[0].Mean, "absent values are ignored, not counted as zero")

	assert.Equal(t, "Z", got[1].Entity)
	assert.False(t, got[1].Valid())
	for _, r := range got {
		assert.LessOrEqual(t, r.Count, r.Rows)
	}
	assert.Len(t, Top(got, 10), 1)
}

func TestRankTiesByName(t *testing.T) {
	rows := []Row{
		{Entity: "C", Mean: 5, Count: 1},
		{Entity: "B", Mean: 7, Count: 1},
		{Entity: "A", Mean: 5, Count: 1},
		{Entity: "D"},
	}
	Rank(rows)
	var names []string
	for _, r := range rows {
		names = append(names, r.Entity)
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, names)
	assert.Equal(t, []string{"B", "A"}, entities(Top(rows, 2)))
	assert.Equal(t, []string{"C", "A"}, entities(Bottom(rows, 2)))
}

func entities(rows []Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Entity)
	}
	return out
}
