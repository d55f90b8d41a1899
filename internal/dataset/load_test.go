package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Country,Year,Sex,Malaria_Test_Percent,GDP_per_capita,Population,Life_expectancy
Nigeria,2016,Total,16.4%,2176,185960289,53.9
Nigeria,2018,Total,14.2,2028,195874740,54.3
Nigeria,2018,Male,15.0,,,
Nigeria,2018,Female,13.1,,,
Mali,2015,Total,,750,17438778,57.7
,2015,Total,3.0,,,
Mali,20x5,Total,3.0,,,
Mali,2018,Unknown,3.0,,,
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadCSV(t *testing.T) {
	s, err := Load(writeFile(t, "malaria.csv", sampleCSV), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "malaria.csv", s.Name())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 3, s.Skipped())
	assert.Equal(t, []string{"Mali", "Nigeria"}, s.Entities())

	obs := s.Observations()
	require.NotNil(t, obs[0].Value)
	assert.InDelta(t, 16.4, *obs[0].Value, 1e-9)
	require.NotNil(t, obs[0].Population)
	assert.InDelta(t, 185960289, *obs[0].Population, 1e-6)
	assert.Equal(t, Male, obs[2].Sex)
	assert.Nil(t, obs[2].GDPPerCapita, "empty covariate must stay absent")
	assert.Nil(t, obs[4].Value, "empty metric must stay absent, not zero")

	lo, hi := s.Periods()
	assert.Equal(t, 2015, lo)
	assert.Equal(t, 2018, hi)

	w := strings.Join(s.Warnings(), "\n")
	assert.Contains(t, w, "row 7 skipped: empty country")
	assert.Contains(t, w, `invalid year "20x5"`)
	assert.Contains(t, w, `unknown sex "Unknown"`)
}

func TestLoadCSVHeaderMatchingAndDelimiter(t *testing.T) {
	body := "country;YEAR;sex;malaria test percent\nGhana;2019;Total;31,5\n"
	opt := DefaultOptions()
	opt.Delimiter = ';'
	s, err := Load(writeFile(t, "gh.csv", body), opt)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.InDelta(t, 31.5, *s.Observations()[0].Value, 1e-9)
}

func TestLoadCSVSemicolonUsesDecimalComma(t *testing.T) {
	body := "Country;Year;Sex;Malaria_Test_Percent;Population\nChad;2017;Total;12,345;15.477.751\n"
	s, err := ReadCSV(strings.NewReader(body), "td.csv", ';', DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	o := s.Observations()[0]
	require.NotNil(t, o.Value)
	assert.InDelta(t, 12.345, *o.Value, 1e-9)
	require.NotNil(t, o.Population)
	assert.InDelta(t, 15477751, *o.Population, 1e-6)
}

func TestLoadCSVPercentOutOfRange(t *testing.T) {
	body := "Country,Year,Sex,Malaria_Test_Percent,GDP_per_capita\nChad,2017,Total,12345,700\nChad,2018,Total,-2,710\n"
	s, err := Load(writeFile(t, "chad.csv", body), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	for _, o := range s.Observations() {
		assert.Nil(t, o.Value)
		assert.NotNil(t, o.GDPPerCapita)
	}
	w := strings.Join(s.Warnings(), "\n")
	assert.Contains(t, w, "row 2: Malaria_Test_Percent 12345 is not a percentage")
	assert.Contains(t, w, "row 3: Malaria_Test_Percent -2 is not a percentage")
}

func TestLoadCSVMissingColumns(t *testing.T) {
	_, err := Load(writeFile(t, "bad.csv", "Country,Year\nA,2010\n"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingData))
	assert.Contains(t, err.Error(), "Malaria_Test_Percent")
}

func TestLoadCSVDuplicateWarning(t *testing.T) {
	body := "Country,Year,Sex,Malaria_Test_Percent\nA,2010,Total,1\nA,2010,Total,2\n"
	s, err := Load(writeFile(t, "dup.csv", body), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	require.Len(t, s.Warnings(), 1)
	assert.Contains(t, s.Warnings()[0], "duplicate A/2010/Total at rows 2 and 3")
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Country", "Year", "Sex", "Malaria_Test_Percent"},
		{"Kenya", 2014, "Total", 22.5},
		{"Kenya", 2020, "Female", 30},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Data", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "kenya.xlsx")
	require.NoError(t, f.SaveAs(path))

	opt := DefaultOptions()
	opt.Sheet = "data"
	s, err := Load(path, opt)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 2020, s.Observations()[1].Period)
	assert.Equal(t, Female, s.Observations()[1].Sex)

	opt.Sheet = "Missing"
	_, err = Load(path, opt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets")
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{"12,5", 12.5, true},
		{"0,125", 0.125, true},
		{"1,234", 1.234, true},
		{"1,234,567", 1234567, true},
		{"1.234,5", 1234.5, true},
		{"45%", 45, true},
		{"NA", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, 0, 0)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, c.in)
		}
	}
}
