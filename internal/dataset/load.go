package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns names the dataset headers. Matching ignores case, spaces, '_' and '-'.
type Columns struct {
	Country        string `mapstructure:"country" yaml:"country"`
	Year           string `mapstructure:"year" yaml:"year"`
	Sex            string `mapstructure:"sex" yaml:"sex"`
	Value          string `mapstructure:"value" yaml:"value"`
	GDPPerCapita   string `mapstructure:"gdp_per_capita" yaml:"gdp_per_capita"`
	Population     string `mapstructure:"population" yaml:"population"`
	LifeExpectancy string `mapstructure:"life_expectancy" yaml:"life_expectancy"`
}

// DefaultColumns matches the cleaned UNICEF export.
func DefaultColumns() Columns {
	return Columns{
		Country:        "Country",
		Year:           "Year",
		Sex:            "Sex",
		Value:          "Malaria_Test_Percent",
		GDPPerCapita:   "GDP_per_capita",
		Population:     "Population",
		LifeExpectancy: "Life_expectancy",
	}
}

// Options controls how a dataset file is read.
type Options struct {
	Columns Columns
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Numeric locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects the XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultOptions returns reasonable defaults for the UNICEF export.
func DefaultOptions() Options {
	return Options{Columns: DefaultColumns()}
}

// Load reads a CSV, TSV or XLSX file into a Store, choosing by extension.
func Load(path string, opt Options) (*Store, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited file into a Store.
func LoadCSV(path string, opt Options) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), delim, opt)
}

// ReadCSV reads delimited rows from r. name labels the resulting Store.
func ReadCSV(r io.Reader, name string, delim rune, opt Options) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	if delim == ';' && opt.DecimalSeparator == 0 {
		opt.DecimalSeparator = ','
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file: %w", name, ErrMissingData)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	b, err := newBuilder(name, header, opt)
	if err != nil {
		return nil, err
	}
	line := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++
		b.add(rec, line)
	}
	return b.store(), nil
}

// LoadXLSX reads one sheet of a workbook into a Store.
func LoadXLSX(path string, opt Options) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets: %w", filepath.Base(path), ErrMissingData)
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.Sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %s is empty: %w", filepath.Base(path), sheet, ErrMissingData)
	}
	b, err := newBuilder(filepath.Base(path), rows[0], opt)
	if err != nil {
		return nil, err
	}
	for i, rec := range rows[1:] {
		b.add(rec, i+2)
	}
	return b.store(), nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

type dupKey struct {
	entity string
	period int
	sex    Sex
}

// builder turns raw string records into observations, collecting warnings for
// rows it has to skip.
type builder struct {
	name     string
	opt      Options
	idx      map[string]int
	obs      []Observation
	warnings []string
	seen     map[dupKey]int
	skipped  int
}

func newBuilder(name string, header []string, opt Options) (*builder, error) {
	cols := opt.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns()
		opt.Columns = cols
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		k := headerKey(strings.TrimPrefix(h, "\uFEFF"))
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	b := &builder{name: name, opt: opt, idx: map[string]int{}, seen: map[dupKey]int{}}
	required := map[string]string{"country": cols.Country, "year": cols.Year, "sex": cols.Sex, "value": cols.Value}
	var missing []string
	for field, col := range required {
		i, ok := pos[headerKey(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		b.idx[field] = i
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%s: required columns not found: %s: %w", name, strings.Join(missing, ", "), ErrMissingData)
	}
	optional := map[string]string{"gdp": cols.GDPPerCapita, "population": cols.Population, "life": cols.LifeExpectancy}
	for field, col := range optional {
		if col == "" {
			continue
		}
		if i, ok := pos[headerKey(col)]; ok {
			b.idx[field] = i
		}
	}
	return b, nil
}

func (b *builder) cell(rec []string, field string) string {
	i, ok := b.idx[field]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (b *builder) num(rec []string, field string) *float64 {
	v, ok := parseNumeric(b.cell(rec, field), b.opt.DecimalSeparator, b.opt.ThousandsSeparator)
	if !ok {
		return nil
	}
	return &v
}

// percent reads the metric, dropping values outside 0..100.
func (b *builder) percent(rec []string, line int) *float64 {
	v := b.num(rec, "value")
	if v != nil && (*v < 0 || *v > 100) {
		b.warnings = append(b.warnings, fmt.Sprintf("row %d: %s %g is not a percentage; treated as missing", line, b.opt.Columns.Value, *v))
		return nil
	}
	return v
}

func (b *builder) add(rec []string, line int) {
	entity := b.cell(rec, "country")
	if entity == "" {
		b.skip(line, "empty country")
		return
	}
	period, ok := parsePeriod(b.cell(rec, "year"))
	if !ok {
		b.skip(line, fmt.Sprintf("invalid year %q", b.cell(rec, "year")))
		return
	}
	sex, err := ParseSex(b.cell(rec, "sex"))
	if err != nil {
		b.skip(line, err.Error())
		return
	}
	o := Observation{
		Entity:         entity,
		Period:         period,
		Sex:            sex,
		Value:          b.percent(rec, line),
		GDPPerCapita:   b.num(rec, "gdp"),
		Population:     b.num(rec, "population"),
		LifeExpectancy: b.num(rec, "life"),
	}
	k := dupKey{entity, period, sex}
	if first, dup := b.seen[k]; dup {
		b.warnings = append(b.warnings, fmt.Sprintf("duplicate %s/%d/%s at rows %d and %d; later row wins", entity, period, sex, first, line))
	} else {
		b.seen[k] = line
	}
	b.obs = append(b.obs, o)
}

func (b *builder) skip(line int, reason string) {
	b.skipped++
	// keep the notes readable on badly broken files
	if b.skipped <= 20 {
		b.warnings = append(b.warnings, fmt.Sprintf("row %d skipped: %s", line, reason))
	}
}

func (b *builder) store() *Store {
	w := b.warnings
	if b.skipped > 20 {
		w = append(w, fmt.Sprintf("%d rows skipped in total", b.skipped))
	}
	s := NewStore(b.name, b.obs, w...)
	s.skipped = b.skipped
	return s
}

