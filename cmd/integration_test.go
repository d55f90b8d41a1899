package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/malstat/internal/manifest"
	"github.com/KaramelBytes/malstat/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const sampleCSV = `Country,Year,Sex,Malaria_Test_Percent,GDP_per_capita,Population,Life_expectancy
Chad,2015,Total,10,700,14000000,53
Chad,2016,Total,12,720,14500000,53.5
Chad,2017,Total,14,740,15000000,54
Chad,2017,Male,15,740,15000000,54
Chad,2017,Female,13,740,15000000,54
Kenya,2015,Total,30,1800,47000000,66
Kenya,2016,Total,35,1850,48000000,66.3
Kenya,2017,Total,40,1900,49000000,66.7
Kenya,2017,Male,42,1900,49000000,66.7
Kenya,2017,Female,38,1900,49000000,66.7
United Republic of Tanzania,2015,Total,20,1000,53000000,64
United Republic of Tanzania,2017,Total,25,1100,55000000,65
Nigeria,2017,Total,50,2100,190000000,54
Mali,2016,Total,,800,18000000,58
`

const sampleGeo = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Tanzania"},
     "geometry": {"type": "Polygon", "coordinates": [[[30,-1],[40,-1],[40,-11],[30,-11],[30,-1]]]}},
    {"type": "Feature", "properties": {"name": "Kenya"},
     "geometry": {"type": "Polygon", "coordinates": [[[34,4],[41,4],[41,-4],[34,-4],[34,4]]]}},
    {"type": "Feature", "properties": {"name": "Chad"},
     "geometry": {"type": "Polygon", "coordinates": [[[14,23],[24,23],[24,8],[14,8],[14,23]]]}},
    {"type": "Feature", "properties": {"name": "Niger"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,23],[14,23],[14,11],[0,11],[0,23]]]}}
  ]
}`

// resetFlags clears values and Changed state that persist across invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(fl *pflag.Flag) {
			if sv, ok := fl.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = fl.Value.Set(fl.DefValue)
			}
			fl.Changed = false
		})
	}
	reset(c.Flags())
	reset(c.PersistentFlags())
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args and return stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	cfg = nil
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// setup isolates HOME and writes the sample dataset and basemap.
func setup(t *testing.T) (home, data, geoPath string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	data = filepath.Join(home, "malaria.csv")
	if err := os.WriteFile(data, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	geoPath = filepath.Join(home, "africa.geojson")
	if err := os.WriteFile(geoPath, []byte(sampleGeo), 0o644); err != nil {
		t.Fatalf("write geo: %v", err)
	}
	return home, data, geoPath
}

func TestCLI_Report(t *testing.T) {
	home, data, geoPath := setup(t)
	outDir := filepath.Join(home, "out")
	metricsFile := filepath.Join(home, "malstat.prom")

	out := runCmd(t, "report", data, "--geo", geoPath, "--out", outDir, "--metrics-file", metricsFile)
	if !strings.Contains(out, "✓ Wrote report to") {
		t.Fatalf("unexpected output: %s", out)
	}

	md, err := os.ReadFile(filepath.Join(outDir, "report.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[TOP ENTITIES]", "[GEO COVERAGE]", "[REGRESSION]", "Unmatched: Mali, Nigeria"} {
		if !strings.Contains(string(md), want) {
			t.Fatalf("report missing %q", want)
		}
	}

	m, err := manifest.Load(outDir)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	kinds := map[string]int{}
	for _, a := range m.Artifacts {
		kinds[a.Kind]++
	}
	if kinds["markdown"] != 1 || kinds["chart"] != 5 || kinds["workbook"] != 1 || kinds["metrics"] != 1 {
		t.Fatalf("unexpected artifacts: %+v", m.Artifacts)
	}
	if len(m.Problems) != 0 {
		t.Fatalf("unexpected problems: %v", m.Problems)
	}
	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "malstat_report_rows_loaded 14") {
		t.Fatalf("metrics missing rows loaded:\n%s", prom)
	}

	out = runCmd(t, "manifest", outDir)
	for _, want := range []string{"Run: " + m.RunID, "| markdown | report.md |", "| chart | charts/top_entities.png |", "✓ 8 artifacts"} {
		if !strings.Contains(out, want) {
			t.Fatalf("manifest output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ReportHonoursTopAndMetricsNamespace(t *testing.T) {
	home, data, _ := setup(t)
	runCmd(t, "config", "set", "metrics_namespace", "unicef")
	outDir := filepath.Join(home, "ns")
	metricsFile := filepath.Join(home, "ns.prom")
	runCmd(t, "report", data, "--out", outDir, "--top", "3", "--no-charts", "--no-xlsx", "--metrics-file", metricsFile)

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "unicef_report_rows_loaded 14") {
		t.Fatalf("metrics namespace not applied:\n%s", prom)
	}

	ro := chartOptions(outDir, &report.Report{TopN: 3})
	if ro.TopN != 3 || ro.Dir != filepath.Join(outDir, "charts") {
		t.Fatalf("chart options = %+v", ro)
	}
	if ro := chartOptions(outDir, &report.Report{}); ro.TopN != 15 {
		t.Fatalf("default chart top = %d", ro.TopN)
	}
}

func TestCLI_ManifestMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if _, err := execCmd("manifest", filepath.Join(home, "none")); err == nil || !strings.Contains(err.Error(), "manifest not found") {
		t.Fatalf("expected missing manifest error, got %v", err)
	}
}

func TestCLI_ReportWithoutOptionalArtifacts(t *testing.T) {
	home, data, _ := setup(t)
	outDir := filepath.Join(home, "plain")
	runCmd(t, "report", data, "--out", outDir, "--no-charts", "--no-xlsx", "--min-periods", "4")

	m, err := manifest.Load(outDir)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if len(m.Artifacts) != 1 || m.Artifacts[0].Kind != "markdown" {
		t.Fatalf("unexpected artifacts: %+v", m.Artifacts)
	}
	if len(m.Problems) != 1 || !strings.HasPrefix(m.Problems[0], "trend:") {
		t.Fatalf("expected a trend problem, got %v", m.Problems)
	}
	if m.Options["min_periods"] != "4" {
		t.Fatalf("min_periods option not recorded: %v", m.Options)
	}
}

func TestCLI_Views(t *testing.T) {
	_, data, geoPath := setup(t)

	out := runCmd(t, "snapshot", data)
	if !strings.Contains(out, "| Kenya | 2017 | 40 |") || !strings.Contains(out, "✓ 5 countries (Total)") {
		t.Fatalf("snapshot output: %s", out)
	}

	out = runCmd(t, "summary", data, "--top", "2")
	if !strings.Contains(out, "| Nigeria | 50.0 |") || !strings.Contains(out, "✓ 2 of 5 countries shown") {
		t.Fatalf("summary output: %s", out)
	}
	if !strings.Contains(out, "⚠ 1 countries have rows but no value") {
		t.Fatalf("summary should flag Mali: %s", out)
	}

	out = runCmd(t, "gender", data)
	if !strings.Contains(out, "| Kenya | 42.0 (2017) | 38.0 (2017) | +4.0 |") || !strings.Contains(out, "male higher in 1, female higher in 1") {
		t.Fatalf("gender output: %s", out)
	}

	out = runCmd(t, "trend", data, "--entity", "Kenya", "--entity", "Nigeria")
	if !strings.Contains(out, "| Kenya | 3 |") || !strings.Contains(out, "⚠ Not enough years: Nigeria") {
		t.Fatalf("trend output: %s", out)
	}

	out = runCmd(t, "regress", data, "--covariate", "gdp_per_capita")
	if !strings.Contains(out, "n=4") {
		t.Fatalf("regress output: %s", out)
	}

	out = runCmd(t, "geo", data, "--geo", geoPath)
	if !strings.Contains(out, "| Tanzania | United Republic of Tanzania | 2017 | 25 |") || !strings.Contains(out, "⚠ No polygon for: Mali, Nigeria") {
		t.Fatalf("geo output: %s", out)
	}

	out = runCmd(t, "namemap", "check", "--geo", geoPath, data)
	if !strings.Contains(out, "⚠ 2 countries have no polygon: Mali, Nigeria") {
		t.Fatalf("namemap check output: %s", out)
	}
	out = runCmd(t, "namemap", "show")
	if !strings.Contains(out, "Tanzania: United Republic of Tanzania") {
		t.Fatalf("namemap show output: %s", out)
	}
}

func TestCLI_RegressInsufficientSample(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := filepath.Join(home, "tiny.csv")
	csv := "Country,Year,Sex,Malaria_Test_Percent,GDP_per_capita\nA,2010,Total,10,500\nB,2011,Total,5,900\n"
	if err := os.WriteFile(data, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execCmd("regress", data); err == nil || !strings.Contains(err.Error(), "insufficient sample") {
		t.Fatalf("expected insufficient sample error, got %v", err)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	runCmd(t, "config", "set", "top_n", "5")
	runCmd(t, "config", "set", "columns.value", "Pct")
	if _, err := execCmd("config", "set", "confidence_level", "2"); err == nil {
		t.Fatalf("expected error for invalid confidence_level")
	}
	if _, err := execCmd("config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 5") || !strings.Contains(out, "columns.value: Pct") {
		t.Fatalf("config show output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".malstat", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
}
