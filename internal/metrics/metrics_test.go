package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRecords(t *testing.T) {
	m := NewManager(WithNamespace("test"), WithSubsystem("run"), WithNamespace(""))
	m.RecordLoad(120, 3)
	m.RecordView("snapshot", 40)
	m.RecordFailure("regression")
	m.RecordFailure("regression")
	m.RecordGeo(35, 177)
	m.RecordRegression(0.42)
	m.ObserveStage("load", time.Now())

	assert.Equal(t, 120.0, testutil.ToFloat64(m.rowsLoaded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rowsSkipped))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.viewRows.WithLabelValues("snapshot")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.viewFailures.WithLabelValues("regression")))
	assert.Equal(t, 35.0, testutil.ToFloat64(m.geoMatched))
	assert.Equal(t, 0.42, testutil.ToFloat64(m.regressionR2))
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP test_run_rows_loaded Observations loaded from the source dataset
# TYPE test_run_rows_loaded gauge
test_run_rows_loaded 120
`), "test_run_rows_loaded"))
}

func TestWriteTextfile(t *testing.T) {
	m := NewManager()
	m.RecordLoad(7, 0)
	m.MarkRun(time.Unix(1700000000, 0))
	path := filepath.Join(t.TempDir(), "malstat.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "malstat_report_rows_loaded 7")
	assert.Contains(t, string(b), "malstat_report_last_run_timestamp_seconds")
}

func TestNilManager(t *testing.T) {
	var m *Manager
	m.RecordLoad(1, 1)
	m.RecordView("x", 1)
	m.RecordFailure("x")
	m.ObserveStage("x", time.Now())
	assert.NoError(t, m.WriteTextfile("/nonexistent/dir/file"))
	assert.Nil(t, m.Registry())
}
