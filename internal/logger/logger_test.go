package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndLevels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(&buf, "warn"))
	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Named("geo").Warn(ctx, "unmatched", String("entity", "Atlantis"), Int("n", 2))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "component=geo")
	assert.Contains(t, out, "entity=Atlantis")
	assert.Contains(t, out, "n=2")

	assert.Error(t, SetLevelString("loud"))
	require.NoError(t, SetLevelString("debug"))
	Get().Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, slog.LevelError)
	l.Warn(context.Background(), "dropped")
	l.Error(context.Background(), "kept", Error(errors.New("boom")), Float64("r2", 0.5))
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "r2=0.5")
}
