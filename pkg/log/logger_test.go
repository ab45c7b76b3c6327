package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goerrors "github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationFit)
	logger.Warn("warning message")
	logger.Error("error message", fmt.Errorf("boom"), IterationKey, 3)

	require.NotEmpty(t, buffer.String())
	assert.True(t, logger.ContainsMessage("debug message"))
	assert.True(t, logger.ContainsMessage("error message"))
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField("error", "boom"))
	assert.True(t, logger.ContainsField(IterationKey, 3.0))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestTestLogger_WithAndLevel(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	scoped := logger.With(ModelNameKey, "gbdt", ComponentKey, "gbdt.booster")

	scoped.Debug("filtered out")
	scoped.Info("kept", IterationKey, 1)

	assert.False(t, logger.ContainsMessage("filtered out"))
	assert.True(t, logger.ContainsField(ModelNameKey, "gbdt"))
	assert.False(t, scoped.Enabled(context.Background(), LevelDebug))
	assert.True(t, scoped.Enabled(context.Background(), LevelWarn))

	logger.Clear()
	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelInfo)
	logger := p.GetLoggerWithName("gbdt.booster").With(ModelNameKey, "gbdt")

	logger.Debug("hidden")
	logger.Info("Training started", SamplesKey, 5, FeaturesKey, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "Training started", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "gbdt.booster", rec[ComponentKey])
	assert.Equal(t, "gbdt", rec[ModelNameKey])
	assert.Equal(t, 5.0, rec[SamplesKey])

	p.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestZerologProvider_ErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	err := goerrors.NewShapeError("SetLabels", 5, 4, 0)
	p.GetLogger().Error("training failed", err, IterationKey, 0)

	out := buf.String()
	assert.Contains(t, out, `"error":"goboost: SetLabels: shape mismatch`)
	assert.Contains(t, out, `"`+ErrorDetailKey+`":{`)
	assert.Contains(t, out, `"type":"ShapeError"`)
}

func TestGlobalProvider(t *testing.T) {
	provider, logger := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))

	GetLoggerWithName("gbdt.predictor").Info("predicting", "preds.count", 3)
	assert.True(t, logger.ContainsField(ComponentKey, "gbdt.predictor"))

	SetLevel(LevelError)
	GetLogger().Info("dropped")
	assert.False(t, logger.ContainsMessage("dropped"))
}

func TestWarningsRouteThroughLogger(t *testing.T) {
	provider, logger := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))

	goerrors.Warn(goerrors.NewParameterWarning("early_stopping_rounds", "no evaluation set"))
	assert.True(t, logger.ContainsField(ComponentKey, "warnings"))
	assert.True(t, logger.ContainsMessage("no evaluation set"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
}
