package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"fipli/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LogConfig{Level: "info", Format: "json"})

	l.Debug("hidden")
	l.Info("scenario created", "scenario_id", 7)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scenario created", entry["msg"])
	assert.Equal(t, float64(7), entry["scenario_id"])
}

func TestGormLogger_RoutesToSlog(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LogConfig{Level: "debug", Format: "text"})

	gl := GormLogger(l, "info")
	gl.Info(context.Background(), "migrated %d tables", 3)

	assert.Contains(t, buf.String(), "migrated 3 tables")
	assert.Contains(t, buf.String(), "component=gorm")
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLevel("silent"))
	assert.Equal(t, logger.Error, gormLevel("error"))
	assert.Equal(t, logger.Info, gormLevel("INFO"))
	assert.Equal(t, logger.Warn, gormLevel(""))
}
