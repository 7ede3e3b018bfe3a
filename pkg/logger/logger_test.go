package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetupWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "production", "info")

	With("contract_id", "c-1").Info("recognized", "days", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "recognized", line["msg"])
	assert.Equal(t, "c-1", line["contract_id"])
	assert.EqualValues(t, 3, line["days"])
}

func TestSetupWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "development", "warn")

	Info("hidden")
	Debug("hidden")
	Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "development", "debug")
	gl := NewGormLogger(gormlogger.Warn, 100*time.Millisecond)
	query := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	gl.Trace(context.Background(), time.Now(), query, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), "SQL error")
	assert.Contains(t, buf.String(), "relation does not exist")

	buf.Reset()
	gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
	assert.Contains(t, buf.String(), "Slow SQL")

	buf.Reset()
	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), query, errors.New("boom"))
	assert.Empty(t, buf.String())
}
