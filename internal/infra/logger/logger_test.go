package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"export_stats_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSetsLevelAndFormatter(t *testing.T) {
	configure(&config.AppConfig{LogLevel: "debug", Environment: "production"}, io.Discard)
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)

	configure(&config.AppConfig{LogLevel: "nonsense", Environment: "development"}, io.Discard)
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, Log.Formatter)
}

func TestComponentAddsField(t *testing.T) {
	entry := Component("recorder")
	assert.Equal(t, "recorder", entry.Data["component"])
	assert.Equal(t, serviceName, entry.Data["service"])
}

func TestProductionLinesCarryServiceFields(t *testing.T) {
	var buf bytes.Buffer
	configure(&config.AppConfig{LogLevel: "info", Environment: "production"}, &buf)
	buf.Reset()

	Component("recorder").Info("Export record saved")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Export record saved", line["message"])
	assert.Equal(t, "recorder", line["component"])
	assert.Equal(t, serviceName, line["service"])
	assert.Equal(t, "production", line["env"])
}
