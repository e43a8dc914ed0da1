package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	production := newConfig("production")
	assert.Equal(t, "json", production.Encoding)
	assert.Equal(t, []string{"stdout"}, production.OutputPaths)
	assert.Equal(t, "timestamp", production.EncoderConfig.TimeKey)

	development := newConfig("development")
	assert.Equal(t, "console", development.Encoding)
	assert.True(t, development.Development)
	assert.Equal(t, []string{"stdout"}, development.OutputPaths)
}

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		logger, err := New(env)
		require.NoError(t, err, env)
		require.NotNil(t, logger)
	}
}

// Property: production entries are JSON objects carrying level, timestamp,
// message and the service name
func TestProperty_ProductionLogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("production entries decode as structured JSON", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer

			config := newConfig("production")
			core := zapcore.NewCore(
				zapcore.NewJSONEncoder(config.EncoderConfig),
				zapcore.AddSync(&buf),
				zapcore.DebugLevel,
			)
			logger := zap.New(core).With(zap.String("service", Name))

			switch level {
			case "debug":
				logger.Debug(message)
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message, zap.String("error", "boom"))
			default:
				logger.Info(message)
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			for _, key := range []string{"level", "timestamp", "msg", "service"} {
				if _, ok := entry[key]; !ok {
					return false
				}
			}
			if level == "error" && entry["error"] != "boom" {
				return false
			}
			return entry["msg"] == message && entry["service"] == Name
		},
		gen.AnyString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
