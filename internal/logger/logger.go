package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name is attached to every entry so logs from several processes can be told apart
const Name = "autek-api"

// New creates the structured logger for the given environment
func New(env string) (*zap.Logger, error) {
	logger, err := newConfig(env).Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", Name)),
	)
	if err != nil {
		return nil, err
	}

	return logger, nil
}

func newConfig(env string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Always log to stdout for container compatibility
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config
}
