package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger. env "production" gets JSON
// encoding at InfoLevel; anything else gets a console logger at
// DebugLevel.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}
