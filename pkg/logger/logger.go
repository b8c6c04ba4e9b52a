package logger

import (
	"fmt"
	"tradepost/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: coloured console output in development,
// JSON otherwise, at cfg.LogLevel.
func New(cfg *config.AppConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	var zapConfig zap.Config
	if cfg.IsDevelopment() {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build(zap.Fields(zap.String("service", cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Install replaces the global zap logger and returns a flush func.
func Install(cfg *config.AppConfig) func() {
	logger, err := New(cfg)
	if err != nil {
		logger = zap.NewExample()
		logger.Warn("Falling back to example logger", zap.Error(err))
	}
	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }
}
