package logger

import (
	"fmt"

	"agriconnect_back_end/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger construit le logger racine ; les composants reçoivent log.Named(...).
func NewLogger(conf *config.App) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(conf.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("niveau de log invalide %q: %w", conf.LogLevel, err)
	}

	if conf.Mode == config.AppModeProduction {
		cfg := zap.NewProductionConfig()
		cfg.Level = lvl
		return cfg.Build()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}
