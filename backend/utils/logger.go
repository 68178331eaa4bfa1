package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls the encoder and level of the process logger.
type LoggerConfig struct {
	// text or json
	Format string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level        string
	EnableColors bool
}

// InitLogger builds the process logger. json selects zap's production
// encoder, anything else the development console encoder.
func InitLogger(config ...LoggerConfig) (*zap.SugaredLogger, error) {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	var zc zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		if cfg.EnableColors {
			zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar().Named("kotoba"), nil
}
