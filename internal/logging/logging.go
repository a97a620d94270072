// Package logging monta o *zap.Logger do processo conforme o modo de execução.
package logging

import (
	"request-guard/middleware/guard/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New devolve um logger JSON em produção e um logger de console colorido
// nos demais modos.
func New(mode domain.Mode, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if mode.IsProduction() {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build(zap.Fields(zap.String("mode", mode.String())))
}
