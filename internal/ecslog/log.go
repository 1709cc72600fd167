// Package ecslog builds the process-wide structured logger used to record
// warning-policy events and CLI/analysis progress. Built the way
// pkg/consensus/logger.go builds neo-go's dbft logger.
package ecslog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.Logger
)

func build() (*zap.Logger, error) {
	cc := zap.NewDevelopmentConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.Encoding = "console"

	log, err := cc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("module", "ecsim")), nil
}

// Logger returns the process-wide logger, building it lazily on first use.
// If construction fails (should not happen with the console encoder) a
// no-op logger is returned instead of panicking.
func Logger() *zap.Logger {
	once.Do(func() {
		l, err := build()
		if err != nil {
			logger = zap.NewNop()
			return
		}
		logger = l
	})
	return logger
}

// With returns the process logger annotated with the given fields, for a
// single named component (formula, multiplier, rpa, epa, cli, ...).
func With(component string, fields ...zap.Field) *zap.Logger {
	return Logger().With(append([]zap.Field{zap.String("component", component)}, fields...)...)
}
