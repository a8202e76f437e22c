// Package logger builds the process-wide zap logger.
package logger

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger when prod is true and a colored
// console logger otherwise.
func New(prod bool) (*zap.Logger, error) {
    if prod {
        cfg := zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "ts"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
        return cfg.Build()
    }
    cfg := zap.NewDevelopmentConfig()
    cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    return cfg.Build()
}

// Must is New but panics on error; used from main before anything else can log.
func Must(prod bool) *zap.Logger {
    l, err := New(prod)
    if err != nil {
        panic(err)
    }
    return l
}
