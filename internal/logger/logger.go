// Package logger provides logging functionality for the application.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Interface defines the logger interface.
type Interface interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Fatal(msg string, fields ...any)
	With(fields ...any) Interface
}

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Encoding is console or json.
	Encoding string
	// Development enables caller info and human-readable output tweaks.
	Development bool
	// OutputPaths is the list of paths to write log output to.
	OutputPaths []string
}

// logLevels maps string levels to zapcore.Level.
var logLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

// Logger implements the Interface on top of zap's sugared logger.
type Logger struct {
	zapLogger *zap.SugaredLogger
}

// New creates a new logger instance.
func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	level, ok := logLevels[cfg.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = encoding
	zapCfg.OutputPaths = outputs
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{zapLogger: zl.Sugar()}, nil
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, fields ...any) { l.zapLogger.Debugw(msg, fields...) }

// Info logs a message at info level.
func (l *Logger) Info(msg string, fields ...any) { l.zapLogger.Infow(msg, fields...) }

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, fields ...any) { l.zapLogger.Warnw(msg, fields...) }

// Error logs a message at error level.
func (l *Logger) Error(msg string, fields ...any) { l.zapLogger.Errorw(msg, fields...) }

// Fatal logs a message at fatal level and exits.
func (l *Logger) Fatal(msg string, fields ...any) { l.zapLogger.Fatalw(msg, fields...) }

// With returns a logger with pre-set fields.
func (l *Logger) With(fields ...any) Interface {
	return &Logger{zapLogger: l.zapLogger.With(fields...)}
}
