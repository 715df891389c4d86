/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	alwaysLevel     struct{}
	loggerComposite struct {
		debug  *zap.Logger
		info   *zap.Logger
		warn   *zap.Logger
		error  *zap.Logger
		stat   *zap.Logger
		config *zap.Logger
	}
)

var (
	zapLogger    *loggerComposite
	DebugEnabled = false
)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:          "time",
	LevelKey:         "level",
	NameKey:          "logger",
	CallerKey:        "caller",
	MessageKey:       "msg",
	StacktraceKey:    "stacktrace",
	ConsoleSeparator: " ",
	LineEnding:       zapcore.DefaultLineEnding,
	EncodeLevel:      zapcore.LowercaseLevelEncoder,
	EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
	EncodeDuration:   zapcore.SecondsDurationEncoder,
}

// init initializes default loggers (to stderr, stdout is reserved for reports)
func init() {
	newZapLogger := func(name string) *zap.Logger {
		return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stderr), alwaysLevel{})).Named(name)
	}
	zapLogger = build(newZapLogger)
}

func build(newZapLogger func(name string) *zap.Logger) *loggerComposite {
	return &loggerComposite{
		debug:  newZapLogger("debug"),
		info:   newZapLogger("info"),
		warn:   newZapLogger("warn"),
		error:  newZapLogger("error"),
		stat:   newZapLogger("stat"),
		config: newZapLogger("config"),
	}
}

func (a alwaysLevel) Enabled(level zapcore.Level) bool {
	return true
}

// SetupZapLogger writes every category to its own file under logDir, e.g. logs/info.log.
// An empty logDir keeps the console loggers.
func SetupZapLogger(logDir string) error {
	if logDir == "" {
		return nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	var openErr error
	newZapLogger := func(name string) *zap.Logger {
		w, _, err := zap.Open(filepath.Join(logDir, name+".log"))
		if err != nil {
			openErr = err
			w = zapcore.AddSync(os.Stderr)
		}
		return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), w, alwaysLevel{}))
	}
	c := build(newZapLogger)
	if openErr != nil {
		return openErr
	}
	zapLogger = c
	return nil
}

// Sync flushes all category loggers.
func Sync() {
	for _, l := range []*zap.Logger{zapLogger.debug, zapLogger.info, zapLogger.warn, zapLogger.error, zapLogger.stat, zapLogger.config} {
		_ = l.Sync()
	}
}

func Debugz(msg string, fields ...zap.Field) {
	if DebugEnabled {
		zapLogger.debug.Info(msg, fields...)
	}
}
func Infoz(msg string, fields ...zap.Field) {
	zapLogger.info.Info(msg, fields...)
}
func Warnz(msg string, fields ...zap.Field) {
	zapLogger.warn.Info(msg, fields...)
}
func Errorz(msg string, fields ...zap.Field) {
	zapLogger.error.Info(msg, fields...)
}
func Configz(msg string, fields ...zap.Field) {
	zapLogger.config.Info(msg, fields...)
}

// Statz writes a per-run summary line to the stat logger.
func Statz(msg string, fields ...zap.Field) {
	zapLogger.stat.Info(msg, fields...)
}
