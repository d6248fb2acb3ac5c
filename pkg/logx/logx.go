// Package logx is the application logging facade, backed by zap.
package logx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls which messages are emitted.
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

var (
	atom   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger()
)

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		atom,
	)
	return zap.New(core).Sugar()
}

// SetLevel sets the global minimum log level.
func SetLevel(l Level) {
	atom.SetLevel(zapcore.Level(l))
}

func Debug(args ...any) { logger.Debug(args...) }
func Info(args ...any)  { logger.Info(args...) }
func Warn(args ...any)  { logger.Warn(args...) }
func Error(args ...any) { logger.Error(args...) }
func Fatal(args ...any) { logger.Fatal(args...) }

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { logger.Errorf(format, args...) }
func Fatalf(format string, args ...any) { logger.Fatalf(format, args...) }

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = logger.Sync()
}
