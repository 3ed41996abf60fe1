// Package logx wraps go.uber.org/zap behind the small level-based API the
// teacher repo's internal/logger package exposes (New/Debug/Info/Warn/
// Error), so call sites read the same as stdlib log.Printf-style logging
// while emitting structured, leveled output. Grounded on
// internal/logger/logger.go's shape and on the zap usage in
// arx-backend/gateway/middleware/security.go and gateway/router.go.
package logx

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.SugaredLogger bound to a component name.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a Logger writing leveled, console-encoded output to stderr.
// verbose selects debug-level output; production deployments run with
// verbose=false.
func New(component string, verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(os.Stderr),
		level,
	)

	z := zap.New(core).Sugar().With("component", component)
	return &Logger{z: z}
}

// Nop returns a Logger that discards everything; useful in tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop().Sugar()}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.z.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.z.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.z.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.z.Errorf(format, args...) }

// With returns a child Logger carrying additional structured fields, e.g.
// a session id attached to every log line for that session (SPEC_FULL.md
// §4.5).
func (l *Logger) With(keyValues ...interface{}) *Logger {
	return &Logger{z: l.z.With(keyValues...)}
}

// Sync flushes any buffered log output.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}
