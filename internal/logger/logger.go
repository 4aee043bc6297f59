// Package logger is the structured key/value logger shared by every component
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	s *zap.SugaredLogger
}

// New builds the logger for a deployment environment as set in ENVIRONMENT.
// production writes JSON from info up, test writes console output from warn up and
// anything else writes colored console output from debug up.
func New(environment string) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	switch environment {
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "test":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar().With("service", "ghostwriter")}, nil
}

func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// Named returns a child logger for one component of the service. Its entries carry the
// component in the logger name and as a "component" field.
func (l *Logger) Named(component string) *Logger {
	return &Logger{s: l.s.Named(component).With("component", component)}
}

func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{s: l.s.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.s.Debugw(msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.s.Infow(msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.s.Warnw(msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.s.Errorw(msg, keysAndValues...) }

// Sync flushes buffered entries, ignoring the error stderr returns on some platforms
func (l *Logger) Sync() {
	_ = l.s.Sync()
}
