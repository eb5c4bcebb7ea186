package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseMu sync.RWMutex
	base   = zap.NewNop()
)

// Initialize настраивает общий zap-логгер процесса. env=development включает человекочитаемый вывод.
func Initialize(level, env string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	SetBase(zl)
	return nil
}

// SetBase подменяет базовый логгер (в тестах на zaptest/observer).
func SetBase(zl *zap.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = zl
}

func Sync() { _ = current().Sync() }

func current() *zap.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

type Logger struct {
	service string
	zl      *zap.Logger
}

func New(service string) *Logger {
	return &Logger{service: service, zl: current().With(zap.String("service", service))}
}

// Zap: для middleware, которым нужен сырой *zap.Logger.
func (l *Logger) Zap() *zap.Logger { return l.zl }

func (l *Logger) Info(action string, fields map[string]any) {
	l.zl.Info(action, toZap(action, fields)...)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.zl.Debug(action, toZap(action, fields)...)
}

func (l *Logger) Warn(action string, fields map[string]any) {
	l.zl.Warn(action, toZap(action, fields)...)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.zl.Error(action, append(toZap(action, fields), zap.Error(err))...)
}

func toZap(action string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("action", action))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
