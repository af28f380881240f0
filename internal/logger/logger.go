package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/judopay/judopay-go/internal/config"
)

// Logger is the structured logging surface used across the application.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// S is the process logger once Init has run.
var S *zap.SugaredLogger

var std Logger = NopLogger{}

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// Init builds the JSON stdout logger from config and installs it as the
// package logger. An empty level means info.
func Init(cfg *config.Config) (*ZapLogger, error) {
	level := zapcore.InfoLevel
	if name := strings.TrimSpace(cfg.LogLevel); name != "" {
		if name == "warning" {
			name = "warn"
		}
		parsed, err := zapcore.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		level = parsed
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		level,
	)
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", cfg.AppName), zap.String("env", cfg.Env))

	z := New(base.Sugar())
	S = z.sugar
	std = z
	return z, nil
}

// New wraps an existing sugared logger.
func New(sugar *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{base: sugar.Desugar(), sugar: sugar}
}

// Sugar exposes the underlying logger, e.g. for the HTTP transport.
func (z *ZapLogger) Sugar() *zap.SugaredLogger {
	return z.sugar
}

func (z *ZapLogger) InfoObj(msg, key string, obj interface{}) {
	z.base.Info(msg, zap.Any(key, obj))
}

func (z *ZapLogger) DebugObj(msg, key string, obj interface{}) {
	z.base.Debug(msg, zap.Any(key, obj))
}

func (z *ZapLogger) WarnObj(msg, key string, obj interface{}) {
	z.base.Warn(msg, zap.Any(key, obj))
}

func (z *ZapLogger) ErrorObj(msg, key string, obj interface{}) {
	z.base.Error(msg, zap.Any(key, obj))
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) InfoObj(string, string, interface{})  {}
func (NopLogger) DebugObj(string, string, interface{}) {}
func (NopLogger) WarnObj(string, string, interface{})  {}
func (NopLogger) ErrorObj(string, string, interface{}) {}

// Close flushes the package logger.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Package helpers log through the logger installed by Init and do nothing
// before it.

func InfoObj(msg, key string, obj interface{})  { std.InfoObj(msg, key, obj) }
func DebugObj(msg, key string, obj interface{}) { std.DebugObj(msg, key, obj) }
func WarnObj(msg, key string, obj interface{})  { std.WarnObj(msg, key, obj) }
func ErrorObj(msg, key string, obj interface{}) { std.ErrorObj(msg, key, obj) }
