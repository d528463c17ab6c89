// Package logging provides the engine's ambient logging sink: a thin
// interface the rest of the module depends on, backed by zap with
// lumberjack-managed rotation. Nothing in internal/ or cmd/ imports zap
// directly — everything goes through Sink.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is the logging surface the engine's components depend on
// (spec.md §6 "the host may supply a debug/error sink"). Debugf is for
// high-volume per-request tracing; Errorf is for conditions a caller
// should be able to alert on.
type Sink interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ZapSink is the default Sink, writing structured, rotated logs through
// lumberjack.
type ZapSink struct {
	logger *zap.SugaredLogger
}

// Config controls where ZapSink writes and how aggressively it rotates.
type Config struct {
	Filename   string // empty means stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Debug      bool // enable Debugf output; otherwise it's a no-op
}

// NewZapSink builds a ZapSink from cfg. When cfg.Filename is empty, logs go
// to stderr only (useful for tests and short-lived CLI runs).
func NewZapSink(cfg Config) *ZapSink {
	level := zap.InfoLevel
	if cfg.Debug {
		level = zap.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var writer zapcore.WriteSyncer
	if cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		writer = zapcore.AddSync(rotator)
	} else {
		writer = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, writer, level)
	logger := zap.New(core)
	return &ZapSink{logger: logger.Sugar()}
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func (s *ZapSink) Debugf(format string, args ...any) { s.logger.Debugf(format, args...) }
func (s *ZapSink) Errorf(format string, args ...any) { s.logger.Errorf(format, args...) }

// Sync flushes any buffered log entries.
func (s *ZapSink) Sync() error { return s.logger.Sync() }

// NopSink discards everything; useful as a default when the host doesn't
// care about logging.
type NopSink struct{}

func (NopSink) Debugf(format string, args ...any) {}
func (NopSink) Errorf(format string, args ...any) {}
