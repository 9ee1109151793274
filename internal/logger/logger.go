// Package logger provides structured logging for cmmcal using zap.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/cmmcal/internal/config"
)

// Field keys attached by the context helpers.
const (
	KeyFile     = "file"
	KeySheet    = "sheet"
	KeyPercAxis = "perc_axis"
	KeyCMMAxis  = "cmm_axis"
)

// Logger wraps zap.SugaredLogger with context methods.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New creates a Logger writing to the sink named by cfg.Output.
// stdout is only used when asked for explicitly: it may carry the gauge document.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return NewWithSink(cfg, sink), nil
}

// NewWithSink creates a Logger writing to sink, ignoring cfg.Output.
func NewWithSink(cfg *config.LoggingConfig, sink zapcore.WriteSyncer) *Logger {
	core := zapcore.NewCore(newEncoder(cfg.Format), sink, levelOf(cfg.Level))
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return wrap(base.Sugar(), base)
}

// NewNop returns a Logger that discards everything. Pipelines fall back to it
// when handed a nil logger.
func NewNop() *Logger {
	base := zap.NewNop()
	return wrap(base.Sugar(), base)
}

func wrap(s *zap.SugaredLogger, base *zap.Logger) *Logger {
	return &Logger{SugaredLogger: s, base: base}
}

// levelOf maps the configured level name; unknown names log at info.
func levelOf(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil || level == "" {
		return zapcore.InfoLevel
	}
	return l
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.SecondsDurationEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// openSink resolves an output name: stderr (default), stdout or a file path
// opened for appending.
func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return zapcore.Lock(f), nil
}

// WithFile tags entries with the input file being processed.
func (l *Logger) WithFile(path string) *Logger {
	return l.with(KeyFile, path)
}

// WithSheet tags entries with a workbook sheet.
func (l *Logger) WithSheet(sheet string) *Logger {
	return l.with(KeySheet, sheet)
}

// WithAxis tags entries with one axis mapping row.
func (l *Logger) WithAxis(percAxis, cmmAxis string) *Logger {
	return l.with(KeyPercAxis, percAxis, KeyCMMAxis, cmmAxis)
}

// WithFields tags entries with arbitrary key/value pairs.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

func (l *Logger) with(args ...interface{}) *Logger {
	return wrap(l.SugaredLogger.With(args...), l.base)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
