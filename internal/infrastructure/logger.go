package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"trialguard/internal/config"
)

// Records are JSON, written to stderr, a file, or both. stdout carries
// command output only.

var logging struct {
	once   sync.Once
	logger *slog.Logger
	err    error

	fileMu sync.Mutex
	file   *os.File
}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Only the first call has any effect; later calls return the
// same logger and error.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	logging.once.Do(func() {
		w, err := logOutput(cfg)
		if err != nil {
			logging.err = err
			return
		}
		logging.logger = newJSONLogger(w, cfg.Level, cfg.Level == "debug")
		slog.SetDefault(logging.logger)
	})
	return logging.logger, logging.err
}

// GetLogger returns the process logger, or slog.Default before
// InitializeLogger has succeeded.
func GetLogger() *slog.Logger {
	if logging.logger == nil {
		return slog.Default()
	}
	return logging.logger
}

// NewLogger returns a standalone JSON logger writing to w.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return newJSONLogger(w, level, false)
}

func newJSONLogger(w io.Writer, level string, withSource bool) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: withSource,
		Level:     parseLogLevel(level),
	})
	return slog.New(&traceHandler{Handler: handler})
}

func logOutput(cfg config.LoggingConfig) (io.Writer, error) {
	output := strings.ToLower(cfg.Output)
	if output != "file" && output != "both" {
		return os.Stderr, nil
	}

	f, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logging.fileMu.Lock()
	logging.file = f
	logging.fileMu.Unlock()

	if output == "both" {
		return io.MultiWriter(os.Stderr, f), nil
	}
	return f, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

// traceHandler tags every record with the trace id carried by its context.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel accepts slog level names in any case, plus "warning".
// Anything else means info.
func parseLogLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CloseLogFile closes the log file opened by InitializeLogger, if any.
func CloseLogFile() error {
	logging.fileMu.Lock()
	defer logging.fileMu.Unlock()

	if logging.file == nil {
		return nil
	}
	err := logging.file.Close()
	logging.file = nil
	return err
}

// ResetLoggerForTesting lets a test call InitializeLogger again.
func ResetLoggerForTesting() {
	CloseLogFile()
	logging.logger = nil
	logging.err = nil
	logging.once = sync.Once{}
}
