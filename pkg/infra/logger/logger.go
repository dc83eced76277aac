// Package logger configures the process-wide slog logger for mcat and
// enriches log lines with the request and unit carried by a context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jguan/model-catalog/pkg/unit"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
	mu            sync.RWMutex
)

type Config struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format is json or text.
	Format string
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
}

// Init installs the default logger. Only the first call takes effect
// until Reset is called.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	once.Do(func() {
		defaultLogger = New(cfg)
		slog.SetDefault(defaultLogger)
	})
}

// Reset lets tests call Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	defaultLogger = nil
}

// New builds a logger from cfg without installing it. Unknown levels fall
// back to info.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level. The empty string
// is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Default returns the logger installed by Init, or slog's default.
func Default() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

// WithContext adds request_id, trace_id and unit from ctx when present.
func WithContext(ctx context.Context) *slog.Logger {
	l := Default()

	if rid := unit.GetRequestID(ctx); rid != "" {
		l = l.With("request_id", rid)
	}
	if tid := unit.GetTraceID(ctx); tid != "" {
		l = l.With("trace_id", tid)
	}
	if name := unit.GetUnitName(ctx); name != "" {
		l = l.With("unit", name)
	}
	return l
}
