package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide log sink.
type Options struct {
	Level      string // debug | info | warn | error
	File       string // optional rotating file next to stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	once sync.Once
	base *slog.Logger
)

// Init configures the global handler exactly once; later calls are no-ops.
func Init(opts Options) {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if opts.File != "" {
			w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    orDefault(opts.MaxSizeMB, 50),
				MaxBackups: orDefault(opts.MaxBackups, 3),
				MaxAge:     orDefault(opts.MaxAgeDays, 7),
			})
		}
		base = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	})
}

func baseLogger() *slog.Logger {
	Init(Options{})
	return base
}

// Logger writes one JSON line per event with the service, action and
// hostname attached.
type Logger struct {
	sl *slog.Logger
}

func New(service string) *Logger {
	return FromSlog(service, baseLogger())
}

// FromSlog wraps an existing slog logger, for tests and embedding.
func FromSlog(service string, sl *slog.Logger) *Logger {
	return &Logger{sl: sl.With("service", service, "hostname", hostname())}
}

// Discard drops everything.
func Discard(service string) *Logger {
	return FromSlog(service, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func (l *Logger) log(level slog.Level, action string, fields map[string]any, err error) {
	if !l.sl.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]any, 0, 2+2*len(fields)+2)
	attrs = append(attrs, "action", action)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, fields[k])
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.sl.Log(context.Background(), level, action, attrs...)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(slog.LevelInfo, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(slog.LevelDebug, action, fields, nil) }
func (l *Logger) Warn(action string, fields map[string]any)  { l.log(slog.LevelWarn, action, fields, nil) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(slog.LevelError, action, fields, err)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func hostname() string { h, _ := os.Hostname(); return h }
