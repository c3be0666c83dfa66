// Package logging configures the process-wide structured logger.
// Library packages obtain component loggers through slog; this
// package owns handler setup, level selection and optional file
// output for long simulation runs.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the minimum severity that gets emitted.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Config holds logger configuration.
type Config struct {
	Level      Level
	OutputFile string // path to log file (empty = stderr only)
	JSONFormat bool   // JSON handler instead of text
	AddSource  bool   // add source file and line number
}

// Logger wraps slog.Logger together with its owned output file.
type Logger struct {
	slog *slog.Logger
	cfg  Config
	file *os.File
	mu   sync.Mutex
}

var (
	global *Logger
	once   sync.Once
)

// Initialize creates the global logger and installs it as the slog
// default, so component loggers created via slog.Default() inherit
// the configuration. Safe to call more than once; only the first
// call takes effect.
func Initialize(cfg Config) error {
	var initErr error
	once.Do(func() {
		l, err := New(cfg)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize logger: %w", err)
			return
		}
		global = l
		slog.SetDefault(l.slog)
	})
	return initErr
}

// New creates a logger instance with the given configuration.
func New(cfg Config) (*Logger, error) {
	l := &Logger{cfg: cfg}

	var writers []io.Writer
	writers = append(writers, os.Stderr)

	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputFile, err)
		}
		l.file = file
		writers = append(writers, file)
	}

	out := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{
		Level:     toSlogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l.slog = slog.New(handler)
	return l, nil
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the wrapped slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// With returns a logger with additional context attributes.
func (l *Logger) With(args ...any) *Logger {
	nl := *l
	nl.slog = l.slog.With(args...)
	return &nl
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Close closes the global logger's file output.
func Close() error {
	if global != nil {
		return global.Close()
	}
	return nil
}

// DefaultConfig returns the configuration used by the CLI: text
// output at info level, plus a timestamped log file when debug is off.
func DefaultConfig(debug bool) Config {
	level := INFO
	if debug {
		level = DEBUG
	}
	logFile := ""
	if !debug {
		logFile = filepath.Join("logs", fmt.Sprintf("rescuelane_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	}
	return Config{
		Level:      level,
		OutputFile: logFile,
		JSONFormat: false,
		AddSource:  debug,
	}
}
