// Package logging provides structured logging for the subtree CLI using
// slog.
//
// Usage:
//
//	if err := logging.Init(runID); err != nil {
//	    // handle error
//	}
//	defer logging.Close()
//
//	ctx = logging.WithRun(ctx, runID)
//	ctx = logging.WithComponent(ctx, "engine")
//
//	logging.Info(ctx, "split started", slog.String("prefix", prefix))
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/subtreecli/subtree/cmd/subtree/cli/paths"
	"github.com/subtreecli/subtree/cmd/subtree/cli/validation"
)

// LogLevelEnvVar is the environment variable that controls log level,
// checked before any config-file default.
const LogLevelEnvVar = "SUBTREE_LOG_LEVEL"

var (
	logger *slog.Logger

	logFile      *os.File
	logBufWriter *bufio.Writer

	currentRunID string

	mu sync.RWMutex

	// logLevelGetter is an optional callback consulted for the log level
	// when SUBTREE_LOG_LEVEL is unset. Set by SetLogLevelGetter before
	// Init to avoid an import cycle between logging and config.
	logLevelGetter func() string
)

// SetLogLevelGetter registers a callback used to read the log level from
// .subtree/config.json without logging importing config directly.
func SetLogLevelGetter(getter func() string) {
	mu.Lock()
	defer mu.Unlock()
	logLevelGetter = getter
}

// Init initializes the logger for one CLI run, writing JSON logs to
// .subtree/logs/<run-id>.log. If the log file cannot be created, logging
// falls back to stderr rather than failing the run.
func Init(runID string) error {
	if err := validation.ValidateRunID(runID); err != nil {
		return fmt.Errorf("invalid run ID for logging: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	levelStr := os.Getenv(LogLevelEnvVar)
	if levelStr == "" && logLevelGetter != nil {
		levelStr = logLevelGetter()
	}
	level := parseLogLevel(levelStr)
	if levelStr != "" && !isValidLogLevel(levelStr) {
		fmt.Fprintf(os.Stderr, "[subtree] Warning: invalid log level %q, defaulting to INFO\n", levelStr)
	}

	repoRoot, err := paths.RepoRoot()
	if err != nil {
		repoRoot = "."
	}

	logsPath := filepath.Join(repoRoot, paths.SubtreeLogsDir)
	if err := os.MkdirAll(logsPath, 0o750); err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFilePath := filepath.Join(logsPath, runID+".log")
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // runID validated above
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(logBufWriter, level)
	currentRunID = runID

	return nil
}

// Close flushes and closes the log file, if one is open. Safe to call
// multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	currentRunID = ""
}

func resetLogger() {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	currentRunID = ""
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func getRunID() string {
	mu.RLock()
	defer mu.RUnlock()
	return currentRunID
}

func createLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isValidLogLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "":
		return true
	default:
		return false
	}
}

// Debug logs at DEBUG level with context values extracted automatically.
func Debug(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelDebug, msg, attrs...) }

// Info logs at INFO level with context values extracted automatically.
func Info(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelInfo, msg, attrs...) }

// Warn logs at WARN level with context values extracted automatically.
func Warn(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelWarn, msg, attrs...) }

// Error logs at ERROR level with context values extracted automatically.
func Error(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelError, msg, attrs...) }

// LogDuration logs msg with a duration_ms attribute computed from start.
// Intended for use with defer:
//
//	defer logging.LogDuration(ctx, slog.LevelInfo, "split completed", time.Now())
func LogDuration(ctx context.Context, level slog.Level, msg string, start time.Time, attrs ...any) {
	durationMs := time.Since(start).Milliseconds()
	allAttrs := make([]any, 0, len(attrs)+1)
	allAttrs = append(allAttrs, slog.Int64("duration_ms", durationMs))
	allAttrs = append(allAttrs, attrs...)
	log(ctx, level, msg, allAttrs...)
}

func log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := getLogger()

	var allAttrs []any
	globalRunID := getRunID()
	if globalRunID != "" {
		allAttrs = append(allAttrs, slog.String("run_id", globalRunID))
	}
	for _, a := range attrsFromContext(ctx, globalRunID) {
		allAttrs = append(allAttrs, a)
	}
	allAttrs = append(allAttrs, attrs...)

	//nolint:staticcheck // nil context is intentional: values were already extracted as attributes
	l.Log(nil, level, msg, allAttrs...)
}

func attrsFromContext(ctx context.Context, globalRunID string) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if globalRunID == "" {
		if s := RunIDFromContext(ctx); s != "" {
			attrs = append(attrs, slog.String("run_id", s))
		}
	}
	if s := ComponentFromContext(ctx); s != "" {
		attrs = append(attrs, slog.String("component", s))
	}
	return attrs
}
