// Package log is the process-wide zap logger. Under GitHub Actions it drops
// timestamps, which the runner adds itself, and writes debug entries as
// ::debug:: workflow commands.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel is a verbosity accepted by --log-level and PRVOYAGER_LOG_LEVEL.
type LogLevel string

const (
	// LevelDebug adds per-package rewrite and npmrc details.
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	// LevelProgress is the default. It logs at info like LevelInfo.
	LevelProgress LogLevel = "progress"
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
)

// Output formats understood by Init.
const (
	FormatConsole = "console"
	FormatPlain   = "plain"
	// FormatActions is plain output without timestamps; debug entries become
	// ::debug:: commands, shown only when the workflow enables debug logging.
	FormatActions = "actions"
)

// Redactor masks secrets in rendered log lines.
type Redactor interface {
	Redact(string) string
}

var (
	globalLogger *zap.SugaredLogger
	globalMutex  sync.RWMutex
)

// Config selects level, format and destination.
type Config struct {
	Level LogLevel
	// Format is "console" (colored levels) or "plain".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// Redactor, when set, is applied to every line before it is written.
	Redactor Redactor
}

// DefaultConfig logs run steps in color to stdout.
func DefaultConfig() Config {
	return Config{
		Level:  LevelProgress,
		Format: FormatConsole,
	}
}

// ParseLevel converts a flag or env value into a LogLevel.
func ParseLevel(value string) (LogLevel, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return LevelProgress, nil
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelProgress:
		return LevelProgress, nil
	case LevelWarn, "warning", "minimal":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q (expected debug, info, progress, warn or error)", value)
	}
}

// Init replaces the global logger.
func Init(cfg Config) error {
	switch cfg.Format {
	case "", FormatConsole, FormatPlain, FormatActions:
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	logger := createLogger(cfg)

	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalLogger = logger
	return nil
}

// mapLevelToZapLevel maps our log level to a zap level. The boolean is false
// for levels we do not know, which fall back to info.
func mapLevelToZapLevel(level LogLevel) (zapcore.Level, bool) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, true
	case LevelInfo, LevelProgress:
		return zapcore.InfoLevel, true
	case LevelWarn:
		return zapcore.WarnLevel, true
	case LevelError:
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

func buildEncoderConfig(format string) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "M",
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	switch format {
	case FormatPlain:
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	case FormatActions:
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.TimeKey = zapcore.OmitKey
	}
	return cfg
}

// debugCommandCore writes entries as ::debug:: workflow commands.
type debugCommandCore struct {
	zapcore.Core
}

func (c debugCommandCore) With(fields []zapcore.Field) zapcore.Core {
	return debugCommandCore{c.Core.With(fields)}
}

func (c debugCommandCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c debugCommandCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	e.Message = "::debug::" + e.Message
	return c.Core.Write(e, fields)
}

// redactingWriter masks each encoded entry; zap hands one entry per Write.
type redactingWriter struct {
	out      io.Writer
	redactor Redactor
}

func (w redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.out, w.redactor.Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Get returns the global logger, initializing it with DefaultConfig if needed.
func Get() *zap.SugaredLogger {
	globalMutex.RLock()
	logger := globalLogger
	globalMutex.RUnlock()

	if logger != nil {
		return logger
	}

	// Build outside the lock; Init takes the same lock.
	loggerToSet := createLogger(DefaultConfig())

	globalMutex.Lock()
	defer globalMutex.Unlock()
	if globalLogger != nil {
		return globalLogger
	}
	globalLogger = loggerToSet
	return globalLogger
}

func createLogger(cfg Config) *zap.SugaredLogger {
	zapLevel, _ := mapLevelToZapLevel(cfg.Level)

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Redactor != nil {
		out = redactingWriter{out: out, redactor: cfg.Redactor}
	}
	sink := zapcore.AddSync(out)

	encoder := zapcore.NewConsoleEncoder(buildEncoderConfig(cfg.Format))
	if cfg.Format != FormatActions {
		return zap.New(zapcore.NewCore(encoder, sink, zapLevel)).Sugar()
	}

	// Debug entries carry only the message and fields after the command.
	debugEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "M",
		LineEnding: zapcore.DefaultLineEnding,
	})
	debugOnly := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l == zapcore.DebugLevel && zapLevel.Enabled(l)
	})
	rest := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l > zapcore.DebugLevel && zapLevel.Enabled(l)
	})
	core := zapcore.NewTee(
		debugCommandCore{zapcore.NewCore(debugEncoder, sink, debugOnly)},
		zapcore.NewCore(encoder, sink, rest),
	)
	return zap.New(core).Sugar()
}

// Debug logs msg with key/value pairs at debug level.
func Debug(msg string, kv ...interface{}) {
	Get().Debugw(msg, kv...)
}

// Info logs msg with key/value pairs at info level.
func Info(msg string, kv ...interface{}) {
	Get().Infow(msg, kv...)
}

// Infof logs a formatted info message.
func Infof(template string, args ...interface{}) {
	Get().Infof(template, args...)
}

// Progress logs a run step. It shares the info level.
func Progress(msg string, kv ...interface{}) {
	Get().Infow(msg, kv...)
}

// Warn logs msg with key/value pairs at warn level.
func Warn(msg string, kv ...interface{}) {
	Get().Warnw(msg, kv...)
}

// Error logs msg with key/value pairs at error level.
func Error(msg string, kv ...interface{}) {
	Get().Errorw(msg, kv...)
}

// Sync flushes buffered entries.
func Sync() error {
	globalMutex.RLock()
	logger := globalLogger
	globalMutex.RUnlock()

	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// Reset drops the global logger so tests can Init again.
func Reset() {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
	globalLogger = nil
}
