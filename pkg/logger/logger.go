// Package logger provides the process-wide leveled logger.
//
// Until Init is called every call is a no-op, so library code can log
// unconditionally.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelSilent disables all output.
const LevelSilent = "silent"

// silentLevel sits above every level the package logs at.
const silentLevel = zapcore.FatalLevel + 1

var (
	globalLogger = zap.NewNop().Sugar()
	level        = zap.NewAtomicLevelAt(zap.InfoLevel)
	logFile      *lumberjack.Logger
	mu           sync.Mutex
)

// Options configures Init.
type Options struct {
	Path       string    // Log file, JSON lines, rotated. Empty = no file.
	Level      string    // silent, error, warn, info, debug. Empty = info.
	Console    io.Writer // Human-readable output. Nil = none.
	MaxSizeMB  int       // Rotate after this many megabytes (default 10)
	MaxBackups int       // Rotated files to keep (default 3)
}

// ParseLevel maps a level name to a zap level. silent maps to a level no
// message reaches.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case LevelSilent:
		return silentLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Init initializes the global logger.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	level.SetLevel(lvl)

	var cores []zapcore.Core
	if opts.Console != nil {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(opts.Console), level))
	}

	if opts.Path != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		backups := opts.MaxBackups
		if backups <= 0 {
			backups = 3
		}
		logFile = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    maxSize,
			MaxBackups: backups,
		}
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(logFile), level))
	}

	if len(cores) == 0 {
		globalLogger = zap.NewNop().Sugar()
		return nil
	}
	globalLogger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

// SetLevel changes the level of an initialized logger. The outputs chosen
// by Init stay in place, so a silenced logger can be turned back on.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = globalLogger.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = zap.NewNop().Sugar()
}

// Named returns a child logger tagged with a context name, e.g. "scroll".
func Named(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger.Named(name)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	current().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	current().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

// GetWriter returns the underlying log file for tools that write raw output.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}
