// Package logger is the process-wide logger. It is a no-op until Init is called.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger = zap.NewNop()
	sugar        = globalLogger.Sugar()
	logFile      *os.File
	mu           sync.Mutex
)

// Config selects log destinations.
type Config struct {
	Level   string // debug, info, warn, error
	File    string // JSON log file; empty disables
	Console bool   // human-readable lines on stdout
}

// Init initializes the global logger.
func Init(cfg Config) error {
	return InitWithWriter(cfg, nil)
}

// InitWithWriter is like Init but writes console lines to w instead of stdout.
func InitWithWriter(cfg Config, w io.Writer) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
		}
		level = parsed
	}

	mu.Lock()
	defer mu.Unlock()

	closeFileLocked()

	var cores []zapcore.Core

	if cfg.Console {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		out := zapcore.AddSync(os.Stdout)
		if w != nil {
			out = zapcore.AddSync(w)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, level))
	}

	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		logFile = f

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		globalLogger = zap.NewNop()
	} else {
		globalLogger = zap.New(zapcore.NewTee(cores...))
	}
	sugar = globalLogger.Sugar()
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = globalLogger.Sync()
	closeFileLocked()
	globalLogger = zap.NewNop()
	sugar = globalLogger.Sugar()
}

func closeFileLocked() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
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
