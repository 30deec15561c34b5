package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var defaultLogger *logrus.Logger

// Init configures the default logger from the resolved settings. The TUI
// owns stdout, so all output goes to the log file; stderr is used only
// when no file was configured.
func Init(level, logFile string, persist bool) error {
	log := logrus.New()
	log.SetLevel(parseLevel(level))
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if logFile != "" {
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if !persist {
			flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		}

		file, err := os.OpenFile(logFile, flags, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(file)
	} else {
		log.SetOutput(os.Stderr)
	}

	defaultLogger = log
	return nil
}

func parseLevel(levelStr string) logrus.Level {
	switch levelStr {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithComponent returns an entry tagged with the originating component.
func WithComponent(name string) *logrus.Entry {
	return get().WithField("component", name)
}

// SetOutput redirects the default logger, useful in tests.
func SetOutput(w io.Writer) {
	get().SetOutput(w)
}

func get() *logrus.Logger {
	if defaultLogger == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		defaultLogger = log
	}
	return defaultLogger
}

// Package-level convenience functions using the default logger.

func Debug(args ...interface{}) {
	get().Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

func Info(args ...interface{}) {
	get().Info(args...)
}

func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

func Warn(args ...interface{}) {
	get().Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

func Error(args ...interface{}) {
	get().Error(args...)
}

func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}
