package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/killallgit/deckchat/pkg/config"
	"github.com/sirupsen/logrus"
)

// Logger provides a unified logging interface
type Logger struct {
	entry       *logrus.Logger
	file        *os.File
	initialized bool
}

// ComponentLogger tags every entry with the component that produced it.
// Arguments after the message are key/value pairs.
type ComponentLogger struct {
	component string
}

var defaultLogger *Logger

// Init initializes the logger with configuration from global config
func Init() error {
	if defaultLogger != nil && defaultLogger.initialized {
		return nil // Already initialized
	}

	settings := config.Get()
	logger, err := New(settings.Logging.Level, settings.Logging.Format, settings.Logging.LogFile, settings.Logging.Preserve)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defaultLogger = logger
	return nil
}

// New creates a new Logger instance writing to logFile
func New(level, format, logFile string, preserve bool) (*Logger, error) {
	logPath := logFile
	if !filepath.IsAbs(logPath) {
		logPath = config.BuildSettingsPath(filepath.Base(logPath))
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if preserve {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(logPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWithWriter(level, format, file)
	l.file = file
	return l, nil
}

// NewWithWriter creates a Logger writing to w
func NewWithWriter(level, format string, w io.Writer) *Logger {
	log := logrus.New()
	log.SetLevel(parseLevel(level))
	log.SetOutput(w)

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
		})
	}

	return &Logger{
		entry:       log,
		initialized: true,
	}
}

// SetDefault replaces the package-level logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// parseLevel converts a string level to a logrus level
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
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Package-level convenience functions using the default logger

// Debug logs a debug message using the default logger
func Debug(format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.Debug(format, args...)
}

// Info logs an info message using the default logger
func Info(format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.Info(format, args...)
}

// Warn logs a warning message using the default logger
func Warn(format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.Warn(format, args...)
}

// Error logs an error message using the default logger
func Error(format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.Error(format, args...)
}

// SetOutput sets the output writer for the logger (useful for testing)
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.entry.SetOutput(w)
	}
}

// Close closes the default logger
func Close() error {
	if defaultLogger != nil {
		return defaultLogger.Close()
	}
	return nil
}

// WithComponent returns a logger that tags entries with component
func WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{component: component}
}

func (c *ComponentLogger) fields(kv []any) logrus.Fields {
	fields := logrus.Fields{"component": c.component}
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			fields[key] = "(MISSING)"
			break
		}
		if err, ok := kv[i+1].(error); ok {
			fields[key] = err.Error()
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

func (c *ComponentLogger) log(level logrus.Level, msg string, kv []any) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.entry.WithFields(c.fields(kv)).Log(level, msg)
}

// Debug logs msg at debug level
func (c *ComponentLogger) Debug(msg string, kv ...any) { c.log(logrus.DebugLevel, msg, kv) }

// Info logs msg at info level
func (c *ComponentLogger) Info(msg string, kv ...any) { c.log(logrus.InfoLevel, msg, kv) }

// Warn logs msg at warn level
func (c *ComponentLogger) Warn(msg string, kv ...any) { c.log(logrus.WarnLevel, msg, kv) }

// Error logs msg at error level
func (c *ComponentLogger) Error(msg string, kv ...any) { c.log(logrus.ErrorLevel, msg, kv) }
