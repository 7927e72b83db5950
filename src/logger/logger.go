package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"crypto-indices/src/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	baseMu sync.Mutex
	base   = newBase(nil)
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name  string
	entry *logrus.Entry
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance.
// A non-nil config reconfigures the shared backend (level, format, rotation);
// a nil config reuses whatever was configured last.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	baseMu.Lock()
	if cfg != nil {
		base = newBase(cfg)
	}
	b := base
	baseMu.Unlock()

	return &Logger{
		name:  name,
		entry: b.WithField("component", name),
	}
}

// -----------------------------------------------------------------------------

func newBase(cfg *models.MConfig) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg == nil {
		return l
	}

	if lvl, err := logrus.ParseLevel(normalizeLevel(cfg.LogLevel)); err == nil {
		l.SetLevel(lvl)
	}

	if strings.EqualFold(cfg.Logging.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Logging.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotating))
	}

	return l
}

// -----------------------------------------------------------------------------

// normalizeLevel maps the config spelling (WARNING, CRITICAL) to logrus levels.
func normalizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "WARNING":
		return "warn"
	case "CRITICAL":
		return "fatal"
	case "":
		return "info"
	}
	return strings.ToLower(level)
}

// -----------------------------------------------------------------------------

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// -----------------------------------------------------------------------------

// WithField returns a child logger carrying an extra structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{name: l.name, entry: l.entry.WithField(key, value)}
}

// -----------------------------------------------------------------------------

// Debug logs debugging messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}
