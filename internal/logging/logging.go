package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/audiomirror/audiomirror-go/internal/conf"
)

var structuredLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// handlerOptions returns slog handler options with custom level naming.
func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				levelLabel, exists := levelNames[level]
				if !exists {
					levelLabel = level.String()
				}
				a.Value = slog.StringValue(levelLabel)
			}
			return a
		},
	}
}

// Init initializes the logging system with a structured JSON logger writing
// to stdout and sets it as the application default.
func Init() {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions(slog.LevelInfo)))
	slog.SetDefault(structuredLogger)
}

// SetLevel sets the minimum logging level by re-initializing the handler.
func SetLevel(level slog.Level) {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions(level)))
	slog.SetDefault(structuredLogger)
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base.
// Returns nil if Init() has not been called.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return nil
	}
	return structuredLogger.With("service", serviceName)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// EnableFileOutput reconfigures the structured logger to write JSON logs to
// a rotating log file in addition to stdout, using lumberjack for rotation
// based on the given log configuration. It returns a function that closes
// the underlying log writer.
func EnableFileOutput(logConf conf.LogConfig, level slog.Level) (func() error, error) {
	if logConf.Path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}

	// Ensure the directory exists, lumberjack doesn't create directories
	logDir := filepath.Dir(logConf.Path)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := newRotatingWriter(logConf)

	structuredLogger = slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stdout, logWriter), handlerOptions(level)))
	slog.SetDefault(structuredLogger)

	return logWriter.Close, nil
}

// newRotatingWriter derives lumberjack rotation options from the log
// configuration.
func newRotatingWriter(logConf conf.LogConfig) *lumberjack.Logger {
	// Default values, overridden by config below
	maxSizeMB := 100
	maxBackups := 3
	maxAge := 28 // days

	configMaxSizeMB := int(logConf.MaxSize / (1024 * 1024))
	if configMaxSizeMB > 0 {
		maxSizeMB = configMaxSizeMB
	}

	switch logConf.Rotation {
	case conf.RotationDaily:
		maxAge = 1
		maxBackups = 30 // Keep up to 30 daily log files
	case conf.RotationWeekly:
		maxAge = 7
		maxBackups = 4 // Keep up to 4 weekly log files
	case conf.RotationSize:
		// Use maxSizeMB derived from config
	default:
		slog.Warn("Unknown log rotation type in config, using size-based defaults", "configuredType", logConf.Rotation)
	}

	return &lumberjack.Logger{
		Filename:   logConf.Path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   false,
	}
}
