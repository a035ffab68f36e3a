// Package logging provides pre-configured logrus loggers for quickspell
// components. Loggers write to a per-day file in the platform data directory
// and, depending on terminal state, to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/quickspell/core/pkg/paths"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	// configured holds the logging config applied to loggers created after
	// Configure is called. Loggers created earlier keep their settings.
	configured   Config
	configuredMu sync.Mutex
)

// Configure sets the logging configuration used for subsequently created
// component loggers. Typically called once at startup from the loaded config.
func Configure(cfg Config) {
	configuredMu.Lock()
	defer configuredMu.Unlock()
	configured = cfg
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	configuredMu.Lock()
	logCfg := configured
	configuredMu.Unlock()

	logger := logrus.New()

	// Configure Level
	levelStr := "info"
	if os.Getenv("QUICKSPELL_LOG_LEVEL") != "" {
		levelStr = os.Getenv("QUICKSPELL_LOG_LEVEL")
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("QUICKSPELL_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	// Configure Formatter
	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	// Configure Output Sinks
	var writers []io.Writer

	logFilePath := logCfg.File.Path
	if logFilePath != "" {
		logFilePath = expandPath(logFilePath)
	} else {
		if dataDir := paths.DataDir(); dataDir != "" {
			dateStr := time.Now().Format("2006-01-02")
			logFilePath = filepath.Join(dataDir, fmt.Sprintf("quickspell-%s.log", dateStr))
		}
	}

	if logFilePath != "" {
		dir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(dir, 0755); err == nil {
			file, ferr := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if ferr == nil {
				writers = append(writers, file)
			} else if logCfg.File.Enabled {
				logger.Warnf("Failed to open log file %s: %v", logFilePath, ferr)
			}
		} else if logCfg.File.Enabled {
			logger.Warnf("Failed to create log directory %s: %v", dir, err)
		}
	}

	// Mirror to stderr per config: "always", "never", or "auto". Auto keeps
	// interactive terminals quiet unless debugging.
	shouldLogToStderr := false
	stderrMode := "auto"
	if logCfg.Format.StructuredToStderr != "" {
		stderrMode = logCfg.Format.StructuredToStderr
	}
	switch stderrMode {
	case "always":
		shouldLogToStderr = true
	case "never":
		shouldLogToStderr = false
	case "auto":
		isDebug := os.Getenv("QUICKSPELL_DEBUG") == "1" || logger.GetLevel() == logrus.DebugLevel
		isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		if isDebug || !isInteractive {
			shouldLogToStderr = true
		}
	}
	if shouldLogToStderr {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
