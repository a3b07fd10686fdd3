package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultTimeFormat  = "15:04:05"
	defaultLogFileName = "stockscan.log"
	logFileMaxSize     = 10 * 1024 * 1024
	logFileMaxBackups  = 3
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger, creating a console logger on first use
// when InitLogger has not run.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	logger := globalLogger
	loggerMutex.RUnlock()
	if logger != nil {
		return logger
	}

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter(defaultTimeFormat))
	}
	return globalLogger
}

// InitLogger builds the global logger from the [logging] section.
// Outputs: "stdout"/"console" and "file". A file writer that cannot be
// created is skipped with a warning on stderr.
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}

	logger := arbor.NewLogger()

	if hasOutput(config.Logging.Output, "file") {
		path, err := logFilePath(config.Logging)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         path,
				TimeFormat:       timeFormat,
				MaxSize:          logFileMaxSize,
				MaxBackups:       logFileMaxBackups,
				TextOutput:       true,
				DisableTimestamp: false,
			})
		}
	}

	if hasOutput(config.Logging.Output, "stdout", "console") {
		logger = logger.WithConsoleWriter(consoleWriter(timeFormat))
	}

	logger = logger.WithLevelFromString(config.Logging.Level)
	globalLogger = logger

	return logger
}

func consoleWriter(timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       timeFormat,
		TextOutput:       true,
		DisableTimestamp: false,
	}
}

func hasOutput(outputs []string, names ...string) bool {
	for _, o := range outputs {
		for _, n := range names {
			if o == n {
				return true
			}
		}
	}
	return false
}

// logFilePath resolves and creates the logs directory and returns the log
// file path inside it.
func logFilePath(cfg LoggingConfig) (string, error) {
	dir := cfg.Dir
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to resolve executable path: %w", err)
		}
		dir = filepath.Join(filepath.Dir(execPath), "logs")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := cfg.FileName
	if name == "" {
		name = defaultLogFileName
	}
	return filepath.Join(dir, name), nil
}
