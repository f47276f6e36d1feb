// Package logs builds the zap loggers used across cliconfig.
package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"cliconfig-go/internal/config"
)

// Log levels accepted in LogConfig.Level
const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// ParseLevel maps a configured level to a zap level. zap has no trace level,
// so trace logs at debug.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case LogLevelTrace, LogLevelDebug:
		return zap.DebugLevel
	case LogLevelInfo:
		return zap.InfoLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// ResolveLogDir returns the directory log files are written to:
// LogConfig.LogDir when set, otherwise <dataDir>/logs.
func ResolveLogDir(logConfig *config.LogConfig, dataDir string) string {
	if logConfig != nil && logConfig.LogDir != "" {
		return logConfig.LogDir
	}
	return filepath.Join(dataDir, "logs")
}

// SetupLogger creates a logger with a console core on stderr and, when
// enabled, a rotating file core. With neither enabled it returns a no-op logger.
func SetupLogger(logConfig *config.LogConfig, dataDir string) (*zap.Logger, error) {
	if logConfig == nil {
		logConfig = config.DefaultLogConfig()
	}

	level := ParseLevel(logConfig.Level)
	var cores []zapcore.Core

	if logConfig.EnableConsole {
		cores = append(cores, createConsoleCore(level))
	}

	if logConfig.EnableFile {
		fileCore, err := createFileCore(logConfig, dataDir, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create file log core: %w", err)
		}
		cores = append(cores, fileCore)
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func createConsoleCore(level zapcore.Level) zapcore.Core {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
}

func createFileCore(logConfig *config.LogConfig, dataDir string, level zapcore.Level) (zapcore.Core, error) {
	logDir := ResolveLogDir(logConfig, dataDir)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, logConfig.Filename),
		MaxSize:    logConfig.MaxSize,
		MaxBackups: logConfig.MaxBackups,
		MaxAge:     logConfig.MaxAge,
		Compress:   logConfig.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if logConfig.JSONFormat {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	return zapcore.NewCore(encoder, zapcore.AddSync(writer), level), nil
}
