package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleMessageKeyConstant            = "message"
	consoleLevelKeyConstant              = "level"
)

// LogLevel is the configured verbosity name.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (level LogLevel) zapLevel() (zapcore.Level, error) {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, level)
	}
}

// LogFormat selects how diagnostic entries are encoded.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

func (format LogFormat) encoder() (zapcore.Encoder, error) {
	encoderConfiguration := zap.NewProductionEncoderConfig()
	switch format {
	case LogFormatStructured:
		return zapcore.NewJSONEncoder(encoderConfiguration), nil
	case LogFormatConsole:
		encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(encoderConfiguration), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, format)
	}
}

// LoggerOutputs bundles the loggers produced for one CLI invocation.
// Both loggers share Level, so raising it affects every output.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
	Level            zap.AtomicLevel
}

// LoggerFactory builds the loggers for one invocation. Every logger writes to the
// factory's destination, which is stderr unless overridden, keeping stdout for
// console progress lines.
type LoggerFactory struct {
	destination zapcore.WriteSyncer
}

// NewLoggerFactory constructs a factory writing to stderr.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithDestination(zapcore.Lock(os.Stderr))
}

// NewLoggerFactoryWithDestination constructs a factory writing to destination.
func NewLoggerFactoryWithDestination(destination zapcore.WriteSyncer) *LoggerFactory {
	return &LoggerFactory{destination: destination}
}

// CreateLoggerOutputs produces the diagnostic logger and the message-only console logger.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	zapLogLevel, levelError := requestedLogLevel.zapLevel()
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}
	diagnosticEncoder, formatError := requestedLogFormat.encoder()
	if formatError != nil {
		return LoggerOutputs{}, formatError
	}

	destination := factory.destination
	if destination == nil {
		destination = zapcore.Lock(os.Stderr)
	}
	sharedLevel := zap.NewAtomicLevelAt(zapLogLevel)

	diagnosticLogger := zap.New(
		zapcore.NewCore(diagnosticEncoder, destination, sharedLevel),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:  consoleMessageKeyConstant,
		LevelKey:    consoleLevelKeyConstant,
		EncodeLevel: zapcore.CapitalColorLevelEncoder,
		LineEnding:  zapcore.DefaultLineEnding,
	})
	consoleLogger := zap.New(zapcore.NewCore(consoleEncoder, destination, sharedLevel))

	return LoggerOutputs{
		DiagnosticLogger: diagnosticLogger,
		ConsoleLogger:    consoleLogger,
		Level:            sharedLevel,
	}, nil
}
