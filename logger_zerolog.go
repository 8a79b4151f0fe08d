package mqttv3

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
	level  LogLevel
}

// NewZerologLogger creates a JSON logger writing to w (stderr when nil).
func NewZerologLogger(w io.Writer, level LogLevel) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}
	return WrapZerolog(zerolog.New(w).With().Timestamp().Logger(), level)
}

// WrapZerolog adapts an existing zerolog logger.
func WrapZerolog(l zerolog.Logger, level LogLevel) *ZerologLogger {
	return &ZerologLogger{
		logger: l.Level(zerologLevel(level)),
		level:  level,
	}
}

func (z *ZerologLogger) Debug(msg string, fields LogFields) {
	z.logger.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (z *ZerologLogger) Info(msg string, fields LogFields) {
	z.logger.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (z *ZerologLogger) Warn(msg string, fields LogFields) {
	z.logger.Warn().Fields(map[string]any(fields)).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields LogFields) {
	z.logger.Error().Fields(map[string]any(fields)).Msg(msg)
}

// WithFields returns a new logger with the given fields added.
func (z *ZerologLogger) WithFields(fields LogFields) Logger {
	return &ZerologLogger{
		logger: z.logger.With().Fields(map[string]any(fields)).Logger(),
		level:  z.level,
	}
}

// Level returns the current log level.
func (z *ZerologLogger) Level() LogLevel {
	return z.level
}

// SetLevel sets the log level.
func (z *ZerologLogger) SetLevel(level LogLevel) {
	z.level = level
	z.logger = z.logger.Level(zerologLevel(level))
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}
