package logger

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ZerologLogger is the zerolog implementation of Logger.
type ZerologLogger struct {
	logger zerolog.Logger
	level  *atomic.Int32
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerolog creates a Logger that writes zerolog JSON lines to w.
// A nil writer defaults to os.Stdout. Every entry carries a timestamp.
func NewZerolog(w io.Writer, level Level) Logger {
	if w == nil {
		w = os.Stdout
	}

	z := &ZerologLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		level:  &atomic.Int32{},
	}
	z.level.Store(int32(level))

	return z
}

// NewZerologConsole creates a Logger with zerolog's human friendly console writer.
func NewZerologConsole(w io.Writer, level Level) Logger {
	if w == nil {
		w = os.Stdout
	}

	return NewZerolog(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
}

func (z *ZerologLogger) Debug(msg string, keysAndValues ...any) {
	if z.enabled(DebugLevel) {
		z.logger.Debug().Fields(keysAndValues).Msg(msg)
	}
}

func (z *ZerologLogger) Info(msg string, keysAndValues ...any) {
	if z.enabled(InfoLevel) {
		z.logger.Info().Fields(keysAndValues).Msg(msg)
	}
}

func (z *ZerologLogger) Warn(msg string, keysAndValues ...any) {
	if z.enabled(WarnLevel) {
		z.logger.Warn().Fields(keysAndValues).Msg(msg)
	}
}

func (z *ZerologLogger) Error(msg string, keysAndValues ...any) {
	if z.enabled(ErrorLevel) {
		z.logger.Error().Fields(keysAndValues).Msg(msg)
	}
}

// Fatal writes the entry regardless of the configured level, then exits.
func (z *ZerologLogger) Fatal(msg string, keysAndValues ...any) {
	z.logger.WithLevel(zerolog.FatalLevel).Fields(keysAndValues).Msg(msg)
	os.Exit(1)
}

// With returns a child logger sharing the level of its parent.
func (z *ZerologLogger) With(keyValues ...any) Logger {
	return &ZerologLogger{
		logger: z.logger.With().Fields(keyValues).Logger(),
		level:  z.level,
	}
}

func (z *ZerologLogger) Level() Level {
	return Level(z.level.Load())
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.level.Store(int32(level))
}

func (z *ZerologLogger) enabled(level Level) bool {
	return level >= z.Level()
}
