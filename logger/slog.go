package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/phsym/console-slog"
)

// SlogLogger is the log/slog implementation of Logger.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var _ Logger = (*SlogLogger)(nil)

// NewSlog creates a JSON Logger writing to stdout.
func NewSlog(level Level, addSource bool) Logger {
	return NewSlogJSON(os.Stdout, level, addSource)
}

// NewSlogJSON creates a Logger writing one JSON object per record to w, with the time
// key renamed to "ts".
func NewSlogJSON(w io.Writer, level Level, addSource bool) Logger {
	lv := newSlogLevel(level)

	return &SlogLogger{
		logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   addSource,
			Level:       lv,
			ReplaceAttr: renameTimeKey,
		})),
		level: lv,
	}
}

// NewSlogConsole creates a Logger with a human friendly console handler.
func NewSlogConsole(w io.Writer, level Level, color bool) Logger {
	lv := newSlogLevel(level)

	return &SlogLogger{
		logger: slog.New(console.NewHandler(w, &console.HandlerOptions{
			Level:   lv,
			NoColor: !color,
		})),
		level: lv,
	}
}

func newSlogLevel(level Level) *slog.LevelVar {
	lv := &slog.LevelVar{}
	lv.Set(toSlogLevel(level))

	return lv
}

func renameTimeKey(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "ts"
	}

	return a
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues...)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues...)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues...)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues...)
}

func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues...)
	os.Exit(1)
}

// With returns a child logger sharing the level of its parent.
func (l *SlogLogger) With(keyValues ...any) Logger {
	return &SlogLogger{logger: l.logger.With(keyValues...), level: l.level}
}

func (l *SlogLogger) Level() Level {
	switch lv := l.level.Level(); {
	case lv <= slog.LevelDebug:
		return DebugLevel
	case lv <= slog.LevelInfo:
		return InfoLevel
	case lv <= slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (l *SlogLogger) SetLevel(level Level) {
	l.level.Set(toSlogLevel(level))
}

// log must be called directly by an exported method; the source position is taken at a
// fixed call depth.
func (l *SlogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, log, exported method

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
