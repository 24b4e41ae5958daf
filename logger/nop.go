package logger

import (
	"os"
	"sync/atomic"
)

// NopLogger discards every entry. Fatal still exits the process.
type NopLogger struct {
	level atomic.Int32
}

var _ Logger = (*NopLogger)(nil)

// NewNop returns a Logger that writes nothing.
func NewNop() Logger {
	return &NopLogger{}
}

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

func (*NopLogger) Fatal(string, ...any) {
	os.Exit(1)
}

func (n *NopLogger) With(...any) Logger { return n }

func (n *NopLogger) Level() Level { return Level(n.level.Load()) }

func (n *NopLogger) SetLevel(level Level) { n.level.Store(int32(level)) }
