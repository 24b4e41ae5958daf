package logger

import (
	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock implementing Logger.
//
// Log calls are recorded as (msg, keysAndValues) so tests can assert on trace lines:
//
//	m := logger.NewMockLogger()
//	m.On("Warn", "rsp: packet dropped, payload too large", mock.Anything).Return()
//
// Child loggers returned by With are the mock itself, so expectations set on the parent
// also cover records written through a session scoped logger.
type MockLogger struct {
	mock.Mock
}

var _ Logger = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Fatal(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

// SetLevel is a no-op; a MockLogger records every level.
func (m *MockLogger) SetLevel(Level) {}

func (m *MockLogger) Level() Level {
	return DebugLevel
}

func (m *MockLogger) With(...any) Logger {
	return m
}
