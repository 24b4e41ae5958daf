package gdbstub

import "errors"

var (
	// ErrSetupFailed indicates the listener could not be created, the client could not be
	// accepted, or the accepted socket could not be configured.
	ErrSetupFailed = errors.New("gdbstub: setup failed")

	// ErrInvalidAddress indicates a malformed "host:port" connect string.
	ErrInvalidAddress = errors.New("gdbstub: invalid address")

	// ErrConnClosed indicates an operation on a transport that has been disconnected.
	ErrConnClosed = errors.New("gdbstub: connection closed")

	// ErrAlreadyServing indicates Serve was called while a previous call is still running.
	ErrAlreadyServing = errors.New("gdbstub: server already serving")

	// ErrInvalidTransition indicates a connection state change that the lifecycle does not allow.
	ErrInvalidTransition = errors.New("gdbstub: invalid state transition")
)
