package gdbstub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/arloliu/go-rsp/logger"
)

var ignoreSIGPIPE sync.Once

// Listener is a TCP listener that hands out a single Transport.
type Listener struct {
	ln     *net.TCPListener
	cfg    *ConnectionConfig
	logger logger.Logger

	closeOnce sync.Once
}

// Listen binds the configured address with address and port reuse enabled.
//
// Failures wrap ErrSetupFailed.
func Listen(ctx context.Context, cfg *ConnectionConfig) (*Listener, error) {
	ignoreSIGPIPE.Do(func() {
		signal.Ignore(syscall.SIGPIPE)
	})

	lc := net.ListenConfig{Control: reuseAddrControl}

	ln, err := lc.Listen(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %w", ErrSetupFailed, cfg.Addr(), err)
	}

	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return nil, fmt.Errorf("%w: listen %s: not a TCP listener", ErrSetupFailed, cfg.Addr())
	}

	return &Listener{ln: tcpLn, cfg: cfg, logger: cfg.GetLogger()}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for one client, configures its socket and closes the listener; no further
// clients are accepted. It returns ctx.Err() if ctx is cancelled first.
//
// Other failures wrap ErrSetupFailed.
func (l *Listener) Accept(ctx context.Context) (*Transport, error) {
	defer func() { _ = l.Close() }()

	if d := l.cfg.AcceptTimeout(); d > 0 {
		if err := l.ln.SetDeadline(time.Now().Add(d)); err != nil {
			return nil, fmt.Errorf("%w: accept: %w", ErrSetupFailed, err)
		}
	}

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	conn, err := l.ln.AcceptTCP()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, fmt.Errorf("%w: accept: %w", ErrSetupFailed, err)
	}

	t, err := newTransport(conn, l.cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	l.logger.Debug("client accepted, listener closed", "remote_addr", conn.RemoteAddr().String())

	return t, nil
}

// Close closes the listener. It is safe to call more than once.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.ln.Close()
	})

	return err
}

// ListenAndAccept binds the configured address and blocks until one client connects.
func ListenAndAccept(ctx context.Context, cfg *ConnectionConfig) (*Transport, error) {
	l, err := Listen(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return l.Accept(ctx)
}

// Transport is the byte channel to the connected debugger.
//
// Send and Receive may be called from one goroutine each; Disconnect may be called from any.
type Transport struct {
	conn   net.Conn
	cfg    *ConnectionConfig
	logger logger.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// newTransport wraps conn. TCP connections get keep-alive and TCP_NODELAY enabled.
func newTransport(conn net.Conn, cfg *ConnectionConfig) (*Transport, error) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := configureTCPConn(tcpConn, cfg.KeepAlivePeriod()); err != nil {
			return nil, fmt.Errorf("%w: configure: %w", ErrSetupFailed, err)
		}
	}

	return &Transport{conn: conn, cfg: cfg, logger: cfg.GetLogger()}, nil
}

func configureTCPConn(conn *net.TCPConn, keepAlivePeriod time.Duration) error {
	if err := conn.SetKeepAlive(true); err != nil {
		return err
	}

	if keepAlivePeriod > 0 {
		if err := conn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return err
		}
	}

	return conn.SetNoDelay(true)
}

// RemoteAddr returns the debugger's address.
func (t *Transport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

// IsClosed reports whether Disconnect has been called.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Send writes all of data within the send timeout and returns the number of bytes written.
func (t *Transport) Send(data []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrConnClosed
	}

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.cfg.SendTimeout())); err != nil {
		return 0, t.wrapClosed(err)
	}

	written := 0
	for written < len(data) {
		n, err := t.conn.Write(data[written:])
		written += n

		if err != nil {
			return written, t.wrapClosed(err)
		}
	}

	return written, nil
}

// Receive reads at most len(buf) bytes within the receive timeout.
//
// A timeout is reported as a net.Error whose Timeout method returns true.
func (t *Transport) Receive(buf []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrConnClosed
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(t.cfg.RecvTimeout())); err != nil {
		return 0, t.wrapClosed(err)
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		return n, t.wrapClosed(err)
	}

	return n, nil
}

// Disconnect shuts down both directions and closes the socket. It is idempotent.
func (t *Transport) Disconnect() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)

		if hc, ok := t.conn.(interface {
			CloseRead() error
			CloseWrite() error
		}); ok {
			_ = hc.CloseRead()
			_ = hc.CloseWrite()
		}

		if err := t.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			t.closeErr = err
		}

		t.logger.Debug("transport disconnected", "remote_addr", t.conn.RemoteAddr().String())
	})

	return t.closeErr
}

// wrapClosed marks errors caused by a local Disconnect with ErrConnClosed.
func (t *Transport) wrapClosed(err error) error {
	if t.closed.Load() && !errors.Is(err, ErrConnClosed) {
		return fmt.Errorf("%w: %w", ErrConnClosed, err)
	}

	return err
}

func isTimeoutError(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnClosedError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrConnClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
