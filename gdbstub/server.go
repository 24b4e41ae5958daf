package gdbstub

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-rsp/internal/pool"
	"github.com/arloliu/go-rsp/internal/task"
	"github.com/arloliu/go-rsp/logger"
	"github.com/arloliu/go-rsp/rsp"
)

// Server is a single-client GDB remote stub.
//
// Each call to Serve listens, accepts one debugger and runs its session to the end.
// Serve may be called again afterwards to wait for the next debugger.
type Server struct {
	cfg      *ConnectionConfig
	logger   logger.Logger
	stateMgr *ConnStateMgr
	metrics  ConnectionMetrics

	serving  atomic.Bool
	shutdown atomic.Bool

	mu        sync.Mutex // protects listener, transport and addr
	listener  *Listener
	transport *Transport
	addr      net.Addr
}

// NewServer creates a Server for cfg. Nothing is bound until Serve is called.
func NewServer(cfg *ConnectionConfig) *Server {
	srv := &Server{
		cfg:    cfg,
		logger: cfg.GetLogger(),
	}
	srv.stateMgr = NewConnStateMgr(srv, srv.logger)

	return srv
}

// Serve listens on the configured address, waits for one debugger and serves it until
// the debugger disconnects, Disconnect is called, or ctx is done.
//
// Setup failures are returned wrapped in ErrSetupFailed and leave the server
// disconnected. Serve returns nil when the session ends normally and ctx.Err() when
// ctx is cancelled.
func (srv *Server) Serve(ctx context.Context) error {
	if !srv.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}
	defer srv.serving.Store(false)

	srv.shutdown.Store(false)
	defer srv.stateMgr.ToDisconnected()

	ln, err := Listen(ctx, srv.cfg)
	if err != nil {
		srv.logger.Error("failed to listen", "address", srv.cfg.Addr(), "error", err)
		return err
	}

	if !srv.setListener(ln) {
		return nil
	}
	_ = srv.stateMgr.ToListening()

	srv.logger.Info("waiting for debugger", "address", ln.Addr().String())

	t, err := ln.Accept(ctx)
	srv.setListener(nil)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case srv.shutdown.Load():
			return nil
		}

		srv.logger.Error("failed to accept debugger", "address", ln.Addr().String(), "error", err)

		return err
	}

	return srv.serveSession(ctx, t)
}

func (srv *Server) serveSession(ctx context.Context, t *Transport) error {
	defer srv.setTransport(nil)
	defer func() { _ = t.Disconnect() }()

	sess, err := newSession(t, srv.cfg, &srv.metrics)
	if err != nil {
		srv.logger.Error("failed to create session", "error", err)
		return err
	}

	if !srv.setTransport(t) {
		return nil
	}

	srv.metrics.incSessionCount()
	_ = srv.stateMgr.ToConnected()

	srv.logger.Info("debugger connected", "remote_addr", t.RemoteAddr().String(), "session_id", sess.ID())

	stop := context.AfterFunc(ctx, func() { _ = t.Disconnect() })
	defer stop()

	taskMgr := task.NewManager(ctx, srv.logger)
	if err := taskMgr.Start("session", func() bool {
		return srv.sessionLoop(taskMgr.Context(), sess)
	}, nil); err != nil {
		return err
	}
	taskMgr.Wait()

	srv.logger.Info("debugger disconnected", "remote_addr", t.RemoteAddr().String(), "session_id", sess.ID())

	return ctx.Err()
}

// sessionLoop runs one iteration: receive, feed, then idle.
func (srv *Server) sessionLoop(ctx context.Context, sess *Session) bool {
	if srv.shutdown.Load() {
		return false
	}

	if !sess.poll() {
		return false
	}

	return pool.Sleep(ctx, srv.cfg.IdleInterval())
}

// Disconnect ends the current session, or stops waiting for a debugger. It is safe to
// call from any goroutine and is a no-op when the server is not serving.
func (srv *Server) Disconnect() {
	srv.shutdown.Store(true)

	srv.mu.Lock()
	ln, t := srv.listener, srv.transport
	srv.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	if t != nil {
		_ = t.Disconnect()
	}
}

// State returns the current connection state.
func (srv *Server) State() ConnState {
	return srv.stateMgr.State()
}

// WaitState waits until the server reaches state or ctx is done.
func (srv *Server) WaitState(ctx context.Context, state ConnState) error {
	return srv.stateMgr.WaitState(ctx, state)
}

// AddConnStateChangeHandler adds handlers invoked on every state change.
func (srv *Server) AddConnStateChangeHandler(handlers ...ConnStateChangeHandler) {
	srv.stateMgr.AddHandler(handlers...)
}

// Metrics returns the server's metrics, accumulated across sessions.
func (srv *Server) Metrics() *ConnectionMetrics {
	return &srv.metrics
}

// Dispatcher returns the command dispatcher, for registering custom handlers.
func (srv *Server) Dispatcher() *rsp.Dispatcher {
	return srv.cfg.Dispatcher()
}

// Addr returns the address most recently bound by Serve, or nil before the first Serve.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.addr
}

// setListener publishes ln for Disconnect. It reports false, closing ln, when a
// Disconnect arrived first.
func (srv *Server) setListener(ln *Listener) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.listener = ln
	if ln == nil {
		return true
	}

	srv.addr = ln.Addr()

	if srv.shutdown.Load() {
		srv.listener = nil
		_ = ln.Close()

		return false
	}

	return true
}

// setTransport publishes t for Disconnect. It reports false when a Disconnect arrived first.
func (srv *Server) setTransport(t *Transport) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.transport = t

	if t != nil && srv.shutdown.Load() {
		srv.transport = nil
		return false
	}

	return true
}
