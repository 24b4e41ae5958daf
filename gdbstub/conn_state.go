package gdbstub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-rsp/logger"
)

// ConnState represents the stages of a stub's lifecycle.
type ConnState uint32

// Connection states.
const (
	// DisconnectedState indicates no listener and no debugger session.
	DisconnectedState ConnState = iota
	// ListeningState indicates the listener is bound and waiting for a debugger.
	ListeningState
	// ConnectedState indicates a debugger session is running.
	ConnectedState
)

// IsDisconnected returns if the current state is disconnected.
func (cs ConnState) IsDisconnected() bool { return cs == DisconnectedState }

// IsListening returns if the current state is listening.
func (cs ConnState) IsListening() bool { return cs == ListeningState }

// IsConnected returns if the current state is connected.
func (cs ConnState) IsConnected() bool { return cs == ConnectedState }

// String returns string representation of the state.
func (cs ConnState) String() string {
	switch cs {
	case DisconnectedState:
		return "disconnected"
	case ListeningState:
		return "listening"
	case ConnectedState:
		return "connected"
	default:
		return "unknown"
	}
}

// ConnStateChangeHandler is invoked when the state of a server changes.
//
// Note: the handler is invoked synchronously while the state lock is held. It must not
// call WaitState, and long-running work should be moved to another goroutine.
type ConnStateChangeHandler func(srv *Server, prevState ConnState, newState ConnState)

// ConnStateMgr manages the connection state of a Server.
//
// The allowed transitions are Disconnected → Listening → Connected, and any state →
// Disconnected. State transitions are safe for concurrent use.
type ConnStateMgr struct {
	mu       sync.Mutex
	cond     *sync.Cond
	state    atomic.Uint32
	srv      *Server
	logger   logger.Logger
	handlers []ConnStateChangeHandler
}

// NewConnStateMgr creates a ConnStateMgr in DisconnectedState.
func NewConnStateMgr(srv *Server, l logger.Logger, handlers ...ConnStateChangeHandler) *ConnStateMgr {
	if l == nil {
		l = logger.GetLogger()
	}

	mgr := &ConnStateMgr{
		srv:      srv,
		logger:   l,
		handlers: make([]ConnStateChangeHandler, 0, len(handlers)),
	}
	mgr.cond = sync.NewCond(&mgr.mu)
	mgr.state.Store(uint32(DisconnectedState))
	mgr.AddHandler(handlers...)

	return mgr
}

// State returns the current state.
func (cs *ConnStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

// AddHandler adds one or more ConnStateChangeHandler functions to be invoked on state changes.
func (cs *ConnStateMgr) AddHandler(handlers ...ConnStateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			cs.handlers = append(cs.handlers, h)
		}
	}
}

// WaitState waits for the state to reach state or until ctx is done.
// It returns nil if the desired state is reached, or ctx.Err() otherwise.
func (cs *ConnStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.State() == state {
		return nil
	}

	stop := context.AfterFunc(ctx, func() {
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.cond.Broadcast()
	})
	defer stop()

	for cs.State() != state {
		if err := ctx.Err(); err != nil {
			cs.logger.Debug("wait connection state cancelled", "cur_state", cs.State(), "desired_state", state)
			return err
		}

		cs.cond.Wait()
	}

	return nil
}

// ToListening transitions DisconnectedState to ListeningState.
func (cs *ConnStateMgr) ToListening() error {
	return cs.transition(ListeningState, DisconnectedState)
}

// ToConnected transitions ListeningState to ConnectedState.
func (cs *ConnStateMgr) ToConnected() error {
	return cs.transition(ConnectedState, ListeningState)
}

// ToDisconnected transitions any state to DisconnectedState. It is a no-op when already disconnected.
func (cs *ConnStateMgr) ToDisconnected() {
	_ = cs.transition(DisconnectedState, ListeningState, ConnectedState)
}

func (cs *ConnStateMgr) transition(newState ConnState, from ...ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()
	if curState == newState {
		return nil
	}

	allowed := false
	for _, s := range from {
		if curState == s {
			allowed = true
			break
		}
	}

	if !allowed {
		return ErrInvalidTransition
	}

	cs.state.Store(uint32(newState))
	cs.cond.Broadcast()

	cs.logger.Debug("connection state changed", "prev_state", curState, "new_state", newState)

	for _, h := range cs.handlers {
		h(cs.srv, curState, newState)
	}

	return nil
}
