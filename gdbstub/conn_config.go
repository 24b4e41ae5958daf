package gdbstub

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/arloliu/go-rsp/logger"
	"github.com/arloliu/go-rsp/rsp"
)

// Default values.
const (
	DefaultSendTimeout     = 3 * time.Second        // write deadline per Send
	DefaultRecvTimeout     = 3 * time.Second        // read deadline per Receive
	DefaultIdleInterval    = 100 * time.Millisecond // pause between loop iterations
	DefaultRecvBufferSize  = rsp.DefaultPacketSize
	DefaultKeepAlivePeriod = 15 * time.Second
)

// Range limits.
const (
	MinIOTimeout = 100 * time.Millisecond
	MaxIOTimeout = 60 * time.Second

	MaxIdleInterval = 1 * time.Second

	MinRecvBufferSize = 64
	MaxRecvBufferSize = 65536
)

// ConnectionConfig holds the configuration of a gdbstub Server.
type ConnectionConfig struct {
	host string
	port int

	sendTimeout     time.Duration
	recvTimeout     time.Duration
	idleInterval    time.Duration
	acceptTimeout   time.Duration // 0 waits forever
	keepAlivePeriod time.Duration // 0 keeps the OS default

	recvBufferSize int
	maxPayloadSize int // 0 is unlimited

	dispatcher *rsp.Dispatcher
	logger     logger.Logger
}

// NewConnectionConfig creates a configuration for a stub bound to address ("host:port").
//
// opts are functional options applied in order; see With* functions.
func NewConnectionConfig(address string, opts ...ConnOption) (*ConnectionConfig, error) {
	host, port, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	cfg := &ConnectionConfig{
		host:            host,
		port:            port,
		sendTimeout:     DefaultSendTimeout,
		recvTimeout:     DefaultRecvTimeout,
		idleInterval:    DefaultIdleInterval,
		keepAlivePeriod: DefaultKeepAlivePeriod,
		recvBufferSize:  DefaultRecvBufferSize,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.dispatcher == nil {
		cfg.dispatcher = rsp.NewDispatcher()
	}

	return cfg, nil
}

// Host returns the bind host.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the bind port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// Addr returns "host:port".
func (cfg *ConnectionConfig) Addr() string {
	return net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
}

// SendTimeout returns the write deadline applied to each Send.
func (cfg *ConnectionConfig) SendTimeout() time.Duration { return cfg.sendTimeout }

// RecvTimeout returns the read deadline applied to each Receive.
func (cfg *ConnectionConfig) RecvTimeout() time.Duration { return cfg.recvTimeout }

// IdleInterval returns the pause between session loop iterations.
func (cfg *ConnectionConfig) IdleInterval() time.Duration { return cfg.idleInterval }

// AcceptTimeout returns how long Serve waits for a debugger; 0 means no limit.
func (cfg *ConnectionConfig) AcceptTimeout() time.Duration { return cfg.acceptTimeout }

// KeepAlivePeriod returns the TCP keep-alive period; 0 means the OS default.
func (cfg *ConnectionConfig) KeepAlivePeriod() time.Duration { return cfg.keepAlivePeriod }

// RecvBufferSize returns the size of the receive buffer.
func (cfg *ConnectionConfig) RecvBufferSize() int { return cfg.recvBufferSize }

// MaxPayloadSize returns the framer payload limit; 0 means unlimited.
func (cfg *ConnectionConfig) MaxPayloadSize() int { return cfg.maxPayloadSize }

// Dispatcher returns the command dispatcher.
func (cfg *ConnectionConfig) Dispatcher() *rsp.Dispatcher { return cfg.dispatcher }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithSendTimeout sets the write deadline applied to each Send. Range: 100ms–60s.
func WithSendTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < MinIOTimeout || d > MaxIOTimeout {
			return fmt.Errorf("gdbstub: send timeout %v out of range [%v, %v]", d, MinIOTimeout, MaxIOTimeout)
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithRecvTimeout sets the read deadline applied to each Receive. Range: 100ms–60s.
//
// A receive timeout is not an error: the session loop simply polls again.
func WithRecvTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < MinIOTimeout || d > MaxIOTimeout {
			return fmt.Errorf("gdbstub: receive timeout %v out of range [%v, %v]", d, MinIOTimeout, MaxIOTimeout)
		}
		cfg.recvTimeout = d

		return nil
	})
}

// WithIdleInterval sets the pause between session loop iterations. Range: 0–1s.
func WithIdleInterval(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 || d > MaxIdleInterval {
			return fmt.Errorf("gdbstub: idle interval %v out of range [0, %v]", d, MaxIdleInterval)
		}
		cfg.idleInterval = d

		return nil
	})
}

// WithAcceptTimeout limits how long Serve waits for a debugger to connect. 0 waits forever.
func WithAcceptTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 {
			return errors.New("gdbstub: accept timeout must not be negative")
		}
		cfg.acceptTimeout = d

		return nil
	})
}

// WithKeepAlivePeriod sets the TCP keep-alive period of the accepted connection.
// 0 keeps the OS default period; keep-alive itself is always enabled.
func WithKeepAlivePeriod(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 {
			return errors.New("gdbstub: keep-alive period must not be negative")
		}
		cfg.keepAlivePeriod = d

		return nil
	})
}

// WithRecvBufferSize sets the receive buffer size. Range: 64–65536 bytes.
func WithRecvBufferSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < MinRecvBufferSize || n > MaxRecvBufferSize {
			return fmt.Errorf("gdbstub: receive buffer size %d out of range [%d, %d]",
				n, MinRecvBufferSize, MaxRecvBufferSize)
		}
		cfg.recvBufferSize = n

		return nil
	})
}

// WithMaxPayloadSize drops packets whose payload exceeds n bytes. 0 disables the limit.
func WithMaxPayloadSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 0 {
			return errors.New("gdbstub: max payload size must not be negative")
		}
		cfg.maxPayloadSize = n

		return nil
	})
}

// WithDispatcher sets the command dispatcher. A default rsp.Dispatcher is used otherwise.
func WithDispatcher(d *rsp.Dispatcher) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d == nil {
			return errors.New("gdbstub: dispatcher must not be nil")
		}
		cfg.dispatcher = d

		return nil
	})
}

// WithLogger sets the logger for the server.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("gdbstub: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
