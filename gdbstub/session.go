package gdbstub

import (
	"errors"

	"github.com/google/uuid"

	"github.com/arloliu/go-rsp/logger"
	"github.com/arloliu/go-rsp/rsp"
)

// Session is the state of one debugger connection: its transport, the framer
// reassembling packets from the byte stream, and the last reply sent.
//
// A Session implements rsp.PacketHandler. It is not safe for concurrent use;
// the session loop owns it.
type Session struct {
	id         uuid.UUID
	transport  *Transport
	framer     *rsp.Framer
	dispatcher *rsp.Dispatcher
	metrics    *ConnectionMetrics
	logger     logger.Logger

	buf       []byte
	lastReply []byte
}

var _ rsp.PacketHandler = (*Session)(nil)

// nakFrame is sent, alone, when a packet fails verification.
var nakFrame = []byte{rsp.NAK}

func newSession(t *Transport, cfg *ConnectionConfig, metrics *ConnectionMetrics) (*Session, error) {
	id := uuid.New()

	s := &Session{
		id:         id,
		transport:  t,
		dispatcher: cfg.Dispatcher(),
		metrics:    metrics,
		logger:     cfg.GetLogger().With("session_id", id.String()),
		buf:        make([]byte, cfg.RecvBufferSize()),
	}

	framer, err := rsp.NewFramer(s,
		rsp.WithMaxPayloadSize(cfg.MaxPayloadSize()),
		rsp.WithFramerLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	s.framer = framer

	return s, nil
}

// ID returns the session identifier used in log records.
func (s *Session) ID() string {
	return s.id.String()
}

// LastReply returns a copy of the bytes of the last reply sent, or nil before the first reply.
func (s *Session) LastReply() []byte {
	if s.lastReply == nil {
		return nil
	}

	out := make([]byte, len(s.lastReply))
	copy(out, s.lastReply)

	return out
}

// poll performs one receive and feeds the bytes to the framer. It returns false once the
// session is over: the peer closed the connection, the transport was disconnected, or a
// reply could not be sent.
func (s *Session) poll() bool {
	clear(s.buf)

	n, err := s.transport.Receive(s.buf)
	if n > 0 {
		s.metrics.addBytesRecv(n)
		s.logger.Debug("bytes received", "count", n, "data", string(s.buf[:n]))

		if ferr := s.framer.Feed(s.buf[:n]); ferr != nil {
			s.logger.Error("failed to answer debugger", "error", ferr)
			return false
		}
	}

	switch {
	case err == nil:
		if n == 0 {
			s.logger.Debug("zero-length receive, ending session")
			return false
		}

		return true

	case isConnClosedError(err):
		s.logger.Debug("connection closed", "error", err)
		return false

	case isTimeoutError(err):
		return true

	default:
		s.logger.Warn("receive failed", "error", err)
		return false
	}
}

// HandlePacket implements rsp.PacketHandler. It sends the acknowledged reply followed by a
// NUL byte and records it for retransmission.
func (s *Session) HandlePacket(payload []byte) error {
	s.metrics.incPacketRecvCount()

	reply := s.dispatcher.BuildReply(string(payload))
	s.logger.Debug("packet dispatched", "payload", string(payload), "reply", string(reply))

	return s.reply(reply)
}

// HandleInvalidPacket implements rsp.PacketHandler.
//
// A checksum failure is answered with a single NAK byte so the debugger resends the packet.
// An oversized packet is acknowledged with an error reply instead, since resending it
// would fail the same way.
func (s *Session) HandleInvalidPacket(err error) error {
	if errors.Is(err, rsp.ErrPacketTooLarge) {
		s.metrics.incPacketDropCount()
		s.logger.Warn("packet dropped", "error", err)

		return s.reply(append([]byte{rsp.ACK}, rsp.Frame(rsp.ReplyError)...))
	}

	s.metrics.incChecksumErrCount()
	s.logger.Debug("packet rejected", "error", err)

	if err := s.send(nakFrame); err != nil {
		return err
	}
	s.metrics.incNAKSendCount()

	return nil
}

// HandleNAK implements rsp.PacketHandler. It resends the exact bytes of the last reply;
// before the first reply there is nothing to resend.
func (s *Session) HandleNAK() error {
	if s.lastReply == nil {
		s.logger.Debug("retransmission requested before any reply")
		return nil
	}

	if err := s.send(s.lastReply); err != nil {
		return err
	}
	s.metrics.incRetransmitCount()

	return nil
}

func (s *Session) reply(frame []byte) error {
	wire := make([]byte, 0, len(frame)+1)
	wire = append(wire, frame...)
	wire = append(wire, 0)

	s.lastReply = wire

	if err := s.send(wire); err != nil {
		return err
	}
	s.metrics.incReplySendCount()

	return nil
}

func (s *Session) send(data []byte) error {
	n, err := s.transport.Send(data)
	s.metrics.addBytesSent(n)

	if err != nil {
		s.logger.Debug("send failed", "sent", n, "size", len(data), "error", err)
		return err
	}

	s.logger.Debug("bytes sent", "count", n, "data", string(data))

	return nil
}
