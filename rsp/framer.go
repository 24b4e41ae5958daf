package rsp

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/arloliu/go-rsp/logger"
)

// PacketHandler receives the outcomes of a Framer.
//
// The methods are called synchronously from Feed, on the goroutine that owns the Framer.
// A returned error aborts the current Feed call; the framer state has already been reset
// by then, so the Framer stays usable.
type PacketHandler interface {
	// HandlePacket is called with the payload of a packet whose checksum verified.
	// The slice is owned by the handler.
	HandlePacket(payload []byte) error

	// HandleInvalidPacket is called when a packet is dropped, either because its checksum
	// did not match (ErrChecksumMismatch) or because it exceeded the payload limit
	// (ErrPacketTooLarge). An oversized packet is reported once its checksum digits have
	// been read, so none of its bytes are seen as NAKs or packet starts.
	HandleInvalidPacket(err error) error

	// HandleNAK is called for every NAK byte seen between packets.
	HandleNAK() error
}

// FramerOption is a functional option for configuring a Framer.
type FramerOption func(*Framer)

// WithMaxPayloadSize limits the number of payload bytes accepted for a single packet.
// Zero, the default, means unlimited.
func WithMaxPayloadSize(n int) FramerOption {
	return func(f *Framer) {
		if n > 0 {
			f.maxPayloadSize = n
		}
	}
}

// WithFramerLogger sets the logger used for parse traces.
func WithFramerLogger(l logger.Logger) FramerOption {
	return func(f *Framer) {
		if l != nil {
			f.logger = l
		}
	}
}

// Framer extracts RSP packets from a byte stream.
//
// Input may be chunked arbitrarily; the parse state and both accumulators persist across
// Feed calls. A Framer is not safe for concurrent use.
type Framer struct {
	handler        PacketHandler
	logger         logger.Logger
	state          ParseState
	payload        []byte
	checksum       []byte
	maxPayloadSize int

	// dropping is set once the payload limit is exceeded; the rest of the packet,
	// up to its checksum digits, is discarded.
	dropping bool
}

// NewFramer creates a Framer reporting to h, starting in StateSearching.
func NewFramer(h PacketHandler, opts ...FramerOption) (*Framer, error) {
	if h == nil {
		return nil, ErrHandlerNil
	}

	f := &Framer{
		handler:  h,
		logger:   logger.GetLogger(),
		state:    StateSearching,
		payload:  make([]byte, 0, DefaultPacketSize),
		checksum: make([]byte, 0, ChecksumDigits),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// State returns the current parse state.
func (f *Framer) State() ParseState {
	return f.state
}

// Pending returns copies of the partially accumulated payload and checksum digits.
func (f *Framer) Pending() (payload []byte, checksum []byte) {
	return bytes.Clone(f.payload), bytes.Clone(f.checksum)
}

// Reset drops any partial packet and returns to StateSearching.
func (f *Framer) Reset() {
	f.state = StateSearching
	f.payload = f.payload[:0]
	f.checksum = f.checksum[:0]
	f.dropping = false
}

// Feed runs every byte of chunk through the state machine.
//
// It returns the first error reported by the PacketHandler; the remaining bytes of the
// chunk are not processed in that case.
func (f *Framer) Feed(chunk []byte) error {
	for i := 0; i < len(chunk); {
		consumed, err := f.step(chunk[i])
		if consumed {
			i++
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// step applies a single byte to the state machine. It reports whether the byte was
// consumed; an unconsumed byte is fed again in the new state.
func (f *Framer) step(b byte) (bool, error) {
	switch f.state {
	case StateSearching:
		switch b {
		case NAK:
			f.logger.Debug("rsp: retransmission requested")
			return true, f.handler.HandleNAK()
		case PacketStart:
			f.state = StateHeader
			return false, nil
		default:
			return true, nil
		}

	case StateHeader:
		f.state = StatePacketData
		return true, nil

	case StatePacketData:
		if b == ChecksumMark {
			f.state = StateChecksum
			return true, nil
		}

		if f.dropping {
			return true, nil
		}

		if f.maxPayloadSize > 0 && len(f.payload) >= f.maxPayloadSize {
			f.dropping = true
			f.logger.Warn("rsp: packet dropped, payload too large", "limit", f.maxPayloadSize)

			return true, nil
		}

		f.payload = append(f.payload, b)

		return true, nil

	case StateChecksum:
		if b == ChecksumMark {
			return true, nil
		}

		f.checksum = append(f.checksum, b)
		if len(f.checksum) < ChecksumDigits {
			return true, nil
		}

		if f.dropping {
			f.Reset()

			return true, f.handler.HandleInvalidPacket(
				fmt.Errorf("%w: limit %d bytes", ErrPacketTooLarge, f.maxPayloadSize))
		}

		return true, f.verify()

	default:
		f.Reset()
		return false, nil
	}
}

// verify checks the accumulated packet, resets the framer and reports the outcome.
func (f *Framer) verify() error {
	payload := bytes.Clone(f.payload)
	digits := string(f.checksum)
	f.Reset()

	expected := Checksum(payload)
	received, err := strconv.ParseUint(digits, 16, 8)
	if err != nil || uint8(received) != expected {
		f.logger.Debug("rsp: checksum failed", "expected", FormatChecksum(expected), "received", digits)

		return f.handler.HandleInvalidPacket(
			fmt.Errorf("%w: expected %s, got %q", ErrChecksumMismatch, FormatChecksum(expected), digits))
	}

	f.logger.Debug("rsp: packet deconstructed", "payload", string(payload))

	return f.handler.HandlePacket(payload)
}
