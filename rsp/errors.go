package rsp

import "errors"

var (
	// ErrChecksumMismatch indicates the checksum digits of a packet do not match its payload,
	// or are not valid hex digits.
	ErrChecksumMismatch = errors.New("rsp: checksum mismatch")

	// ErrPacketTooLarge indicates a payload grew beyond the framer's configured limit.
	ErrPacketTooLarge = errors.New("rsp: packet payload too large")

	// ErrHandlerNil indicates a Framer was created without a PacketHandler.
	ErrHandlerNil = errors.New("rsp: packet handler is nil")
)
