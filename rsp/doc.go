// Package rsp implements the protocol side of the GDB Remote Serial Protocol (RSP):
// packet checksums, an incremental packet framer and a minimal command dispatcher.
//
// Nothing in this package touches the network; the gdbstub package wires these pieces to
// a TCP connection.
//
// # Wire Format
//
// A packet travels as
//
//	$<payload>#<xx>
//
// where xx is the modulo-256 sum of the payload bytes, rendered as two lowercase hex
// digits. The receiver acknowledges a good packet with '+' and requests retransmission
// of the last reply with '-'. Replies sent by a stub are therefore prefixed with '+':
//
//	+$S05#b8
//
// # Framing
//
// [Framer] consumes arbitrarily chunked input one byte at a time through an explicit
// state machine (Searching, Header, PacketData, Checksum). State and accumulators live
// in the Framer, so a packet split over several network reads reassembles exactly as if
// it had arrived in one piece. Outcomes are reported to a [PacketHandler].
//
// # Dispatch
//
// [Dispatcher] maps a verified payload to a reply payload. Only a handful of queries are
// answered (qSupported, ?, and optionally g); everything else gets the empty
// "unsupported" reply, per the RSP convention.
package rsp

// RSP framing and control bytes.
const (
	// PacketStart marks the beginning of a packet.
	PacketStart byte = '$'
	// ChecksumMark separates the payload from the checksum digits.
	ChecksumMark byte = '#'
	// ACK acknowledges a correctly received packet.
	ACK byte = '+'
	// NAK requests retransmission of the last packet.
	NAK byte = '-'
)

// ChecksumDigits is the number of hex digits following ChecksumMark.
const ChecksumDigits = 2

// DefaultPacketSize is the maximum packet size advertised in the qSupported reply.
const DefaultPacketSize = 512
