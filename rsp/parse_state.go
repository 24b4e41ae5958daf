package rsp

// ParseState is the position of a Framer within the packet grammar.
type ParseState uint8

const (
	// StateSearching discards bytes until a packet start. A NAK seen here requests
	// retransmission of the last reply.
	StateSearching ParseState = iota
	// StateHeader consumes the packet start byte.
	StateHeader
	// StatePacketData accumulates payload bytes until the checksum mark.
	StatePacketData
	// StateChecksum accumulates the two checksum digits.
	StateChecksum
)

// String returns string representation of the parse state.
func (s ParseState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateHeader:
		return "header"
	case StatePacketData:
		return "packet-data"
	case StateChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}
