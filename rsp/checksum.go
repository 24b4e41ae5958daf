package rsp

import "encoding/hex"

// Checksum returns the RSP checksum of payload: the sum of all byte values modulo 256.
func Checksum(payload []byte) uint8 {
	var sum uint8
	for _, b := range payload {
		sum += b
	}

	return sum
}

// FormatChecksum renders sum as exactly two lowercase hex digits.
func FormatChecksum(sum uint8) string {
	return hex.EncodeToString([]byte{sum})
}

// AppendChecksum returns payload followed by '#' and its two-digit checksum.
func AppendChecksum(payload string) string {
	return payload + string(ChecksumMark) + FormatChecksum(Checksum([]byte(payload)))
}

// Frame returns the complete wire form of a packet: $<payload>#<xx>.
func Frame(payload string) []byte {
	buf := make([]byte, 0, len(payload)+1+1+ChecksumDigits)
	buf = append(buf, PacketStart)
	buf = append(buf, AppendChecksum(payload)...)

	return buf
}
