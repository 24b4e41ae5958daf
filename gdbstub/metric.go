package gdbstub

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for a gdbstub server.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// BytesSentCount indicates the number of bytes written to the debugger.
	BytesSentCount atomic.Uint64
	// BytesRecvCount indicates the number of bytes read from the debugger.
	BytesRecvCount atomic.Uint64

	// PacketRecvCount indicates the number of packets that passed checksum verification.
	PacketRecvCount atomic.Uint64
	// ReplySendCount indicates the number of replies sent.
	ReplySendCount atomic.Uint64
	// NAKSendCount indicates the number of NAKs sent for corrupted packets.
	NAKSendCount atomic.Uint64
	// RetransmitCount indicates the number of replies resent after a NAK from the debugger.
	RetransmitCount atomic.Uint64
	// ChecksumErrCount indicates the number of packets failing checksum verification.
	ChecksumErrCount atomic.Uint64
	// PacketDropCount indicates the number of packets dropped for exceeding the payload limit.
	PacketDropCount atomic.Uint64

	// SessionCount indicates the number of debugger sessions accepted.
	SessionCount atomic.Uint32
}

func (m *ConnectionMetrics) addBytesSent(n int) {
	if n > 0 {
		m.BytesSentCount.Add(uint64(n))
	}
}

func (m *ConnectionMetrics) addBytesRecv(n int) {
	if n > 0 {
		m.BytesRecvCount.Add(uint64(n))
	}
}

func (m *ConnectionMetrics) incPacketRecvCount() {
	m.PacketRecvCount.Add(1)
}

func (m *ConnectionMetrics) incReplySendCount() {
	m.ReplySendCount.Add(1)
}

func (m *ConnectionMetrics) incNAKSendCount() {
	m.NAKSendCount.Add(1)
}

func (m *ConnectionMetrics) incRetransmitCount() {
	m.RetransmitCount.Add(1)
}

func (m *ConnectionMetrics) incChecksumErrCount() {
	m.ChecksumErrCount.Add(1)
}

func (m *ConnectionMetrics) incPacketDropCount() {
	m.PacketDropCount.Add(1)
}

func (m *ConnectionMetrics) incSessionCount() {
	m.SessionCount.Add(1)
}
