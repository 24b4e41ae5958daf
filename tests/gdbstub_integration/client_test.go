package gdbstubintegration

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-rsp/rsp"
	"github.com/stretchr/testify/require"
)

// debugger is a minimal RSP client speaking to the stub the way GDB does.
type debugger struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialDebugger(t *testing.T, addr string) *debugger {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &debugger{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (d *debugger) write(data []byte) {
	d.t.Helper()

	_ = d.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := d.conn.Write(data)
	require.NoError(d.t, err)
}

// send writes a framed packet and returns the verified reply payload.
func (d *debugger) send(payload string) string {
	d.t.Helper()

	d.write(rsp.Frame(payload))

	return d.readReply()
}

// readReply reads '+', $<payload>#<xx> and the trailing NUL, verifying the checksum.
func (d *debugger) readReply() string {
	d.t.Helper()

	_ = d.conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	ack, err := d.reader.ReadByte()
	require.NoError(d.t, err)
	require.Equal(d.t, byte(rsp.ACK), ack, "reply must be acknowledged")

	start, err := d.reader.ReadByte()
	require.NoError(d.t, err)
	require.Equal(d.t, byte(rsp.PacketStart), start)

	body, err := d.reader.ReadBytes(rsp.ChecksumMark)
	require.NoError(d.t, err)
	payload := body[:len(body)-1]

	digits := make([]byte, rsp.ChecksumDigits)
	_, err = io.ReadFull(d.reader, digits)
	require.NoError(d.t, err)
	nul, err := d.reader.ReadByte()
	require.NoError(d.t, err)
	require.Equal(d.t, byte(0), nul, "reply must be NUL terminated")

	require.Equal(d.t, rsp.FormatChecksum(rsp.Checksum(payload)), string(digits),
		"bad checksum on reply %q", payload)

	return string(payload)
}

// readByte reads one raw byte, such as a NAK.
func (d *debugger) readByte() byte {
	d.t.Helper()

	_ = d.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	b, err := d.reader.ReadByte()
	require.NoError(d.t, err)

	return b
}

// sendCorrupted sends payload with a checksum that does not match.
func (d *debugger) sendCorrupted(payload string) {
	d.t.Helper()

	bad := rsp.Checksum([]byte(payload)) + 1
	d.write([]byte(fmt.Sprintf("$%s#%s", payload, rsp.FormatChecksum(bad))))
}

// sendSplit writes a framed packet one byte at a time.
func (d *debugger) sendSplit(payload string) string {
	d.t.Helper()

	for _, b := range rsp.Frame(payload) {
		d.write([]byte{b})
	}

	return d.readReply()
}
