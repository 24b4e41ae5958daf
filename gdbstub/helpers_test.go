package gdbstub

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-rsp/logger"
	"github.com/stretchr/testify/require"
)

const testTimeout = 3 * time.Second

// newTestConfig creates a ConnectionConfig bound to an ephemeral loopback port with
// short timeouts and a silent logger.
func newTestConfig(t *testing.T, opts ...ConnOption) *ConnectionConfig {
	t.Helper()

	defaults := []ConnOption{
		WithRecvTimeout(MinIOTimeout),
		WithSendTimeout(time.Second),
		WithIdleInterval(5 * time.Millisecond),
		WithLogger(logger.NewNop()),
	}

	cfg, err := NewConnectionConfig("127.0.0.1:0", append(defaults, opts...)...)
	require.NoError(t, err)

	return cfg
}

// newTestSession creates a Session over the local end of net.Pipe and returns the remote
// end for simulating the debugger.
func newTestSession(t *testing.T, cfg *ConnectionConfig) (*Session, *ConnectionMetrics, net.Conn) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	tr, err := newTransport(local, cfg)
	require.NoError(t, err)

	metrics := &ConnectionMetrics{}
	sess, err := newSession(tr, cfg, metrics)
	require.NoError(t, err)

	return sess, metrics, remote
}

// exchange writes in to the remote end while the session polls once, then reads exactly
// wantLen reply bytes. It returns the reply and the poll result.
func exchange(t *testing.T, sess *Session, remote net.Conn, in string, wantLen int) ([]byte, bool) {
	t.Helper()

	done := make(chan bool, 1)
	go func() { done <- sess.poll() }()

	mustWrite(t, remote, []byte(in))
	out := readExactly(t, remote, wantLen)

	select {
	case alive := <-done:
		return out, alive
	case <-time.After(testTimeout):
		t.Fatal("exchange: poll did not return")
		return nil, false
	}
}

// mustWrite writes data to w, failing the test on error.
func mustWrite(t *testing.T, w io.Writer, data []byte) {
	t.Helper()

	if _, err := w.Write(data); err != nil {
		t.Fatalf("mustWrite: %v", err)
	}
}

// readExactly reads exactly n bytes from conn, failing the test on error or timeout.
func readExactly(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(testTimeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("readExactly: %v", err)
	}

	return buf
}

// startServer runs srv.Serve in a goroutine and waits until it is listening.
// The returned channel receives Serve's result.
func startServer(ctx context.Context, t *testing.T, srv *Server) <-chan error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	waitCtx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, srv.WaitState(waitCtx, ListeningState))

	return errCh
}

// dialServer connects to a listening srv and waits for the session to start.
func dialServer(t *testing.T, srv *Server) net.Conn {
	t.Helper()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), testTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	waitCtx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, srv.WaitState(waitCtx, ConnectedState))

	return conn
}

// waitServe waits for the result of a Serve call started by startServer.
func waitServe(t *testing.T, errCh <-chan error) error {
	t.Helper()

	select {
	case err := <-errCh:
		return err
	case <-time.After(testTimeout):
		t.Fatal("Serve did not return")
		return nil
	}
}
