package gdbstubintegration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/go-rsp/gdbstub"
	"github.com/arloliu/go-rsp/logger"
	"github.com/arloliu/go-rsp/rsp"
)

const pcValue = 0x80000400

func newStub(t *testing.T, opts ...gdbstub.ConnOption) *gdbstub.Server {
	t.Helper()

	regs := rsp.NewStaticRegisters(rsp.MIPSRegisterLayout, map[string]uint32{"pc": pcValue})
	dispatcher := rsp.NewDispatcher(rsp.WithRegisters(rsp.MIPSRegisterLayout, regs))

	defaults := []gdbstub.ConnOption{
		gdbstub.WithDispatcher(dispatcher),
		gdbstub.WithRecvTimeout(gdbstub.MinIOTimeout),
		gdbstub.WithIdleInterval(time.Millisecond),
		gdbstub.WithLogger(logger.NewNop()),
	}

	cfg, err := gdbstub.NewConnectionConfig("127.0.0.1:0", append(defaults, opts...)...)
	require.NoError(t, err)

	return gdbstub.NewServer(cfg)
}

// runStub serves srv on an errgroup and returns the group once the stub is listening.
func runStub(ctx context.Context, t *testing.T, srv *gdbstub.Server) *errgroup.Group {
	t.Helper()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, srv.WaitState(waitCtx, gdbstub.ListeningState))

	return g
}

func TestStub_GDBHandshake(t *testing.T) {
	srv := newStub(t)
	g := runStub(context.Background(), t, srv)

	gdb := dialDebugger(t, srv.Addr().String())
	gdb.write([]byte{rsp.ACK})

	assert.Equal(t, "PacketSize=512",
		gdb.send("qSupported:multiprocess+;swbreak+;hwbreak+;qRelocInsn+;fork-events+;vfork-events+"))
	gdb.write([]byte{rsp.ACK})

	for _, unsupported := range []string{"vMustReplyEmpty", "QStartNoAckMode", "Hg0", "qTStatus", "qfThreadInfo", "qC", "qAttached"} {
		assert.Empty(t, gdb.send(unsupported), unsupported)
		gdb.write([]byte{rsp.ACK})
	}

	assert.Equal(t, "S05", gdb.send("?"))
	gdb.write([]byte{rsp.ACK})

	regs := gdb.send("g")
	require.Len(t, regs, rsp.MIPSRegisterLayout.Len()*8)
	pc := rsp.MIPSRegisterLayout.Index("pc")
	assert.Equal(t, "80000400", regs[pc*8:(pc+1)*8])
	gdb.write([]byte{rsp.ACK})

	assert.Empty(t, gdb.send("D"))
	require.NoError(t, gdb.conn.Close())

	require.NoError(t, g.Wait())
	assert.Equal(t, gdbstub.DisconnectedState, srv.State())
	assert.Equal(t, uint64(11), srv.Metrics().PacketRecvCount.Load())
}

func TestStub_NoisyLine(t *testing.T) {
	srv := newStub(t)
	g := runStub(context.Background(), t, srv)

	gdb := dialDebugger(t, srv.Addr().String())

	// a corrupted packet is NAKed and the resend succeeds
	gdb.sendCorrupted("?")
	assert.Equal(t, byte(rsp.NAK), gdb.readByte())
	assert.Equal(t, "S05", gdb.send("?"))

	// a lost reply is recovered with a NAK
	gdb.write([]byte{rsp.NAK})
	assert.Equal(t, "S05", gdb.readReply())

	// packets may arrive a byte at a time
	assert.Equal(t, "PacketSize=512", gdb.sendSplit("qSupported"))

	// line noise between packets is skipped
	gdb.write([]byte("\x03garbage"))
	assert.Equal(t, "S05", gdb.send("?"))

	srv.Disconnect()
	require.NoError(t, g.Wait())

	m := srv.Metrics()
	assert.Equal(t, uint64(1), m.ChecksumErrCount.Load())
	assert.Equal(t, uint64(1), m.NAKSendCount.Load())
	assert.Equal(t, uint64(1), m.RetransmitCount.Load())
	assert.Equal(t, uint64(3), m.PacketRecvCount.Load())
}

func TestStub_SingleClient(t *testing.T) {
	srv := newStub(t)
	g := runStub(context.Background(), t, srv)

	addr := srv.Addr().String()
	first := dialDebugger(t, addr)

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.WaitState(waitCtx, gdbstub.ConnectedState))

	// the listener is gone while a debugger is attached
	_, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err)

	assert.Equal(t, "S05", first.send("?"))

	srv.Disconnect()
	require.NoError(t, g.Wait())
}

func TestStub_ShutdownOnContextCancel(t *testing.T) {
	srv := newStub(t)

	ctx, cancel := context.WithCancel(context.Background())
	g := runStub(ctx, t, srv)

	gdb := dialDebugger(t, srv.Addr().String())
	assert.Equal(t, "S05", gdb.send("?"))

	cancel()
	assert.ErrorIs(t, g.Wait(), context.Canceled)
	assert.Equal(t, gdbstub.DisconnectedState, srv.State())
}
