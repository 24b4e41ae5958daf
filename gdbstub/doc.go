// Package gdbstub serves the GDB Remote Serial Protocol to a single debugger over TCP.
//
// A Server listens on the configured "host:port", accepts exactly one client, and then
// runs a session loop that feeds received bytes into an rsp.Framer. Verified packets are
// answered through an rsp.Dispatcher; corrupted packets are answered with a NAK ('-'),
// and a NAK from the debugger retransmits the last reply.
//
// Basic usage:
//
//	cfg, err := gdbstub.NewConnectionConfig("127.0.0.1:2345")
//	if err != nil {
//	    return err
//	}
//
//	srv := gdbstub.NewServer(cfg)
//	if err := srv.Serve(ctx); err != nil {
//	    return err
//	}
//
// Serve returns nil once the debugger detaches or Disconnect is called, and ctx.Err()
// when ctx is cancelled.
package gdbstub
