//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package gdbstub

import "syscall"

// reuseAddrControl leaves the listening socket options at the platform defaults.
func reuseAddrControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
