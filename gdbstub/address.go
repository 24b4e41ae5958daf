package gdbstub

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAddress splits a "host:port" connect string on its first ':'.
//
// The host must be non-empty and the port a decimal number in [0, 65535]; port 0 binds
// an ephemeral port. Failures wrap ErrInvalidAddress.
func ParseAddress(address string) (string, int, error) {
	host, portStr, found := strings.Cut(address, ":")
	if !found {
		return "", 0, fmt.Errorf("%w: %q has no port", ErrInvalidAddress, address)
	}

	if host == "" {
		return "", 0, fmt.Errorf("%w: %q has no host", ErrInvalidAddress, address)
	}

	if portStr == "" {
		return "", 0, fmt.Errorf("%w: %q has no port", ErrInvalidAddress, address)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: port %q is not a number", ErrInvalidAddress, portStr)
	}

	if port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: port %d out of range [0, 65535]", ErrInvalidAddress, port)
	}

	return host, port, nil
}
