package cmd

import (
	"fmt"
	"net"
	"strconv"
)

// validateAddr checks that addr is a host:port pair with a usable port.
// An empty host (":8100") binds all interfaces and is allowed.
func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("expected host:port: %w", err)
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port %q is not a number", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range [1, 65535]", n)
	}
	return nil
}
