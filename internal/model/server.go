package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener a Server accepts on, plain or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server with a blocking Start and a bounded Stop.
// Start returns nil once Stop has been called.
type Server interface {
	Start(securityLayer SecurityLayer) error
	// Stop drains in-flight work until ctx expires.
	Stop(ctx context.Context) error
	Address() string
}
