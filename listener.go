package servlin

import (
	"net"

	"github.com/valyala/tcplisten"
)

// ListenConfig controls how a Server's listener is constructed.
type ListenConfig struct {
	// Addr is the address to listen on, e.g. "127.0.0.1:8080" or ":0" for
	// an OS-assigned port on every interface.
	Addr string

	// ReusePort, when true, sets SO_REUSEPORT on the listening socket via
	// tcplisten, letting multiple processes (or multiple Servers in the
	// same process) share one port with the kernel load-balancing
	// accepted connections across them.
	ReusePort bool
}

// listen builds a net.Listener per cfg.
func listen(cfg ListenConfig) (net.Listener, error) {
	if cfg.ReusePort {
		tc := tcplisten.Config{ReusePort: true}
		return tc.NewListener("tcp4", cfg.Addr)
	}
	return net.Listen("tcp", cfg.Addr)
}
