package servlin

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	// defaultMaxConns matches the original HttpServerBuilder's default.
	defaultMaxConns = 100

	// defaultSmallBodyLen matches the original's default small_body_len:
	// bodies up to this size are always read into memory.
	defaultSmallBodyLen = 64 * 1024

	// emfileBackoff is how long the accept loop sleeps after Accept fails
	// with EMFILE before trying again, giving the OS a chance to free up
	// file descriptors from connections that are finishing up.
	emfileBackoff = 500 * time.Millisecond
)

// Server binds a listener, an admission-control token pool, and a
// RequestHandler together. Configuration is plain exported fields with
// lazily-applied defaults (see the getters below), matching the teacher
// package's own Server configuration idiom rather than a chained builder.
type Server struct {
	// ListenAddr is passed to net.Listen (or tcplisten, if ReusePort is
	// set) when Serve is called.
	ListenAddr string
	ReusePort  bool

	// MaxConns bounds the number of connections served concurrently. Zero
	// means defaultMaxConns.
	MaxConns int

	// SmallBodyLen bounds, in bytes, how large a request body can be
	// while still being read straight into memory by the default
	// handling path. Zero means defaultSmallBodyLen.
	SmallBodyLen uint64

	// ReceiveLargeBodiesDir, when non-empty, enables spooling request
	// bodies larger than SmallBodyLen (but within MaxBodyLen) to files in
	// this directory when a handler returns ReprocessResponse. When it is
	// empty, a ReprocessResponse fails with ErrCacheDirNotConfigured (500).
	ReceiveLargeBodiesDir string

	// MaxBodyLen is the hard ceiling past which a body is always
	// rejected with 413, regardless of ReceiveLargeBodiesDir. Zero means
	// "same as SmallBodyLen", i.e. large-body spooling is effectively off
	// until both fields are set.
	MaxBodyLen uint64

	MaxHeadLen int

	Logger     Logger
	ServerName string

	Handler RequestHandler

	mu       sync.Mutex
	listener net.Listener
}

func (s *Server) maxConns() int {
	if s.MaxConns <= 0 {
		return defaultMaxConns
	}
	return s.MaxConns
}

func (s *Server) smallBodyLen() uint64 {
	if s.SmallBodyLen == 0 {
		return defaultSmallBodyLen
	}
	return s.SmallBodyLen
}

func (s *Server) maxBodyLen() uint64 {
	if s.MaxBodyLen == 0 {
		return s.smallBodyLen()
	}
	return s.MaxBodyLen
}

func (s *Server) logger() Logger {
	if s.Logger == nil {
		return DefaultLogger()
	}
	return s.Logger
}

func (s *Server) serverName() string {
	if s.ServerName == "" {
		return defaultServerName
	}
	return s.ServerName
}

// Addr returns the address the server is listening on. It's only valid
// after Serve has started (or returned an error trying to).
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, admitting each one
// against a bounded TokenPool and running it on its own goroutine. It
// returns nil on a clean, ctx-triggered shutdown, or the error that made
// the accept loop give up otherwise.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := listen(ListenConfig{Addr: s.ListenAddr, ReusePort: s.ReusePort})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	defaultClock.start()
	defer defaultClock.stop()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	tokens := NewTokenPool(s.maxConns())
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tok, err := tokens.AcquireContext(ctx)
		if err != nil {
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			tok.Release()
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if isEMFILE(err) {
				s.logger().Printf("servlin: accept: too many open files, backing off")
				time.Sleep(emfileBackoff)
				continue
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer tok.Release()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, netConn net.Conn) {
	c := newConn(netConn, ConnConfig{
		MaxHeadLen:   s.MaxHeadLen,
		SmallBodyLen: s.smallBodyLen(),
		MaxBodyLen:   s.maxBodyLen(),
		SpoolDir:     s.ReceiveLargeBodiesDir,
		Logger:       s.logger(),
		ServerName:   s.serverName(),
	})
	c.Serve(ctx, s.Handler)
}

// PortFromEnv returns the integer value of the named environment variable,
// falling back to def when it's unset or unparsable. It's meant for
// reading the conventional PORT environment variable platform-as-a-service
// hosts set, the Go equivalent of the original's PORT env helper.
func PortFromEnv(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Loopback formats a loopback listen address for the given port.
func Loopback(port int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}

// AllInterfaces formats a listen address bound to every interface for the
// given port.
func AllInterfaces(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}
