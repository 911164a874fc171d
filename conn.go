package servlin

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
)

// ReadState and WriteState record which half of a connection's lifecycle is
// active: the read side is always exactly one of idle-at-head, mid-body, or
// shutting down, and the write side is always exactly one of idle,
// awaiting-a-response, or shutting down. serveOnce and finishResponse set
// them as a cycle progresses; nothing reads them back to reject a
// transition. The synchronous, one-request-at-a-time loop below reaches only
// the combinations the original's async state machine allowed through its
// structure alone.
type ReadState uint8

const (
	ReadStateHead ReadState = iota
	ReadStateBody
	ReadStateShuttingDown
)

type WriteState uint8

const (
	WriteStateIdle WriteState = iota
	WriteStateAwaitingResponse
	WriteStateShuttingDown
)

// RequestHandler is the embedder's callback: given a fully-parsed request
// (with its body already in memory when its declared length is within the
// small-body ceiling, and still pending otherwise), it produces the
// Response to send.
// A handler that needs to inspect the head before deciding how large a
// body to accept returns ReprocessResponse; the engine will call the
// handler again after ingesting a bigger body.
type RequestHandler func(ctx context.Context, req *Request) Response

// Conn drives one TCP connection through as many sequential request/
// response cycles as keep-alive allows.
type Conn struct {
	netConn net.Conn
	buf     *fixedBuf
	w       *bufio.Writer

	readState  ReadState
	writeState WriteState

	maxHeadLen    int
	smallBodyLen  uint64
	maxBodyLen    uint64
	spoolDir      string
	logger        Logger
	serverName    string
}

// ConnConfig bundles the per-connection tunables a Server applies when it
// constructs a Conn for each accepted socket.
type ConnConfig struct {
	MaxHeadLen   int
	SmallBodyLen uint64
	MaxBodyLen   uint64
	SpoolDir     string
	Logger       Logger
	ServerName   string
}

func newConn(netConn net.Conn, cfg ConnConfig) *Conn {
	if cfg.MaxHeadLen <= 0 {
		cfg.MaxHeadLen = 8192
	}
	return &Conn{
		netConn:      netConn,
		buf:          newFixedBuf(cfg.MaxHeadLen),
		w:            bufio.NewWriter(netConn),
		maxHeadLen:   cfg.MaxHeadLen,
		smallBodyLen: cfg.SmallBodyLen,
		maxBodyLen:   cfg.MaxBodyLen,
		spoolDir:     cfg.SpoolDir,
		logger:       cfg.Logger,
		serverName:   cfg.ServerName,
	}
}

// Serve runs request/response cycles until the peer disconnects, a
// response forces the connection closed, or ctx is cancelled (checked
// between cycles). It always closes netConn and releases buf before
// returning.
func (c *Conn) Serve(ctx context.Context, handler RequestHandler) {
	defer c.buf.release()
	defer c.netConn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		closeAfter, err := c.serveOnce(ctx, handler)
		if err != nil {
			c.handleTopLevelError(err)
			return
		}
		if closeAfter {
			return
		}
	}
}

// serveOnce runs exactly one request/response cycle, matching the control
// flow of the original's handle_http_conn_once: read a head, let the
// handler decide how to consume the body (possibly re-invoking it after a
// GetBodyAndReprocess), write the response, and report whether the
// connection must now close.
func (c *Conn) serveOnce(ctx context.Context, handler RequestHandler) (closeAfter bool, err error) {
	c.readState = ReadStateHead
	head, herr := readHead(c.netConn, c.buf)
	if herr != nil {
		return c.respondToHeadError(herr)
	}

	req, rerr := deriveRequest(head, c.netConn.RemoteAddr())
	if rerr != nil {
		return c.respondToHeadError(rerr)
	}

	c.readState = ReadStateBody
	// A body within the small-body ceiling is ingested eagerly, so the
	// common case never round-trips through GetBodyAndReprocess at all;
	// only a body the handler hasn't pre-approved stays Pending when the
	// handler is first invoked.
	if n, ok := req.Body.Len(); ok && req.Body.IsPending() && n <= c.smallBodyLen {
		if err := req.ReceiveBody(c.netConn, c.buf, c.smallBodyLen); err != nil {
			return c.respondToBodyError(err)
		}
	}

	resp := c.runHandler(ctx, handler, &req)
	gotBodyAlready := false

	for resp.kind == responseKindReprocess {
		if gotBodyAlready || !req.Body.IsPending() {
			return c.respondToBodyError(newHTTPError(ErrAlreadyGotBody, ""))
		}
		if c.spoolDir == "" {
			return c.respondToBodyError(newHTTPError(ErrCacheDirNotConfigured, ""))
		}
		maxLen := resp.reprocessMaxLen
		if c.maxBodyLen > 0 && maxLen > c.maxBodyLen {
			maxLen = c.maxBodyLen
		}
		if err := req.ReceiveBodyToFile(c.netConn, c.buf, c.spoolDir, maxLen); err != nil {
			return c.respondToBodyError(err)
		}
		gotBodyAlready = true
		resp = c.runHandler(ctx, handler, &req)
	}

	if resp.kind == responseKindDrop {
		return true, nil
	}

	c.writeState = WriteStateAwaitingResponse
	return c.finishResponse(req, resp)
}

// finishResponse writes resp and decides, from its status code and
// Connection header, whether the connection stays open for another cycle.
func (c *Conn) finishResponse(req Request, resp Response) (closeAfter bool, err error) {
	closeAfter = resp.is4xx() || resp.is5xx() || connectionRequestsClose(req.Headers) || req.Body.ForcesConnectionClose()
	if req.Body.IsPending() {
		// The handler answered without ever calling ReceiveBody/
		// ReceiveBodyToFile: its bytes are still unread on the wire, so
		// reusing this connection for another cycle would misparse them
		// as the next request's head. Force a close instead of silently
		// corrupting keep-alive.
		if c.logger != nil {
			c.logger.Printf("servlin: %s", ErrBodyNotRead)
		}
		closeAfter = true
	}
	if v, ok := resp.extra[headerConnection]; ok && strings.EqualFold(v, tokenClose) {
		closeAfter = true
	}
	if closeAfter {
		if resp.extra == nil {
			resp.extra = map[string]string{}
		}
		resp.extra[headerConnection] = tokenClose
	}

	c.writeState = WriteStateShuttingDown
	if werr := writeResponse(c.w, resp, defaultClock.now(), c.serverName); werr != nil {
		return true, newHTTPError(ErrIOError, "%v", werr)
	}
	if err := c.w.Flush(); err != nil {
		return true, newHTTPError(ErrIOError, "%v", err)
	}
	c.writeState = WriteStateIdle
	return closeAfter, nil
}

// runHandler invokes handler with the per-connection goroutine boundary's
// panic recovery, turning any panic into the standard 500 response instead
// of letting it crash the server: grounded on the Recovery middleware
// pattern of logging the recovered value and stack before mapping it to a
// response.
func (c *Conn) runHandler(ctx context.Context, handler RequestHandler, req *Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Printf("servlin: handler panic: %v\n%s", r, debugStack())
			}
			resp = NewResponse(500).WithText("internal server error")
		}
	}()
	return handler(ctx, req)
}

func connectionRequestsClose(h HeaderList) bool {
	v, ok := h.GetOnly(headerConnection)
	return ok && strings.EqualFold(v, tokenClose)
}

// respondToHeadError renders a head-parsing failure as a response when one
// exists, matching HTTPError.Response's drop/respond split.
func (c *Conn) respondToHeadError(err error) (bool, error) {
	var herr HTTPError
	if !errors.As(err, &herr) {
		return true, err
	}
	resp, ok := herr.Response()
	if !ok {
		return true, nil
	}
	c.writeState = WriteStateAwaitingResponse
	if werr := writeResponse(c.w, resp, defaultClock.now(), c.serverName); werr != nil {
		return true, nil
	}
	_ = c.w.Flush()
	return true, nil
}

func (c *Conn) respondToBodyError(err error) (bool, error) {
	return c.respondToHeadError(err)
}

// handleTopLevelError logs any error that escaped serveOnce without
// already having been turned into a response (i.e. a connection-level I/O
// failure, not a protocol error).
func (c *Conn) handleTopLevelError(err error) {
	if err == nil || c.logger == nil {
		return
	}
	var herr HTTPError
	if errors.As(err, &herr) {
		if herr.Kind == ErrDisconnect || herr.Kind == ErrTruncatedKind {
			return
		}
	}
	c.logger.Printf("servlin: connection %s: %v", c.netConn.RemoteAddr(), err)
}
