package servlin

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// bodyKind tags which variant of RequestBody is populated.
type bodyKind uint8

const (
	bodyEmpty bodyKind = iota
	bodyPendingKnown
	bodyPendingUnknown
	bodyMemory
	bodySpooled
)

// RequestBody is a closed tagged union over the ways a request body can
// show up: nothing at all, a declared-but-unread length, an unread body of
// unknown length, bytes already pulled into memory, or a length plus a
// path to a spooled file on disk.
type RequestBody struct {
	kind       bodyKind
	pendingLen uint64
	memory     []byte
	filePath   string
	fileLen    uint64

	// forceClose is set when this body was ingested without a declared
	// length (read until EOF): the connection can never be reused
	// afterward, because nothing marks where the next request would
	// begin on the wire.
	forceClose bool
}

// ForcesConnectionClose reports whether ingesting this body consumed the
// connection's only end-of-message marker (EOF), making the connection
// unusable for a further request/response cycle.
func (b RequestBody) ForcesConnectionClose() bool {
	return b.forceClose
}

// IsPending reports whether the body has not yet been ingested by a call to
// Request.ReceiveBody.
func (b RequestBody) IsPending() bool {
	return b.kind == bodyPendingKnown || b.kind == bodyPendingUnknown
}

// IsEmpty reports whether the body is known, right now, to contain zero
// bytes.
func (b RequestBody) IsEmpty() bool {
	switch b.kind {
	case bodyEmpty:
		return true
	case bodyMemory:
		return len(b.memory) == 0
	case bodySpooled:
		return b.fileLen == 0
	default:
		return false
	}
}

// Len returns the body's length when it's already known (pending-known,
// in-memory, or spooled) and ok=false when the length can't be known yet
// (pending-unknown).
func (b RequestBody) Len() (n uint64, ok bool) {
	switch b.kind {
	case bodyEmpty:
		return 0, true
	case bodyPendingKnown:
		return b.pendingLen, true
	case bodyMemory:
		return uint64(len(b.memory)), true
	case bodySpooled:
		return b.fileLen, true
	default:
		return 0, false
	}
}

// Bytes returns the in-memory body bytes, or nil, ok=false if the body was
// spooled to disk or never ingested.
func (b RequestBody) Bytes() ([]byte, bool) {
	if b.kind == bodyMemory {
		return b.memory, true
	}
	if b.kind == bodyEmpty {
		return nil, true
	}
	return nil, false
}

// FilePath returns the path of the spooled body file, or "", ok=false if
// the body wasn't spooled.
func (b RequestBody) FilePath() (string, bool) {
	if b.kind == bodySpooled {
		return b.filePath, true
	}
	return "", false
}

// Request is a fully-parsed HTTP/1.1 request head plus its (possibly still
// pending) body.
type Request struct {
	Method         string
	URL            *url.URL
	Headers        HeaderList
	Body           RequestBody
	RemoteAddr     net.Addr
	ExpectContinue bool
	// Chunked and Gzip record which transfer-codings the peer declared.
	// Both are accepted at parse time (any other token is a hard parse
	// error); either one makes the body un-ingestable later, since this
	// server only understands identity-encoded bodies (see Non-goals).
	Chunked bool
	Gzip    bool
	// ContentLength is nil when the request carries no declared length
	// (GET-style requests with no body), non-nil with the parsed value
	// otherwise. It is recorded separately from Body so the engine can
	// make keep-alive/close decisions before the body is ever ingested.
	ContentLength *uint64
}

// deriveRequest builds a Request from a parsed head, validating the control
// headers (Content-Length, Transfer-Encoding, Expect) the same way the
// original's read_http_request does. Transfer-Encoding tokens are split,
// trimmed, and partitioned into {chunked, gzip, other}; chunked and gzip
// are recorded as flags rather than rejected immediately, because a
// handler that never reads the body (e.g. one that inspects the head and
// responds 415 on its own) never needs the rejection. Only ingestion
// (ReceiveBody/ReceiveBodyToFile) refuses to read a chunked or gzip body,
// matching the original's read_body_to_vec/read_body_to_file.
func deriveRequest(head parsedHead, remote net.Addr) (Request, error) {
	req := Request{
		Method:     head.method,
		URL:        head.url,
		Headers:    head.headers,
		RemoteAddr: remote,
	}

	// Any Expect value other than "100-continue" (including a duplicated
	// Expect header, which makes GetOnly report ok=false) just leaves
	// ExpectContinue false rather than erroring: spec.md §4.C only defines
	// what makes it true, and the original's read_http_request computes it
	// with a plain equality check and no error path.
	if expect, ok := req.Headers.GetOnly(headerExpect); ok && strings.EqualFold(strings.TrimSpace(expect), token100Continue) {
		req.ExpectContinue = true
	}

	for _, raw := range req.Headers.GetAll(headerTransferEncoding) {
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.ToLower(strings.TrimSpace(tok))
			switch tok {
			case "":
				continue
			case tokenChunked:
				req.Chunked = true
			case tokenGzip:
				req.Gzip = true
			default:
				return Request{}, newHTTPError(ErrUnsupportedTransferEncoding, "unsupported transfer-coding %q", tok)
			}
		}
	}

	clValues := req.Headers.GetAll(headerContentLength)
	var contentLength *uint64
	switch len(clValues) {
	case 0:
		// leave contentLength nil
	case 1:
		n, err := strconv.ParseUint(strings.TrimSpace(clValues[0]), 10, 64)
		if err != nil {
			return Request{}, newHTTPError(ErrMalformedContentLength, "%v", err)
		}
		contentLength = &n
	default:
		return Request{}, newHTTPError(ErrMalformedContentLength, "multiple Content-Length headers")
	}
	req.ContentLength = contentLength

	// Decision table from spec.md §4.C: chunked requests (and any request
	// whose length can't be framed another way) get an unread body of
	// unknown length; a declared zero-or-positive length is exact; every
	// other method with no declared length and no Expect/gzip carries no
	// body at all.
	switch {
	case req.Chunked:
		req.Body = RequestBody{kind: bodyPendingUnknown}
	case contentLength != nil && *contentLength == 0:
		req.Body = RequestBody{kind: bodyEmpty}
	case contentLength != nil:
		req.Body = RequestBody{kind: bodyPendingKnown, pendingLen: *contentLength}
	case req.Method == "POST" || req.Method == "PUT":
		req.Body = RequestBody{kind: bodyPendingUnknown}
	case req.ExpectContinue || req.Gzip:
		req.Body = RequestBody{kind: bodyPendingUnknown}
	default:
		req.Body = RequestBody{kind: bodyEmpty}
	}

	return req, nil
}
