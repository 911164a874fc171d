package servlin

import "fmt"

// ErrorKind enumerates the ways a connection can fail to produce a valid
// request, mirroring the original HttpError taxonomy one-for-one.
type ErrorKind int

const (
	ErrDisconnect ErrorKind = iota
	ErrTruncatedKind
	ErrHeadTooLongKind
	ErrMalformedHeadline
	ErrMalformedPath
	ErrMalformedHeader
	ErrMalformedContentLength
	ErrUnsupportedHTTPVersion
	ErrUnsupportedMethod
	ErrUnsupportedTransferEncoding
	ErrBodyTooLong
	ErrErrorReadingBody
	ErrErrorSavingFile
	ErrErrorReadingFile
	ErrHandlerPanic
	ErrIOError
	// ErrAlreadyGotBody is a programmer error: the handler returned
	// GetBodyAndReprocess a second time for the same request.
	ErrAlreadyGotBody
	// ErrCacheDirNotConfigured is a programmer error: the handler returned
	// GetBodyAndReprocess but the server has no spool directory configured
	// (Server.ReceiveLargeBodiesDir is empty).
	ErrCacheDirNotConfigured
	// ErrBodyNotRead marks the case where a handler returns a Normal
	// response without ever consuming a still-pending request body: the
	// unread bytes are still sitting on the wire, so the connection is
	// forced closed instead of being reused for a next request/response
	// cycle that would misparse them as a new request line. This never
	// becomes an HTTPError returned to a caller (the response the handler
	// chose is still sent); it exists so the forced close is logged as a
	// named, intentional condition rather than happening silently.
	ErrBodyNotRead
)

// HTTPError wraps one taxonomy member with a human-readable detail string.
// It implements the error interface and knows how to render itself as a
// Response and whether it should force the connection closed, grounded 1:1
// on the original's From<HttpError> for Response and is_server_error.
type HTTPError struct {
	Kind ErrorKind
	Msg  string
}

func (e HTTPError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newHTTPError(kind ErrorKind, format string, args ...any) HTTPError {
	return HTTPError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (k ErrorKind) String() string {
	switch k {
	case ErrDisconnect:
		return "disconnected"
	case ErrTruncatedKind:
		return "truncated"
	case ErrHeadTooLongKind:
		return "head too long"
	case ErrMalformedHeadline:
		return "malformed request line"
	case ErrMalformedPath:
		return "malformed request path"
	case ErrMalformedHeader:
		return "malformed header"
	case ErrMalformedContentLength:
		return "malformed content-length"
	case ErrUnsupportedHTTPVersion:
		return "unsupported http version"
	case ErrUnsupportedMethod:
		return "unsupported method"
	case ErrUnsupportedTransferEncoding:
		return "unsupported transfer-encoding"
	case ErrBodyTooLong:
		return "body too long"
	case ErrErrorReadingBody:
		return "error reading body"
	case ErrErrorSavingFile:
		return "error saving body to file"
	case ErrErrorReadingFile:
		return "error reading spooled file"
	case ErrHandlerPanic:
		return "handler panicked"
	case ErrIOError:
		return "i/o error"
	case ErrAlreadyGotBody:
		return "handler called GetBodyAndReprocess twice"
	case ErrCacheDirNotConfigured:
		return "GetBodyAndReprocess requires a configured cache directory"
	case ErrBodyNotRead:
		return "handler returned a response without reading a pending body"
	default:
		return "unknown error"
	}
}

// IsServerError reports whether the error is a server-side failure (5xx)
// rather than the peer's (4xx, including truncated and head-too-long) or a
// disconnect, which never gets a response written at all.
func (k ErrorKind) IsServerError() bool {
	switch k {
	case ErrErrorReadingBody, ErrErrorReadingFile, ErrHandlerPanic, ErrIOError, ErrErrorSavingFile, ErrAlreadyGotBody, ErrCacheDirNotConfigured:
		return true
	default:
		return false
	}
}

// Response renders the error as the response that should be written back to
// the peer, or reports ok=false for the kinds that never get a response
// (the connection is simply dropped), matching the original match arms
// exactly: only Disconnected drops silently (the peer is already gone);
// every other framing failure, including Truncated, gets a written 4xx/5xx
// before the connection closes.
func (e HTTPError) Response() (resp Response, ok bool) {
	switch e.Kind {
	case ErrDisconnect:
		return Response{}, false
	case ErrHeadTooLongKind:
		return NewResponse(431).WithText("request head too long"), true
	case ErrMalformedHeadline, ErrMalformedPath, ErrMalformedHeader, ErrMalformedContentLength, ErrUnsupportedTransferEncoding, ErrTruncatedKind:
		return NewResponse(400).WithText(e.Msg), true
	case ErrUnsupportedHTTPVersion:
		return NewResponse(505).WithText("unsupported http version"), true
	case ErrUnsupportedMethod:
		return NewResponse(400).WithText("unsupported method"), true
	case ErrBodyTooLong:
		return NewResponse(413).WithText("Uploaded data is too big."), true
	case ErrErrorReadingBody, ErrErrorSavingFile, ErrErrorReadingFile, ErrHandlerPanic, ErrIOError, ErrAlreadyGotBody, ErrCacheDirNotConfigured:
		return NewResponse(500).WithText("internal server error"), true
	default:
		return NewResponse(500).WithText("internal server error"), true
	}
}
