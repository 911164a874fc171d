package servlin

import (
	"fmt"
	"os"
)

type responseKind uint8

const (
	responseKindDrop responseKind = iota
	responseKindReprocess
	responseKindNormal
)

type responseBodyKind uint8

const (
	responseBodyNone responseBodyKind = iota
	responseBodyBytes
	responseBodyFile
	responseBodyEventStream
)

// ResponseBody is a closed union over how a Normal response's payload is
// sourced: nothing, an in-memory byte slice, a file on disk (streamed by
// the writer rather than read fully into memory), or a live event stream.
type ResponseBody struct {
	kind     responseBodyKind
	bytes    []byte
	filePath string
	fileLen  int64
	events   *EventReceiver
}

// Response is the closed union the embedder's handler returns: Drop the
// connection with no bytes sent, ask the engine to GetBodyAndReprocess a
// bigger body, or send a Normal status/headers/body response.
type Response struct {
	kind   responseKind
	code   int
	ctype  ContentType
	extra  map[string]string
	body   ResponseBody

	reprocessMaxLen uint64
}

// DropResponse is the handler's way of saying "close this connection
// without sending any bytes," e.g. after detecting an abusive peer.
var DropResponse = Response{kind: responseKindDrop}

// ReprocessResponse asks the engine to (re-)ingest the request body with a
// higher length ceiling and re-invoke the handler. It's the handler's
// response to first seeing only the head of a request whose body it has
// decided, after inspecting the head, that it's willing to accept.
func ReprocessResponse(maxLen uint64) Response {
	return Response{kind: responseKindReprocess, reprocessMaxLen: maxLen}
}

// NewResponse starts building a Normal response with the given status code
// and no body, the Go equivalent of the original's Response::new.
func NewResponse(code int) Response {
	return Response{kind: responseKindNormal, code: code, ctype: UnspecifiedType}
}

// IsNormal reports whether r carries a status/body rather than being Drop
// or GetBodyAndReprocess.
func (r Response) IsNormal() bool { return r.kind == responseKindNormal }

// Code returns the response's status code; only meaningful when IsNormal.
func (r Response) Code() int { return r.code }

func (r Response) is1xx() bool { return r.kind == responseKindNormal && is1xx(r.code) }
func (r Response) is4xx() bool { return r.kind == responseKindNormal && is4xx(r.code) }
func (r Response) is5xx() bool { return r.kind == responseKindNormal && is5xx(r.code) }

// WithType sets the response's Content-Type.
func (r Response) WithType(ct ContentType) Response {
	r.ctype = ct
	return r
}

// WithHeader adds an extra header to the response. Content-Length and
// Content-Type are managed by the writer and may not be set this way; see
// DESIGN.md for why that's an error condition rather than silently
// overridden.
func (r Response) WithHeader(name, value string) Response {
	if r.extra == nil {
		r.extra = map[string]string{}
	}
	r.extra[name] = value
	return r
}

// WithBody attaches an in-memory body.
func (r Response) WithBody(b []byte) Response {
	r.body = ResponseBody{kind: responseBodyBytes, bytes: b}
	return r
}

// WithFile streams path (size must be known ahead of time) as the body.
func (r Response) WithFile(path string, size int64) Response {
	r.body = ResponseBody{kind: responseBodyFile, filePath: path, fileLen: size}
	return r
}

// WithEventStream attaches a live server-sent-event stream as the body; the
// writer switches to chunked framing for this case (the one framing this
// package uses on the response side, since the body length is unknown
// ahead of time).
func (r Response) WithEventStream(recv *EventReceiver) Response {
	r.body = ResponseBody{kind: responseBodyEventStream, events: recv}
	return r
}

// EventStreamResponse builds a 200 text/event-stream response together with
// the sender the caller pushes events onto, the Go equivalent of the
// original's Response::event_stream(): one call wires the channel pair
// (capacity 1) into a response the engine will frame as chunked.
func EventStreamResponse() (*EventSender, Response) {
	sender, recv := NewEventStream(1)
	resp := NewResponse(200).WithType(EventStream).WithEventStream(recv)
	return sender, resp
}

// WithText sets the body to s with a text/plain content type, for quick
// error and status responses.
func (r Response) WithText(s string) Response {
	r.ctype = TextPlain
	return r.WithBody([]byte(s))
}

// WithJSON sets the body to the raw JSON bytes b with an application/json
// content type. Encoding to JSON is the embedder's job (see Non-goals);
// this only wires the bytes and content type together.
func (r Response) WithJSON(b []byte) Response {
	r.ctype = JSON
	return r.WithBody(b)
}

// MethodNotAllowed405 builds the standard 405 response.
func MethodNotAllowed405() Response {
	return NewResponse(405).WithText("method not allowed")
}

// PayloadTooLarge413 builds the standard 413 response.
func PayloadTooLarge413() Response {
	return NewResponse(413).WithText("payload too large")
}

// responseFromError renders err as a Response: 404 when err reports a
// missing file, otherwise a 500 carrying err's text as extra context.
func responseFromError(err error) Response {
	if os.IsNotExist(err) {
		return NewResponse(404).WithText("not found")
	}
	return NewResponse(500).WithText(fmt.Sprintf("internal server error: %v", err))
}
