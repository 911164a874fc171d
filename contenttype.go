package servlin

import "strings"

// ContentType identifies the MIME type of a request or response body. It is
// a closed set of the types the rest of the package special-cases (mainly
// for choosing a default Content-Type on outgoing responses); anything else
// round-trips through ContentTypeOther, which carries the exact string the
// peer sent.
type ContentType struct {
	kind  contentTypeKind
	other string
}

type contentTypeKind uint8

const (
	ContentTypeUnspecified contentTypeKind = iota
	ContentTypeTextPlain
	ContentTypeTextHTML
	ContentTypeJSON
	ContentTypeFormURLEncoded
	ContentTypeOctetStream
	ContentTypeEventStream
	ContentTypeOther
)

// Kind returns the closed-set classification of c.
func (c ContentType) Kind() contentTypeKind { return c.kind }

// String renders the canonical wire value, including a charset parameter
// for the text-like kinds, matching the original's as_str() table.
func (c ContentType) String() string {
	switch c.kind {
	case ContentTypeTextPlain:
		return "text/plain; charset=UTF-8"
	case ContentTypeTextHTML:
		return "text/html; charset=UTF-8"
	case ContentTypeJSON:
		return "application/json"
	case ContentTypeFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case ContentTypeOctetStream:
		return "application/octet-stream"
	case ContentTypeEventStream:
		return "text/event-stream"
	case ContentTypeOther:
		return c.other
	default:
		return ""
	}
}

// ParseContentType classifies a raw Content-Type header value, ignoring any
// parameters after the first ';' except to preserve them verbatim in the
// ContentTypeOther case.
func ParseContentType(raw string) ContentType {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ContentType{kind: ContentTypeUnspecified}
	}
	mime := trimmed
	if idx := strings.IndexByte(trimmed, ';'); idx >= 0 {
		mime = strings.TrimSpace(trimmed[:idx])
	}
	switch strings.ToLower(mime) {
	case "text/plain":
		return ContentType{kind: ContentTypeTextPlain}
	case "text/html":
		return ContentType{kind: ContentTypeTextHTML}
	case "application/json":
		return ContentType{kind: ContentTypeJSON}
	case "application/x-www-form-urlencoded":
		return ContentType{kind: ContentTypeFormURLEncoded}
	case "application/octet-stream":
		return ContentType{kind: ContentTypeOctetStream}
	case "text/event-stream":
		return ContentType{kind: ContentTypeEventStream}
	default:
		return ContentType{kind: ContentTypeOther, other: trimmed}
	}
}

var (
	TextPlain       = ContentType{kind: ContentTypeTextPlain}
	TextHTML        = ContentType{kind: ContentTypeTextHTML}
	JSON            = ContentType{kind: ContentTypeJSON}
	FormURLEncoded  = ContentType{kind: ContentTypeFormURLEncoded}
	OctetStream     = ContentType{kind: ContentTypeOctetStream}
	EventStream     = ContentType{kind: ContentTypeEventStream}
	UnspecifiedType = ContentType{kind: ContentTypeUnspecified}
)
