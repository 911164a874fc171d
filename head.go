package servlin

import (
	"bytes"
	"net"
	"net/url"
	"strings"
)

// requestLine is the parsed first line of a request head.
type requestLine struct {
	method string
	url    *url.URL
}

// isTChar reports whether b is an RFC 7230 tchar, the character class
// allowed in a header field-name or an HTTP method token.
func isTChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '!', b == '#', b == '$', b == '%', b == '&', b == '\'', b == '*',
		b == '+', b == '-', b == '.', b == '^', b == '_', b == '`', b == '|', b == '~':
		return true
	default:
		return false
	}
}

// parseRequestLine parses "METHOD SP target SP HTTP/1.1", rejecting any
// request-target that isn't "*" or doesn't start with "/" (origin-form
// only; absolute-form and authority-form aren't needed by a server that
// never sits behind a forward proxy).
func parseRequestLine(line []byte) (requestLine, error) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return requestLine{}, newHTTPError(ErrMalformedHeadline, "missing method")
	}
	method := line[:sp1]
	for _, b := range method {
		if !isTChar(b) {
			return requestLine{}, newHTTPError(ErrMalformedHeadline, "invalid method token")
		}
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 <= 0 {
		return requestLine{}, newHTTPError(ErrMalformedHeadline, "missing request-target")
	}
	target := rest[:sp2]
	for _, b := range target {
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			return requestLine{}, newHTTPError(ErrMalformedHeadline, "whitespace in request-target")
		}
	}
	proto := rest[sp2+1:]
	for _, b := range proto {
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			return requestLine{}, newHTTPError(ErrMalformedHeadline, "trailing data after version")
		}
	}
	targetStr := string(target)
	if targetStr != "*" && !strings.HasPrefix(targetStr, "/") {
		return requestLine{}, newHTTPError(ErrMalformedPath, "request-target must be '*' or start with '/'")
	}
	u, err := url.ParseRequestURI(targetStr)
	if err != nil {
		return requestLine{}, newHTTPError(ErrMalformedPath, "%v", err)
	}
	if string(proto) != httpVersion11 {
		return requestLine{}, newHTTPError(ErrUnsupportedHTTPVersion, "only HTTP/1.1 is supported")
	}
	return requestLine{method: string(method), url: u}, nil
}

// latin1ToString decodes header-value bytes the same way the original does:
// a direct byte-to-codepoint cast (ISO-8859-1's codepoints are identical to
// its byte values 0-255), not a lookup table. golang.org/x/text/encoding's
// charmap.ISO8859_1 would compute exactly this mapping through a heavier
// Decoder API; since the mapping is the identity function on runes 0-255, a
// direct loop is both simpler and allocates less.
func latin1ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// stringToLatin1 is the inverse used when writing a header value back out:
// codepoints above 0xFF have no ISO-8859-1 representation and are replaced
// with 0xFF, matching the original writer's fallback.
func stringToLatin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			out = append(out, 0xFF)
		} else {
			out = append(out, byte(r))
		}
	}
	return out
}

func trimTrailingCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

// parseHeaderLine parses a single "Name: value" header field line (the
// trailing CR, if any, already stripped by the caller).
func parseHeaderLine(line []byte) (header, error) {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return header{}, newHTTPError(ErrMalformedHeader, "missing ':'")
	}
	name := line[:colon]
	for _, b := range name {
		if !isTChar(b) {
			return header{}, newHTTPError(ErrMalformedHeader, "invalid header name")
		}
	}
	value := trimOWS(line[colon+1:])
	return header{name: string(name), value: latin1ToString(value)}, nil
}

// parsedHead is everything parseHead extracts from the request line and
// header block, the head.go equivalent of the original's Head struct.
type parsedHead struct {
	method  string
	url     *url.URL
	headers HeaderList
}

// parseHead looks for a complete "\r\n\r\n"-terminated head in buf's unread
// window and, if found, consumes and parses it. It returns ok=false (with a
// nil error) when the window doesn't yet contain a full head, signaling the
// caller to read more bytes and retry.
func parseHead(buf *fixedBuf) (parsedHead, bool, error) {
	window := buf.unread()
	delimIdx := bytes.Index(window, []byte("\r\n\r\n"))
	if delimIdx < 0 {
		return parsedHead{}, false, nil
	}
	head := window[:delimIdx]
	buf.consume(delimIdx + 4)

	lines := bytes.Split(head, []byte("\n"))
	if len(lines) == 0 || len(lines[0]) == 0 {
		return parsedHead{}, true, newHTTPError(ErrMalformedHeadline, "empty head")
	}
	rl, err := parseRequestLine(trimTrailingCR(lines[0]))
	if err != nil {
		return parsedHead{}, true, err
	}

	var headers HeaderList
	for _, raw := range lines[1:] {
		line := trimTrailingCR(raw)
		if len(line) == 0 {
			continue
		}
		h, err := parseHeaderLine(line)
		if err != nil {
			return parsedHead{}, true, err
		}
		headers.Add(h.name, h.value)
	}
	return parsedHead{method: rl.method, url: rl.url, headers: headers}, true, nil
}

// readHead drives parseHead against buf, refilling from conn as needed,
// classifying EOF into Disconnected/Truncated and buffer exhaustion into
// HeadTooLong, matching the original's read_http_head loop.
func readHead(conn net.Conn, buf *fixedBuf) (parsedHead, error) {
	haveStarted := false
	for {
		head, ok, err := parseHead(buf)
		if ok {
			return head, err
		}
		haveStarted = haveStarted || len(buf.unread()) > 0
		if err := buf.fill(conn, haveStarted); err != nil {
			switch err {
			case ErrDisconnected:
				return parsedHead{}, newHTTPError(ErrDisconnect, "")
			case ErrTruncated:
				return parsedHead{}, newHTTPError(ErrTruncatedKind, "")
			case ErrHeadTooLong:
				return parsedHead{}, newHTTPError(ErrHeadTooLongKind, "")
			default:
				return parsedHead{}, newHTTPError(ErrIOError, "%v", err)
			}
		}
	}
}
