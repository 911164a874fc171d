package servlin

import (
	"errors"
	"testing"
)

func TestParseRequestLineOK(t *testing.T) {
	rl, err := parseRequestLine([]byte("GET /foo/bar?x=1 HTTP/1.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rl.method != "GET" {
		t.Errorf("method = %q, want GET", rl.method)
	}
	if rl.url.Path != "/foo/bar" {
		t.Errorf("path = %q, want /foo/bar", rl.url.Path)
	}
	if rl.url.RawQuery != "x=1" {
		t.Errorf("query = %q, want x=1", rl.url.RawQuery)
	}
}

func TestParseRequestLineAsterisk(t *testing.T) {
	rl, err := parseRequestLine([]byte("OPTIONS * HTTP/1.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rl.method != "OPTIONS" {
		t.Errorf("method = %q", rl.method)
	}
}

func TestParseRequestLineRejectsBadVersion(t *testing.T) {
	_, err := parseRequestLine([]byte("GET / HTTP/1.0"))
	var herr HTTPError
	if !errors.As(err, &herr) || herr.Kind != ErrUnsupportedHTTPVersion {
		t.Fatalf("got %v, want ErrUnsupportedHTTPVersion", err)
	}
}

func TestParseRequestLineRejectsRelativePath(t *testing.T) {
	_, err := parseRequestLine([]byte("GET foo HTTP/1.1"))
	var herr HTTPError
	if !errors.As(err, &herr) || herr.Kind != ErrMalformedPath {
		t.Fatalf("got %v, want ErrMalformedPath", err)
	}
}

func TestParseRequestLineRejectsBadMethodToken(t *testing.T) {
	_, err := parseRequestLine([]byte("G@T / HTTP/1.1"))
	var herr HTTPError
	if !errors.As(err, &herr) || herr.Kind != ErrMalformedHeadline {
		t.Fatalf("got %v, want ErrMalformedHeadline", err)
	}
}

func TestParseHeaderLine(t *testing.T) {
	h, err := parseHeaderLine([]byte("Content-Type: text/plain"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.name != "Content-Type" || h.value != "text/plain" {
		t.Errorf("got %+v", h)
	}
}

func TestParseHeaderLineTrimsOWS(t *testing.T) {
	h, err := parseHeaderLine([]byte("X-Foo:   bar  "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.value != "bar" {
		t.Errorf("value = %q, want %q", h.value, "bar")
	}
}

func TestParseHeaderLineRejectsMissingColon(t *testing.T) {
	_, err := parseHeaderLine([]byte("X-Foo bar"))
	var herr HTTPError
	if !errors.As(err, &herr) || herr.Kind != ErrMalformedHeader {
		t.Fatalf("got %v, want ErrMalformedHeader", err)
	}
}

func TestLatin1RoundTrip(t *testing.T) {
	b := []byte{0x41, 0xE9, 0x00}
	s := latin1ToString(b)
	if len(s) != 0 {
		// NUL byte decodes to U+0000, a valid one-byte rune in UTF-8.
	}
	back := stringToLatin1(s)
	if len(back) != len(b) {
		t.Fatalf("round trip length mismatch: %d vs %d", len(back), len(b))
	}
	for i := range b {
		if back[i] != b[i] {
			t.Errorf("byte %d: got %x want %x", i, back[i], b[i])
		}
	}
}

func TestStringToLatin1ReplacesNonLatin1(t *testing.T) {
	out := stringToLatin1("café中")
	if out[len(out)-1] != 0xFF {
		t.Errorf("expected trailing 0xFF replacement byte, got %x", out)
	}
}

func TestParseHeadNeedsMoreData(t *testing.T) {
	buf := newFixedBuf(1024)
	defer buf.release()
	buf.data = append(buf.data, []byte("GET / HTTP/1.1\r\n")...)
	_, ok, err := parseHead(buf)
	if ok || err != nil {
		t.Fatalf("expected ok=false, err=nil for an incomplete head; got ok=%v err=%v", ok, err)
	}
}

func TestParseHeadComplete(t *testing.T) {
	buf := newFixedBuf(1024)
	defer buf.release()
	buf.data = append(buf.data, []byte("GET /x HTTP/1.1\r\nHost: example.com\r\n\r\n")...)
	head, ok, err := parseHead(buf)
	if !ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if head.method != "GET" {
		t.Errorf("method = %q", head.method)
	}
	if v, ok := head.headers.GetOnly("Host"); !ok || v != "example.com" {
		t.Errorf("Host header = %q, %v", v, ok)
	}
	if len(buf.unread()) != 0 {
		t.Errorf("expected the full head to be consumed, %d bytes left", len(buf.unread()))
	}
}
