package servlin

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
)

var chunkBufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func getChunkBuffer() *bytes.Buffer {
	b := chunkBufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

func putChunkBuffer(b *bytes.Buffer) {
	chunkBufPool.Put(b)
}

// writeContinueResponse sends the "100 Continue" interim status line the
// engine emits right before it starts reading a body whose request carried
// "Expect: 100-continue".
func writeContinueResponse(conn net.Conn) error {
	_, err := conn.Write([]byte("HTTP/1.1 100 Continue\r\n\r\n"))
	return err
}

// writeResponse serializes resp onto w in this field order: status line,
// Date, Server, an inferred Content-Type line, an inferred Content-Length
// line (skipped for an empty body, and replaced by Transfer-Encoding:
// chunked for an event stream), then every extra header, then a blank
// line, then the body. date is the pre-rendered Date header
// value (formatted by the caller, once, via the cached httpDate) and
// serverName is the Server header value; both are written
// unconditionally so every response is self-describing even when resp
// carries no extra headers at all.
func writeResponse(w *bufio.Writer, resp Response, date, serverName string) error {
	if resp.kind != responseKindNormal {
		return fmt.Errorf("servlin: cannot write a non-normal response")
	}
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", resp.code, ReasonPhrase(resp.code)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %s\r\n", headerDate, date); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %s\r\n", headerServer, serverName); err != nil {
		return err
	}
	if resp.ctype != UnspecifiedType {
		if _, ok := resp.extra[headerContentType]; ok {
			return newHTTPError(ErrIOError, "duplicate Content-Type header")
		}
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", headerContentType, resp.ctype.String()); err != nil {
			return err
		}
	}
	isEventStream := resp.body.kind == responseBodyEventStream
	if !isEventStream {
		bodyLen, err := responseBodyLen(resp.body)
		if err != nil {
			return err
		}
		if _, ok := resp.extra[headerContentLength]; ok {
			return newHTTPError(ErrIOError, "duplicate Content-Length header")
		}
		// The synthesized Content-Length line is only written when the
		// body is non-empty, matching spec.md §4.F and the
		// method-not-allowed scenario in spec.md §8, whose expected
		// output carries no Content-Length header at all.
		if bodyLen > 0 {
			if _, err := fmt.Fprintf(w, "%s: %d\r\n", headerContentLength, bodyLen); err != nil {
				return err
			}
		}
	} else {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", headerTransferEncoding, tokenChunked); err != nil {
			return err
		}
	}
	for name, value := range resp.extra {
		if _, err := w.WriteString(name); err != nil {
			return err
		}
		if _, err := w.WriteString(": "); err != nil {
			return err
		}
		if _, err := w.Write(stringToLatin1(value)); err != nil {
			return err
		}
		if _, err := w.Write(crlf); err != nil {
			return err
		}
	}
	if _, err := w.Write(crlf); err != nil {
		return err
	}

	switch resp.body.kind {
	case responseBodyNone:
		return nil
	case responseBodyBytes:
		_, err := w.Write(resp.body.bytes)
		return err
	case responseBodyFile:
		return writeFileBody(w, resp.body)
	case responseBodyEventStream:
		return writeEventStreamBody(w, resp.body.events)
	default:
		return nil
	}
}

func responseBodyLen(b ResponseBody) (int64, error) {
	switch b.kind {
	case responseBodyNone:
		return 0, nil
	case responseBodyBytes:
		return int64(len(b.bytes)), nil
	case responseBodyFile:
		return b.fileLen, nil
	default:
		return 0, nil
	}
}

func writeFileBody(w *bufio.Writer, b ResponseBody) error {
	f, err := os.Open(b.filePath)
	if err != nil {
		return newHTTPError(ErrErrorReadingFile, "%v", err)
	}
	defer f.Close()
	n, err := io.CopyN(w, f, b.fileLen)
	if err != nil && err != io.EOF {
		return newHTTPError(ErrErrorReadingFile, "%v", err)
	}
	if n != b.fileLen {
		return newHTTPError(ErrErrorReadingFile, "body file is smaller than the advertised Content-Length")
	}
	return nil
}

// writeEventStreamBody drains recv, writing each event as one HTTP/1.1
// chunk: "<hex-length>\r\n<sse-lines>\r\n", terminated by the standard
// zero-length final chunk once the sender closes.
func writeEventStreamBody(w *bufio.Writer, recv *EventReceiver) error {
	for {
		ev, ok := recv.Recv()
		if !ok {
			_, err := w.WriteString("0\r\n\r\n")
			return err
		}
		buf := getChunkBuffer()
		scratch := bufio.NewWriter(buf)
		if err := ev.writeTo(scratch); err != nil {
			putChunkBuffer(buf)
			return err
		}
		if err := scratch.Flush(); err != nil {
			putChunkBuffer(buf)
			return err
		}
		err := writeChunk(w, buf.Bytes())
		putChunkBuffer(buf)
		if err != nil {
			return err
		}
	}
}

// writeChunk writes one chunked-encoding frame: hex length, CRLF, the
// bytes, CRLF.
func writeChunk(w *bufio.Writer, p []byte) error {
	if _, err := w.WriteString(strconv.FormatInt(int64(len(p)), 16)); err != nil {
		return err
	}
	if _, err := w.Write(crlf); err != nil {
		return err
	}
	if _, err := w.Write(p); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}
