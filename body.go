package servlin

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
)

// ReceiveBody ingests a pending request body: into memory when its length
// is within maxLen, or always rejected over maxLen. The engine's
// GetBodyAndReprocess flow admits a body bigger than the small-body limit
// through ReceiveBodyToFile with the larger maxLen instead.
// Chunked or gzip bodies are rejected with ErrUnsupportedTransferEncoding.
// An identity body of unknown length (framed only by the peer closing the
// connection) is read to EOF, bounded by maxLen, and forces the connection
// closed afterward since there is no other way to know where the next
// request would begin on the wire.
//
// It's a no-op, returning nil and leaving the receiver unchanged, when the
// body isn't pending.
func (req *Request) ReceiveBody(conn net.Conn, buf *fixedBuf, maxLen uint64) error {
	if !req.Body.IsPending() {
		return nil
	}
	if req.Chunked || req.Gzip {
		return newHTTPError(ErrUnsupportedTransferEncoding, "only identity-encoded bodies can be read")
	}
	n, ok := req.Body.Len()
	if !ok {
		if req.ExpectContinue {
			if err := writeContinueResponse(conn); err != nil {
				return newHTTPError(ErrIOError, "%v", err)
			}
		}
		data, err := readUnsizedBodyToMemory(conn, buf, maxLen)
		if err != nil {
			return err
		}
		req.Body = RequestBody{kind: bodyMemory, memory: data, forceClose: true}
		return nil
	}
	if n > maxLen {
		return HTTPError{Kind: ErrBodyTooLong}
	}
	if req.ExpectContinue {
		if err := writeContinueResponse(conn); err != nil {
			return newHTTPError(ErrIOError, "%v", err)
		}
	}
	data, err := readBodyToMemory(conn, buf, n)
	if err != nil {
		return err
	}
	req.Body = RequestBody{kind: bodyMemory, memory: data}
	return nil
}

// ReceiveBodyToFile is the spooled-to-disk counterpart of ReceiveBody, used
// when the declared length exceeds the caller's in-memory threshold but is
// still within maxLen. dir is the directory new body files are created in.
func (req *Request) ReceiveBodyToFile(conn net.Conn, buf *fixedBuf, dir string, maxLen uint64) error {
	if !req.Body.IsPending() {
		return nil
	}
	if req.Chunked || req.Gzip {
		return newHTTPError(ErrUnsupportedTransferEncoding, "only identity-encoded bodies can be read")
	}
	n, ok := req.Body.Len()
	if !ok {
		if req.ExpectContinue {
			if err := writeContinueResponse(conn); err != nil {
				return newHTTPError(ErrIOError, "%v", err)
			}
		}
		path, fileLen, err := readUnsizedBodyToFile(conn, buf, dir, maxLen)
		if err != nil {
			return err
		}
		req.Body = RequestBody{kind: bodySpooled, filePath: path, fileLen: fileLen, forceClose: true}
		return nil
	}
	if n > maxLen {
		return HTTPError{Kind: ErrBodyTooLong}
	}
	if req.ExpectContinue {
		if err := writeContinueResponse(conn); err != nil {
			return newHTTPError(ErrIOError, "%v", err)
		}
	}
	path, err := readBodyToFile(conn, buf, dir, n)
	if err != nil {
		return err
	}
	req.Body = RequestBody{kind: bodySpooled, filePath: path, fileLen: n}
	return nil
}

// readBodyToMemory copies exactly n bytes of body into a freshly allocated
// slice, first draining whatever prefix of the body parseHead's buffer
// already captured along with the head, then reading the rest straight off
// the connection. A short read before n bytes have arrived is Truncated,
// matching the original's read_http_body_to_vec.
func readBodyToMemory(conn net.Conn, buf *fixedBuf, n uint64) ([]byte, error) {
	out := make([]byte, n)
	copied := 0
	if pre := buf.unread(); len(pre) > 0 {
		c := copy(out, pre)
		buf.consume(c)
		copied = c
	}
	for uint64(copied) < n {
		rd, err := conn.Read(out[copied:])
		if rd > 0 {
			copied += rd
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, newHTTPError(ErrTruncatedKind, "")
			}
			return nil, newHTTPError(ErrErrorReadingBody, "%v", err)
		}
	}
	return out, nil
}

// readBodyToFile copies exactly n bytes of body to a newly created file in
// dir, named with random hex for collision-avoidance across restarts
// (the original's rand.rs uses a CSPRNG for the same reason), and returns
// its path.
func readBodyToFile(conn net.Conn, buf *fixedBuf, dir string, n uint64) (string, error) {
	path, f, err := createSpoolFile(dir)
	if err != nil {
		return "", newHTTPError(ErrErrorSavingFile, "%v", err)
	}
	defer f.Close()

	var written uint64
	if pre := buf.unread(); len(pre) > 0 {
		toWrite := pre
		if uint64(len(toWrite)) > n {
			toWrite = toWrite[:n]
		}
		wn, werr := f.Write(toWrite)
		buf.consume(wn)
		written += uint64(wn)
		if werr != nil {
			os.Remove(path)
			return "", newHTTPError(ErrErrorSavingFile, "%v", werr)
		}
	}
	if written < n {
		if _, err := io.CopyN(f, conn, int64(n-written)); err != nil {
			os.Remove(path)
			if errors.Is(err, io.EOF) {
				return "", newHTTPError(ErrTruncatedKind, "")
			}
			return "", newHTTPError(ErrErrorSavingFile, "%v", err)
		}
	}
	return path, nil
}

// unsizedCopyBufLen is the chunk size used when streaming a body whose
// length isn't known in advance, matching spec.md §4.D's 64 KiB copy loop.
const unsizedCopyBufLen = 64 * 1024

// readUnsizedBodyToMemory reads a body of unknown length until EOF,
// refusing to collect more than maxLen bytes. Unlike readBodyToMemory,
// reaching EOF is success, not Truncated: without a declared length or
// chunked framing, EOF is the only way the end of the body is signaled.
func readUnsizedBodyToMemory(conn net.Conn, buf *fixedBuf, maxLen uint64) ([]byte, error) {
	out := append([]byte(nil), buf.unread()...)
	buf.consume(len(buf.unread()))
	if uint64(len(out)) > maxLen {
		return nil, HTTPError{Kind: ErrBodyTooLong}
	}
	chunk := make([]byte, unsizedCopyBufLen)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			out = append(out, chunk[:n]...)
			if uint64(len(out)) > maxLen {
				return nil, HTTPError{Kind: ErrBodyTooLong}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, newHTTPError(ErrErrorReadingBody, "%v", err)
		}
	}
}

// readUnsizedBodyToFile streams a body of unknown length to a newly
// created file in dir until EOF, refusing to write more than maxLen bytes,
// and returns the file's path and final length.
func readUnsizedBodyToFile(conn net.Conn, buf *fixedBuf, dir string, maxLen uint64) (string, uint64, error) {
	path, f, err := createSpoolFile(dir)
	if err != nil {
		return "", 0, newHTTPError(ErrErrorSavingFile, "%v", err)
	}
	defer f.Close()

	var written uint64
	writeChecked := func(p []byte) error {
		if len(p) == 0 {
			return nil
		}
		wn, werr := f.Write(p)
		written += uint64(wn)
		if werr != nil {
			os.Remove(path)
			return newHTTPError(ErrErrorSavingFile, "%v", werr)
		}
		if written > maxLen {
			os.Remove(path)
			return HTTPError{Kind: ErrBodyTooLong}
		}
		return nil
	}

	if pre := buf.unread(); len(pre) > 0 {
		if err := writeChecked(pre); err != nil {
			return "", 0, err
		}
		buf.consume(len(pre))
	}

	chunk := make([]byte, unsizedCopyBufLen)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			if werr := writeChecked(chunk[:n]); werr != nil {
				return "", 0, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return path, written, nil
			}
			os.Remove(path)
			return "", 0, newHTTPError(ErrErrorSavingFile, "%v", err)
		}
	}
}

// createSpoolFile creates a new, exclusively-owned file inside dir with a
// random name, creating dir first if necessary.
func createSpoolFile(dir string) (string, *os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", nil, err
	}
	var nameBytes [16]byte
	if _, err := rand.Read(nameBytes[:]); err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "servlin-body-"+hex.EncodeToString(nameBytes[:]))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, err
	}
	return path, f, nil
}
