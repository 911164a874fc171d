package servlin

import (
	"net"
	"os"
	"testing"
	"time"
)

// pipeConn adapts one end of a net.Pipe to stand in for a client
// connection feeding bytes to the body reader under test.
func pipeConn(t *testing.T) (server, client net.Conn) {
	t.Helper()
	server, client = net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

func TestReceiveBodyFromPrefetchedAndWire(t *testing.T) {
	server, client := pipeConn(t)
	buf := newFixedBuf(64)
	defer buf.release()
	buf.data = append(buf.data, []byte("hel")...)

	go func() {
		client.Write([]byte("lo!"))
	}()

	req := &Request{Body: RequestBody{kind: bodyPendingKnown, pendingLen: 6}}
	deadline := time.Now().Add(time.Second)
	server.SetReadDeadline(deadline)
	if err := req.ReceiveBody(server, buf, 64); err != nil {
		t.Fatalf("ReceiveBody: %v", err)
	}
	got, ok := req.Body.Bytes()
	if !ok || string(got) != "hello!" {
		t.Fatalf("got %q, %v; want %q, true", got, ok, "hello!")
	}
}

func TestReceiveBodyRejectsOverMaxLen(t *testing.T) {
	_, client := pipeConn(t)
	buf := newFixedBuf(64)
	defer buf.release()

	req := &Request{Body: RequestBody{kind: bodyPendingKnown, pendingLen: 100}}
	err := req.ReceiveBody(client, buf, 10)
	herr, ok := err.(HTTPError)
	if !ok || herr.Kind != ErrBodyTooLong {
		t.Fatalf("got %v", err)
	}
}

func TestReceiveBodyRejectsChunkedAtIngestion(t *testing.T) {
	_, client := pipeConn(t)
	buf := newFixedBuf(64)
	defer buf.release()

	req := &Request{Chunked: true, Body: RequestBody{kind: bodyPendingUnknown}}
	err := req.ReceiveBody(client, buf, 64)
	herr, ok := err.(HTTPError)
	if !ok || herr.Kind != ErrUnsupportedTransferEncoding {
		t.Fatalf("got %v, want ErrUnsupportedTransferEncoding", err)
	}
}

func TestReceiveBodyUnsizedReadsToEOFAndForcesClose(t *testing.T) {
	server, client := pipeConn(t)
	buf := newFixedBuf(64)
	defer buf.release()

	go func() {
		client.Write([]byte("streamed body"))
		client.Close()
	}()

	req := &Request{Body: RequestBody{kind: bodyPendingUnknown}}
	if err := req.ReceiveBody(server, buf, 1024); err != nil {
		t.Fatalf("ReceiveBody: %v", err)
	}
	got, ok := req.Body.Bytes()
	if !ok || string(got) != "streamed body" {
		t.Fatalf("got %q, %v; want %q, true", got, ok, "streamed body")
	}
	if !req.Body.ForcesConnectionClose() {
		t.Fatalf("expected an unsized body to force connection close")
	}
}

func TestReceiveBodyUnsizedRejectsOverMaxLen(t *testing.T) {
	server, client := pipeConn(t)
	buf := newFixedBuf(64)
	defer buf.release()

	go func() {
		client.Write([]byte("this is way too much data for the limit"))
		client.Close()
	}()

	req := &Request{Body: RequestBody{kind: bodyPendingUnknown}}
	err := req.ReceiveBody(server, buf, 4)
	herr, ok := err.(HTTPError)
	if !ok || herr.Kind != ErrBodyTooLong {
		t.Fatalf("got %v, want ErrBodyTooLong", err)
	}
}

func TestReceiveBodyToFileUnsizedSpoolsToEOF(t *testing.T) {
	server, client := pipeConn(t)
	dir := t.TempDir()
	buf := newFixedBuf(64)
	defer buf.release()

	go func() {
		client.Write([]byte("spooled streamed body"))
		client.Close()
	}()

	req := &Request{Body: RequestBody{kind: bodyPendingUnknown}}
	if err := req.ReceiveBodyToFile(server, buf, dir, 1024); err != nil {
		t.Fatalf("ReceiveBodyToFile: %v", err)
	}
	path, ok := req.Body.FilePath()
	if !ok {
		t.Fatalf("expected a spooled file path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading spooled file: %v", err)
	}
	if string(data) != "spooled streamed body" {
		t.Fatalf("spooled contents = %q", data)
	}
	if !req.Body.ForcesConnectionClose() {
		t.Fatalf("expected an unsized body to force connection close")
	}
}

func TestReceiveBodyToFileSpoolsExactLength(t *testing.T) {
	server, client := pipeConn(t)
	dir := t.TempDir()
	buf := newFixedBuf(64)
	defer buf.release()
	buf.data = append(buf.data, []byte("0123")...)

	go func() {
		client.Write([]byte("456789"))
	}()

	req := &Request{Body: RequestBody{kind: bodyPendingKnown, pendingLen: 10}}
	if err := req.ReceiveBodyToFile(server, buf, dir, 64); err != nil {
		t.Fatalf("ReceiveBodyToFile: %v", err)
	}
	path, ok := req.Body.FilePath()
	if !ok {
		t.Fatalf("expected a spooled file path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading spooled file: %v", err)
	}
	if string(data) != "0123456789" {
		t.Fatalf("spooled contents = %q", data)
	}
}
