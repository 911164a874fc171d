package servlin

import (
	"errors"
	"io"
	"net"

	"github.com/valyala/bytebufferpool"
)

var headBufferPool bytebufferpool.Pool

// ErrDisconnected is returned when the peer closes the connection before
// sending any bytes of a new message.
var ErrDisconnected = errors.New("servlin: peer disconnected before sending any data")

// ErrTruncated is returned when the peer closes the connection in the
// middle of a message that had already started arriving.
var ErrTruncated = errors.New("servlin: connection closed in the middle of a message")

// ErrHeadTooLong is returned when the request line and headers do not fit
// in the fixed-capacity head buffer.
var ErrHeadTooLong = errors.New("servlin: request head exceeds the maximum size")

// fixedBuf is a fixed-capacity byte source over a net.Conn. It accumulates
// bytes read from the connection and lets callers peek at the accumulated
// window, consume a prefix of it, and refill from the wire when more bytes
// are needed. It never grows past its initial capacity: a message that
// doesn't fit is a protocol error (ErrHeadTooLong), not a reason to
// reallocate.
type fixedBuf struct {
	bb   *bytebufferpool.ByteBuffer
	cap  int
	data []byte // data[pos:] is unconsumed
	pos  int
}

func newFixedBuf(capacity int) *fixedBuf {
	bb := headBufferPool.Get()
	if cap(bb.B) < capacity {
		bb.B = make([]byte, 0, capacity)
	}
	return &fixedBuf{bb: bb, cap: capacity, data: bb.B[:0]}
}

func (b *fixedBuf) release() {
	b.bb.Reset()
	headBufferPool.Put(b.bb)
	b.bb = nil
	b.data = nil
}

// unread returns the bytes accumulated so far that have not been consumed.
func (b *fixedBuf) unread() []byte {
	return b.data[b.pos:]
}

// consume drops the first n bytes of the unread window.
func (b *fixedBuf) consume(n int) {
	b.pos += n
	if b.pos == len(b.data) {
		b.data = b.data[:0]
		b.pos = 0
	}
}

// compact slides the unread window down to offset 0, making room at the
// tail for a refill without losing unconsumed bytes.
func (b *fixedBuf) compact() {
	if b.pos == 0 {
		return
	}
	n := copy(b.data[:cap(b.data)], b.data[b.pos:])
	b.data = b.data[:n]
	b.pos = 0
}

// fill reads at least one more chunk of bytes from conn into the buffer,
// compacting first if the tail has no room left. It classifies EOF per the
// caller's expectation: haveStarted distinguishes "nothing received yet"
// (ErrDisconnected) from "message cut off mid-stream" (ErrTruncated).
func (b *fixedBuf) fill(conn net.Conn, haveStarted bool) error {
	b.compact()
	if len(b.data) == b.cap {
		return ErrHeadTooLong
	}
	room := b.bb.B[:b.cap][len(b.data):b.cap]
	n, err := conn.Read(room)
	if n > 0 {
		b.data = b.bb.B[:b.cap][:len(b.data)+n]
	}
	if err != nil {
		if err == io.EOF || n == 0 {
			if haveStarted || len(b.data) > 0 {
				return ErrTruncated
			}
			return ErrDisconnected
		}
		return err
	}
	return nil
}
