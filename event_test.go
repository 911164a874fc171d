package servlin

import (
	"bufio"
	"bytes"
	"testing"
)

func TestEventWriteToMessage(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	ev := NewMessageEvent("line one\nline two")
	if err := ev.writeTo(w); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	w.Flush()
	want := "data: line one\ndata: line two\n\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestEventWriteToCustom(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	ev, err := NewCustomEvent("ping", "hello")
	if err != nil {
		t.Fatalf("NewCustomEvent: %v", err)
	}
	if err := ev.writeTo(w); err != nil {
		t.Fatalf("writeTo: %v", err)
	}
	w.Flush()
	want := "event: ping\ndata: hello\n\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestNewCustomEventRejectsNewlines(t *testing.T) {
	if _, err := NewCustomEvent("bad\ntype", "x"); err == nil {
		t.Fatalf("expected an error for an event type containing LF")
	}
}

func TestEventSenderClosesOnFullChannel(t *testing.T) {
	sender, _ := NewEventStream(1)
	if !sender.Send(NewMessageEvent("a")) {
		t.Fatalf("first send into an empty channel should succeed")
	}
	if sender.Send(NewMessageEvent("b")) {
		t.Fatalf("send into a full channel should report false")
	}
	if sender.Send(NewMessageEvent("c")) {
		t.Fatalf("sender should be permanently closed after its first failure")
	}
}

func TestEventReceiverDrainsThenReportsClosed(t *testing.T) {
	sender, recv := NewEventStream(2)
	sender.Send(NewMessageEvent("a"))
	sender.Close()
	ev, ok := recv.Recv()
	if !ok || ev.data != "a" {
		t.Fatalf("got %+v, %v", ev, ok)
	}
	if _, ok := recv.Recv(); ok {
		t.Fatalf("expected ok=false once the buffered event is drained")
	}
}
