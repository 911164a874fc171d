package servlin

import (
	"bufio"
	"fmt"
	"strings"
)

// Event is a single server-sent event: either a bare Message (an unnamed
// "data:" block) or a Custom event carrying an event_type, mirroring the
// original's Event enum.
type Event struct {
	eventType string // "" for a Message
	data      string
}

// NewMessageEvent builds an unnamed event whose lines are sent as plain
// "data: ..." fields.
func NewMessageEvent(data string) Event {
	return Event{data: data}
}

// NewCustomEvent builds a named event. eventType must not contain '\r' or
// '\n'; callers that violate this get ErrMalformedHeader back instead of a
// malformed wire frame.
func NewCustomEvent(eventType, data string) (Event, error) {
	if strings.ContainsAny(eventType, "\r\n") {
		return Event{}, newHTTPError(ErrMalformedHeader, "event type must not contain CR or LF")
	}
	return Event{eventType: eventType, data: data}, nil
}

// writeTo renders the event as SSE lines: an optional "event: <type>" line
// followed by one "data: <line>" per line of data, then a blank line.
func (e Event) writeTo(w *bufio.Writer) error {
	if e.eventType != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", e.eventType); err != nil {
			return err
		}
	}
	lines := strings.Split(e.data, "\n")
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}
	return nil
}

// EventSender is the producer side of an event stream. Send is
// non-blocking: a full or closed channel permanently closes the sender
// rather than letting a slow consumer apply backpressure to whatever
// goroutine is generating events, matching the original's self-closing
// SyncSender wrapper.
type EventSender struct {
	ch     chan Event
	closed bool
}

// NewEventStream creates a bound EventSender/EventReceiver pair backed by
// a channel of the given capacity (capacity must be at least 1).
func NewEventStream(capacity int) (*EventSender, *EventReceiver) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan Event, capacity)
	return &EventSender{ch: ch}, &EventReceiver{ch: ch}
}

// Send enqueues an event. It reports whether the event was accepted; once
// it returns false the sender is permanently closed and every subsequent
// Send also returns false.
func (s *EventSender) Send(e Event) bool {
	if s.closed {
		return false
	}
	select {
	case s.ch <- e:
		return true
	default:
		s.close()
		return false
	}
}

// Close marks the sender closed; the receiver observes end-of-stream once
// it has drained whatever was already enqueued.
func (s *EventSender) Close() {
	s.close()
}

func (s *EventSender) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// EventReceiver is the consumer side, read by the response writer as a
// chunked HTTP body: one Recv per chunk.
type EventReceiver struct {
	ch chan Event
}

// Recv blocks for the next event, reporting ok=false once the sender has
// closed and every buffered event has been drained.
func (r *EventReceiver) Recv() (Event, bool) {
	e, ok := <-r.ch
	return e, ok
}
