package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type gateSink struct {
	gate   chan struct{}
	events chan Event
}

func (s *gateSink) Emit(_ context.Context, event Event) {
	<-s.gate
	s.events <- event
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	if d := NewDispatcher(Config{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}

	var d *Dispatcher
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero drops on nil dispatcher")
	}
}

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "login_success", UserID: "u1", Success: true})

	select {
	case ev := <-sink.Events():
		if ev.EventType != "login_success" || ev.UserID != "u1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{}), events: make(chan Event, 8)}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "x"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and buffer of one")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: "e"})
	}
	d.Close()

	if got := len(sink.Events()); got != 3 {
		t.Fatalf("expected 3 drained events, got %d", got)
	}

	d.Emit(context.Background(), Event{EventType: "late"})
	if got := len(sink.Events()); got != 3 {
		t.Fatalf("expected emit after close to be ignored, got %d", got)
	}
}

func TestDispatcherStampsEventsFromContext(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	sink := NewChannelSink(2)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 2, Now: func() time.Time { return at }}, sink)

	ctx := WithClientIP(WithRequestID(context.Background(), "req-7"), "10.1.2.3")
	d.Emit(ctx, Event{EventType: "enrollment_success", UserID: "u1", Success: true})
	d.Emit(ctx, Event{ID: "fixed", EventType: "course_created", RequestID: "explicit"})
	d.Close()

	first := <-sink.Events()
	if first.ID == "" || first.RequestID != "req-7" || first.IP != "10.1.2.3" {
		t.Fatalf("expected stamped identity, got %+v", first)
	}
	if !first.Timestamp.Equal(at) || first.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp %v, got %v", at.UTC(), first.Timestamp)
	}

	second := <-sink.Events()
	if second.ID != "fixed" || second.RequestID != "explicit" || second.IP != "10.1.2.3" {
		t.Fatalf("expected explicit fields to be kept, got %+v", second)
	}
	if d.Delivered() != 2 {
		t.Fatalf("expected 2 delivered, got %d", d.Delivered())
	}
}

func TestDispatcherBlockingEmitGivesUpOnContext(t *testing.T) {
	gate := make(chan struct{})
	sink := SinkFunc(func(context.Context, Event) { <-gate })
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{EventType: "a"})
	// Wait for the worker to pick up the first event so the next one fills the buffer.
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "c"})
	if d.Dropped() != 1 {
		t.Fatalf("expected the timed-out emit to count as dropped, got %d", d.Dropped())
	}

	close(gate)
	d.Close()
	if d.Delivered() != 2 {
		t.Fatalf("expected 2 delivered, got %d", d.Delivered())
	}
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{EventType: "a", Success: true})
	sink.Emit(context.Background(), Event{EventType: "b", Error: "invalid_credentials"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if ev.EventType != "b" || ev.Error != "invalid_credentials" {
		t.Fatalf("unexpected decoded event: %+v", ev)
	}
}

func TestLogrusSinkLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := NewLogrusSink(logger)

	sink.Emit(context.Background(), Event{EventType: "login_success", UserID: "u1", Success: true})
	sink.Emit(context.Background(), Event{EventType: "login_failure", Error: "invalid_credentials", Metadata: map[string]string{"reason": "password_mismatch"}})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["user_id"] != "u1" {
		t.Fatalf("unexpected success entry: %+v", entries[0])
	}
	if entries[1].Level != logrus.WarnLevel {
		t.Fatalf("expected warn level for failure, got %v", entries[1].Level)
	}
	if entries[1].Data["meta_reason"] != "password_mismatch" || entries[1].Data["error_code"] != "invalid_credentials" {
		t.Fatalf("unexpected failure fields: %+v", entries[1].Data)
	}
}
