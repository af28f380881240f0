package publishers

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  atomic.Int32
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls.Add(1)
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutCountsDeliveriesAndJoinsErrors(t *testing.T) {
	ok := &stubPublisher{id: "hook", typ: TypeHTTP}
	bad := &stubPublisher{id: "queue", typ: TypeSQS, err: errors.New("throttled")}
	fanout := NewFanout([]Publisher{ok, nil, bad})
	if fanout.Size() != 2 {
		t.Fatalf("nil publishers must be dropped, size=%d", fanout.Size())
	}

	delivered, err := fanout.Publish(context.Background(), testEvent())
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	if err == nil || !strings.Contains(err.Error(), `sqs publisher "queue": throttled`) {
		t.Fatalf("unexpected error %v", err)
	}
	if ok.calls.Load() != 1 || bad.calls.Load() != 1 {
		t.Fatalf("every publisher must be called once")
	}
}

func TestEmptyFanoutDeliversNothing(t *testing.T) {
	var fanout *Fanout
	if n, err := fanout.Publish(context.Background(), testEvent()); n != 0 || err != nil {
		t.Fatalf("nil fanout: n=%d err=%v", n, err)
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	stub := &stubPublisher{id: "s", typ: TypePubSub}
	if err := NewFanout([]Publisher{stub}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !stub.closed {
		t.Fatalf("publisher not closed")
	}
}

func TestDefaultRegistryBuildsFanout(t *testing.T) {
	reg := DefaultRegistry()
	if got := strings.Join(reg.Types(), ","); got != "http,pubsub,sns,sqs" {
		t.Fatalf("registered types = %s", got)
	}
	fanout, err := reg.BuildFanout(context.Background(), []PublisherConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com/receipts"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildFanout: %v", err)
	}
	if fanout.Size() != 1 {
		t.Fatalf("expected 1 publisher, got %d", fanout.Size())
	}
}

func TestBuildFanoutClosesBuiltPublishersOnFailure(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	reg := NewRegistry().Register("stub", func(context.Context, PublisherConfig, Logger) (Publisher, error) {
		return built, nil
	})

	_, err := reg.BuildFanout(context.Background(), []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "kafka"},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), `unsupported type "kafka"`) {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
	if !built.closed {
		t.Fatalf("already built publisher must be closed")
	}
}
