package stream

import (
	"sync"
	"testing"
	"time"

	"scout/internal/logging"
)

type collectingSubscriber struct {
	mu     sync.Mutex
	events []map[string]any
	block  chan struct{}
}

func (c *collectingSubscriber) WriteJSON(v any) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v.(map[string]any))
	return nil
}

func (c *collectingSubscriber) snapshot() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamerDeliversWireShape(t *testing.T) {
	sub := &collectingSubscriber{}
	s := New(sub, logging.Nop())
	defer s.Close()

	s.Log("searching", "searching the web", nil)
	s.Progress(1, 3)
	s.Cost(10, 7, 3, 0.001)

	waitFor(t, func() bool { return len(sub.snapshot()) == 3 })

	events := sub.snapshot()
	if events[0]["type"] != KindLogs || events[0]["content"] != "searching" {
		t.Errorf("logs event = %v", events[0])
	}
	if events[1]["type"] != KindProgress || events[1]["current"] != 1 || events[1]["progress"] != 33 {
		t.Errorf("progress event = %v", events[1])
	}
	if events[2]["type"] != KindCost || events[2]["total_cost"] != 0.001 {
		t.Errorf("cost event = %v", events[2])
	}
}

func TestStreamerNoSubscriberDoesNotBlock(t *testing.T) {
	s := New(nil, logging.Nop())
	defer s.Close()

	for i := 0; i < 10*defaultBuffer; i++ {
		s.Log("line", "line", nil)
		s.Error("still fine")
	}
}

func TestStreamerDropsOldestLogsUnderBackpressure(t *testing.T) {
	sub := &collectingSubscriber{block: make(chan struct{})}
	s := New(sub, logging.Nop())

	// Overfill while the subscriber is stuck: droppable events must not
	// block the producer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3*defaultBuffer; i++ {
			s.Log("burst", "burst", nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("droppable emit blocked under back-pressure")
	}

	close(sub.block)
	waitFor(t, func() bool { return len(sub.snapshot()) > 0 })
	s.Close()

	if got := len(sub.snapshot()); got > defaultBuffer+1 {
		t.Errorf("expected at most %d delivered events, got %d", defaultBuffer+1, got)
	}
}

func TestStreamerEmitAfterCloseIsNoop(t *testing.T) {
	sub := &collectingSubscriber{}
	s := New(sub, logging.Nop())
	s.Close()
	s.Close()

	s.Error("after close")
	time.Sleep(20 * time.Millisecond)

	for _, ev := range sub.snapshot() {
		if ev["message"] == "after close" {
			t.Error("event delivered after Close")
		}
	}
}

func TestStreamerImagesSkipsEmpty(t *testing.T) {
	sub := &collectingSubscriber{}
	s := New(sub, logging.Nop())
	defer s.Close()

	s.Images(nil)
	s.Images([]string{"https://example.com/a.png"})

	waitFor(t, func() bool { return len(sub.snapshot()) == 1 })
	ev := sub.snapshot()[0]
	if ev["type"] != KindImages {
		t.Errorf("event = %v", ev)
	}
}
