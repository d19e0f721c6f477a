package stream

import (
	"sync"

	"scout/internal/async"
	"scout/internal/logging"
)

// Subscriber receives wire-format events. *websocket.Conn satisfies it.
type Subscriber interface {
	WriteJSON(v any) error
}

const defaultBuffer = 256

// Streamer multiplexes task progress to an optional subscriber. Without a
// subscriber it degrades to logging only. Droppable kinds use a buffered
// channel with drop-oldest semantics; cost and error events always land.
type Streamer struct {
	logger logging.Logger

	mu     sync.Mutex
	sub    Subscriber
	ch     chan Event
	done   chan struct{}
	closed bool
}

// New starts a streamer. sub may be nil.
func New(sub Subscriber, logger logging.Logger) *Streamer {
	s := &Streamer{
		logger: logging.OrNop(logger),
		sub:    sub,
	}
	if sub != nil {
		s.ch = make(chan Event, defaultBuffer)
		s.done = make(chan struct{})
		async.Go(s.logger, "stream-pump", s.pump)
	}
	return s
}

func (s *Streamer) pump() {
	for {
		select {
		case ev := <-s.ch:
			s.deliver(ev)
		case <-s.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case ev := <-s.ch:
					s.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Streamer) deliver(ev Event) {
	if err := s.sub.WriteJSON(ev.wire()); err != nil {
		s.logger.Warn("stream write failed (%s): %v", ev.Kind, err)
	}
}

// Emit publishes an event. Safe for concurrent use.
func (s *Streamer) Emit(ev Event) {
	s.logger.Debug("event %s: %v", ev.Kind, ev.Data)

	s.mu.Lock()
	closed := s.closed
	ch := s.ch
	done := s.done
	s.mu.Unlock()
	if ch == nil || closed {
		return
	}

	if ev.essential() {
		select {
		case ch <- ev:
		case <-done:
		}
		return
	}

	select {
	case ch <- ev:
	default:
		// Full: drop the oldest queued event to make room.
		select {
		case dropped := <-ch:
			s.logger.Debug("dropped %s event under back-pressure", dropped.Kind)
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Log emits a free-form progress line.
func (s *Streamer) Log(content, output string, metadata map[string]any) {
	data := map[string]any{"content": content, "output": output}
	if metadata != nil {
		data["metadata"] = metadata
	}
	s.Emit(Event{Kind: KindLogs, Data: data})
}

// Images emits collected image URLs.
func (s *Streamer) Images(urls []string) {
	if len(urls) == 0 {
		return
	}
	s.Emit(Event{Kind: KindImages, Data: map[string]any{"urls": urls}})
}

// Tool emits tool lifecycle progress.
func (s *Streamer) Tool(toolName, stage string, extra map[string]any) {
	data := map[string]any{"tool_name": toolName, "stage": stage}
	for k, v := range extra {
		data[k] = v
	}
	s.Emit(Event{Kind: KindTool, Data: data})
}

// Progress emits sub-query completion counts.
func (s *Streamer) Progress(current, total int) {
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	s.Emit(Event{Kind: KindProgress, Data: map[string]any{
		"current": current, "total": total, "progress": pct,
	}})
}

// Cost emits an accumulated usage snapshot. Blocking: cost events are never
// dropped.
func (s *Streamer) Cost(totalTokens, promptTokens, completionTokens int, totalCost float64) {
	s.Emit(Event{Kind: KindCost, Data: map[string]any{
		"total_tokens":      totalTokens,
		"prompt_tokens":     promptTokens,
		"completion_tokens": completionTokens,
		"total_cost":        totalCost,
	}})
}

// Error emits an error event. Blocking, like Cost.
func (s *Streamer) Error(message string) {
	s.Emit(Event{Kind: KindError, Data: map[string]any{"message": message}})
}

// Close stops the pump after draining queued events. Emit calls after Close
// are silently ignored.
func (s *Streamer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.done != nil {
		close(s.done)
	}
}
