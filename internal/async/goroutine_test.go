package async

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogger) Error(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, format)
}

func TestGoRecoversPanic(t *testing.T) {
	logger := &captureLogger{}
	done := make(chan struct{})

	Go(logger, "panicky", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}

	// Recovery runs after fn returns; give the deferred handler a moment.
	deadline := time.Now().Add(time.Second)
	for {
		logger.mu.Lock()
		n := len(logger.lines)
		logger.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("panic was not logged")
		}
		time.Sleep(5 * time.Millisecond)
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if !strings.Contains(logger.lines[0], "goroutine panic") {
		t.Errorf("unexpected log line: %q", logger.lines[0])
	}
}

func TestRecoverWithNilLogger(t *testing.T) {
	func() {
		defer Recover(nil, "quiet")
		panic("swallowed")
	}()
}
