package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"scout/internal/logging"
)

// httpTransport speaks streamable HTTP: each request is a POST whose reply
// arrives in the response body, either as a single JSON object or as an SSE
// stream of JSON events. Replies are forwarded onto the shared message
// channel so the client's routing works the same as for the other transports.
type httpTransport struct {
	url      string
	token    string
	client   *http.Client
	messages chan []byte
	logger   logging.Logger

	mu        sync.Mutex
	sessionID string
	closed    bool
}

func newHTTPTransport(url, token string) Transport {
	return &httpTransport{
		url:      url,
		token:    token,
		client:   &http.Client{Timeout: 60 * time.Second},
		messages: make(chan []byte, 16),
		logger:   logging.NewComponentLogger("mcp-http"),
	}
}

func (t *httpTransport) Send(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	t.mu.Lock()
	if t.sessionID != "" {
		req.Header.Set("Mcp-Session-Id", t.sessionID)
	}
	t.mu.Unlock()

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", t.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		t.mu.Lock()
		t.sessionID = sid
		t.mu.Unlock()
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}
	// Notifications get 202 with no body.
	if resp.StatusCode == http.StatusAccepted {
		return nil
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return t.forwardSSE(resp.Body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	t.deliver(body)
	return nil
}

// forwardSSE extracts data lines from an SSE body and forwards each JSON
// payload as a message.
func (t *httpTransport) forwardSSE(body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" || !json.Valid([]byte(payload)) {
			continue
		}
		t.deliver([]byte(payload))
	}
	return nil
}

func (t *httpTransport) deliver(data []byte) {
	// The lock is held across the send so Close cannot close the channel
	// between the closed check and the send. The send never blocks, so
	// holding the lock here cannot stall Close.
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.messages <- data:
	default:
		t.logger.Warn("message buffer full, dropping reply")
	}
}

func (t *httpTransport) Messages() <-chan []byte {
	return t.messages
}

func (t *httpTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.messages)
	return nil
}
