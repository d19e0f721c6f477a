package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"scout/internal/async"
	"scout/internal/logging"
)

// wsTransport frames JSON-RPC messages over a websocket connection.
type wsTransport struct {
	conn     *websocket.Conn
	messages chan []byte
	logger   logging.Logger

	writeMu sync.Mutex
	once    sync.Once
}

func dialWebsocket(ctx context.Context, url, token string) (Transport, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t := &wsTransport{
		conn:     conn,
		messages: make(chan []byte, 16),
		logger:   logging.NewComponentLogger("mcp-websocket"),
	}
	async.Go(t.logger, "mcp-ws-read", t.readLoop)
	return t, nil
}

func (t *wsTransport) Send(_ context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (t *wsTransport) Messages() <-chan []byte {
	return t.messages
}

func (t *wsTransport) readLoop() {
	defer close(t.messages)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.logger.Debug("read loop ended: %v", err)
			return
		}
		t.messages <- data
	}
}

func (t *wsTransport) Close() error {
	var err error
	t.once.Do(func() {
		err = t.conn.Close()
	})
	return err
}
