package stream

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// WebsocketSubscriber adapts a gorilla websocket connection. The gorilla
// connection forbids concurrent writers, so writes are serialized here.
type WebsocketSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketSubscriber wraps conn.
func NewWebsocketSubscriber(conn *websocket.Conn) *WebsocketSubscriber {
	return &WebsocketSubscriber{conn: conn}
}

func (w *WebsocketSubscriber) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// JSONLinesSubscriber appends one JSON object per line to a writer. Used for
// the on-disk event log.
type JSONLinesSubscriber struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSubscriber wraps out.
func NewJSONLinesSubscriber(out io.Writer) *JSONLinesSubscriber {
	return &JSONLinesSubscriber{enc: json.NewEncoder(out)}
}

func (j *JSONLinesSubscriber) WriteJSON(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(v)
}
