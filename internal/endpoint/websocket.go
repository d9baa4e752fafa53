package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"proctor/internal/message"
	"proctor/pkg/logging"
)

// WebSocket is a client endpoint. The connection is dialed on first use and
// redialed after it was dropped.
type WebSocket struct {
	name string
	url  string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocket creates a websocket client endpoint for url.
func NewWebSocket(name, url string) (*WebSocket, error) {
	if url == "" {
		return nil, fmt.Errorf("websocket endpoint %s: url is required", name)
	}
	return &WebSocket{name: name, url: url}, nil
}

func (w *WebSocket) Name() string { return w.name }

func (w *WebSocket) connect(ctx context.Context) (*websocket.Conn, error) {
	if w.conn != nil {
		return w.conn, nil
	}

	conn, _, err := websocket.Dial(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", w.url, err)
	}
	logging.Debug(subsystem, "Connected endpoint %s to %s", w.name, w.url)
	w.conn = conn
	return conn, nil
}

func (w *WebSocket) Send(ctx context.Context, msg *message.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	conn, err := w.connect(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		w.conn = nil
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (w *WebSocket) Receive(ctx context.Context, timeout time.Duration) (*message.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	conn, err := w.connect(ctx)
	if err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, receiveTimeout(timeout))
	defer cancel()

	_, data, err := conn.Read(readCtx)
	if err != nil {
		// a cancelled read closes the connection
		w.conn = nil
		if readCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: no message on websocket %s", ErrTimeout, w.name)
		}
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return decodeMessage(data), nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	err := w.conn.Close(websocket.StatusNormalClosure, "")
	w.conn = nil
	return err
}
