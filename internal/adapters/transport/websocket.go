package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.trai.ch/cheetah/internal/core/domain"
	"go.trai.ch/cheetah/internal/core/ports"
)

var _ ports.Conn = (*WebSocket)(nil)

const (
	closeGracePeriod = time.Second
	// writeWait bounds a single message write to a peer that stopped reading.
	writeWait = 10 * time.Second
)

// WebSocket carries one command per text message and one output line per message.
type WebSocket struct {
	conn      *websocket.Conn
	writeWait time.Duration

	// mu serializes data messages; gorilla allows a single concurrent writer.
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// WebSocketOption configures a WebSocket.
type WebSocketOption func(*WebSocket)

// WithWriteWait sets how long a single WriteLine may block.
func WithWriteWait(d time.Duration) WebSocketOption {
	return func(w *WebSocket) {
		w.writeWait = d
	}
}

// NewWebSocket wraps an established websocket connection.
func NewWebSocket(conn *websocket.Conn, opts ...WebSocketOption) *WebSocket {
	w := &WebSocket{conn: conn, writeWait: writeWait}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ReadLine returns the next message. A normal close by the peer is reported as io.EOF.
func (w *WebSocket) ReadLine() (string, error) {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, net.ErrClosed) {
				return "", io.EOF
			}
			return "", domain.Wrap(domain.ErrTransportRead, err)
		}
		if len(data) == 0 {
			continue
		}
		return string(data), nil
	}
}

// WriteLine sends line as a single text message. A write that cannot complete
// within the write wait fails, and the connection is unusable afterwards.
func (w *WebSocket) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeWait)); err != nil {
		return domain.Wrap(domain.ErrTransportWrite, err)
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return domain.Wrap(domain.ErrTransportWrite, err)
	}
	return nil
}

// Close sends a close frame and releases the connection. It is safe to call more
// than once and does not wait for a WriteLine in progress beyond the grace period;
// closing the connection fails that write.
func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

// ConnHandler serves one connection until it ends.
type ConnHandler func(ctx context.Context, conn ports.Conn)

// WebSocketHandler upgrades requests and hands every connection to serve.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	serve    ConnHandler
	logger   ports.Logger
}

// NewWebSocketHandler returns an http.Handler that runs serve for each upgraded connection.
// The connection context is the request context, so a server BaseContext
// controls how long connections live.
func NewWebSocketHandler(serve ConnHandler, logger ports.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		serve:  serve,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("websocket upgrade failed: " + err.Error())
		return
	}

	ws := NewWebSocket(conn)
	defer func() { _ = ws.Close() }()

	h.logger.Debug("websocket client connected: " + r.RemoteAddr)
	h.serve(r.Context(), ws)
	h.logger.Debug("websocket client disconnected: " + r.RemoteAddr)
}
