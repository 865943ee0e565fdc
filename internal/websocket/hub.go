// Package websocket pushes reload notifications to preview pages.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/bookshelf/internal/logging"
)

// ReloadPath is where preview pages connect.
const ReloadPath = "/_bookshelf/reload"

// MessageTypeReload is the only message the hub sends.
const MessageTypeReload = "reload"

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message is sent to every connected page.
type Message struct {
	Type string `json:"type"`
}

// Client is one connected page.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of connected pages. A single goroutine handles
// registration, removal, and broadcasts.
type Hub struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	originPatterns []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
}

// NewHub starts a hub accepting connections whose Origin host matches one
// of originPatterns (path.Match syntax, e.g. "localhost:8080"). Requests
// without an Origin header and same-host requests are always accepted.
func NewHub(originPatterns []string, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:        make(map[*websocket.Conn]*Client),
		broadcast:      make(chan []byte, 16),
		register:       make(chan *Client, 16),
		unregister:     make(chan *websocket.Conn, 16),
		originPatterns: originPatterns,
		logger:         logger.WithComponent("websocket"),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go h.run()
	return h
}

// ServeHTTP upgrades the request and registers the page.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		// Accept has already written the response.
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, 8)}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// Pages never send anything; CloseRead discards input and reports the
	// close.
	closed := conn.CloseRead(h.ctx)
	h.writePump(closed, client)
}

// Reload tells every connected page to reload.
func (h *Hub) Reload() {
	h.Broadcast(Message{Type: MessageTypeReload})
}

// Broadcast sends msg to every connected page. It never blocks; messages
// are dropped while the hub is busy or shut down.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(h.ctx, err, "Cannot encode message")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "Broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and stops the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(h.cancel)

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client.conn] = client
			total := len(h.clients)
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "Page connected", "clients", total)

		case conn := <-h.unregister:
			h.remove(conn, websocket.StatusNormalClosure, "")

		case message := <-h.broadcast:
			h.clientsMutex.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for _, client := range h.clients {
				clients = append(clients, client)
			}
			h.clientsMutex.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					h.remove(client.conn, websocket.StatusPolicyViolation, "too slow")
				}
			}

		case <-h.ctx.Done():
			h.clientsMutex.Lock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.clientsMutex.Unlock()
			for _, conn := range conns {
				h.remove(conn, websocket.StatusGoingAway, "server shutting down")
			}
			return
		}
	}
}

// remove drops conn from the set and closes it. Only the hub goroutine
// calls it, so send is closed exactly once.
func (h *Hub) remove(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	h.clientsMutex.Lock()
	client, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(client.send)
	}
	total := len(h.clients)
	h.clientsMutex.Unlock()

	if ok {
		// Close waits for the peer's close frame; the hub must not.
		go func() { _ = conn.Close(code, reason) }()
		h.logger.Debug(context.Background(), "Page disconnected", "clients", total)
	}
}

func (h *Hub) writePump(closed context.Context, client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer func() {
		select {
		case h.unregister <- client.conn:
		case <-h.done:
		}
	}()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(closed, writeTimeout)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(closed, writeTimeout)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-closed.Done():
			return
		}
	}
}
