package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"luxsync/internal/log"
	"luxsync/internal/pipeline"
)

const (
	clientQueueSize = 64
	writeWait       = time.Second
)

// WebSocketTransport broadcasts every snapshot as JSON to connected clients.
// It is an http.Handler meant to be mounted by the HTTP server. Slow clients
// lose messages instead of stalling the pipeline.
type WebSocketTransport struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// NewWebSocketTransport creates a transport with no clients.
func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // lighting consoles connect from anywhere on the LAN
			},
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (wst *WebSocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientQueueSize)}
	wst.mu.Lock()
	if wst.closed {
		wst.mu.Unlock()
		conn.Close()
		return
	}
	wst.clients[c] = struct{}{}
	total := len(wst.clients)
	wst.mu.Unlock()
	log.Infof("WebSocketTransport: Client connected from %s, total: %d", r.RemoteAddr, total)

	go wst.writeLoop(c)
	go wst.readLoop(c)
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.mu.Lock()
	defer wst.mu.Unlock()
	return len(wst.clients)
}

// readLoop discards client messages and unregisters on disconnect.
func (wst *WebSocketTransport) readLoop(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	wst.remove(c)
}

func (wst *WebSocketTransport) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Warnf("WebSocketTransport: Error sending to client: %v", err)
			wst.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (wst *WebSocketTransport) remove(c *wsClient) {
	wst.mu.Lock()
	_, ok := wst.clients[c]
	delete(wst.clients, c)
	total := len(wst.clients)
	wst.mu.Unlock()
	if ok {
		c.close()
		log.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}
}

// Send marshals the snapshot once and queues it for every client.
func (wst *WebSocketTransport) Send(snap pipeline.Snapshot) error {
	wst.mu.Lock()
	defer wst.mu.Unlock()
	if len(wst.clients) == 0 {
		return nil
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	for c := range wst.clients {
		select {
		case c.send <- msg:
		default:
			// Client queue full, drop message.
		}
	}
	return nil
}

// Close disconnects all clients. Later upgrades are refused.
func (wst *WebSocketTransport) Close() error {
	wst.mu.Lock()
	defer wst.mu.Unlock()
	wst.closed = true
	for c := range wst.clients {
		c.close()
		delete(wst.clients, c)
	}
	log.Infof("WebSocketTransport: Closed")
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
