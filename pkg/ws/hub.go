package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Connection is one websocket client. Writes are serialized through a
// buffered send channel; the write pump owns the underlying conn.
type Connection struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *Connection) Send(message []byte) {
	select {
	case c.send <- message:
	default:
		// Slow consumer: drop instead of blocking the broadcaster.
	}
}

func (c *Connection) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

type HubOptions struct {
	Logger       *logrus.Logger
	CheckOrigin  func(r *http.Request) bool
	OnConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	OnDisconnect func(conn *Connection)
}

type Huber interface {
	http.Handler
	JoinChannel(channel string, conn *Connection)
	LeaveChannel(channel string, conn *Connection)
	BroadcastToChannel(channel string, message []byte)
	ConnectionsInChannel(channel string) int
}

type Hub struct {
	logger       *logrus.Logger
	upgrader     websocket.Upgrader
	onConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	onDisconnect func(conn *Connection)

	mu       sync.RWMutex
	channels map[string]map[*Connection]struct{}
}

func NewHub(opts *HubOptions) *Hub {
	return &Hub{
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		onConnect:    opts.OnConnect,
		onDisconnect: opts.OnDisconnect,
		channels:     make(map[string]map[*Connection]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := &Connection{
		conn: wsConn,
		send: make(chan []byte, 64),
	}

	if h.onConnect != nil {
		if err := h.onConnect(r, h, conn); err != nil {
			h.logger.WithError(err).Warn("websocket connect callback rejected connection")
			conn.close()
			return
		}
	}

	go h.writePump(conn)
	go h.readPump(conn)
}

func (h *Hub) writePump(conn *Connection) {
	for message := range conn.send {
		if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) readPump(conn *Connection) {
	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) drop(conn *Connection) {
	h.mu.Lock()
	for channel, conns := range h.channels {
		if _, ok := conns[conn]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.channels, channel)
			}
		}
	}
	h.mu.Unlock()

	conn.close()
	if h.onDisconnect != nil {
		h.onDisconnect(conn)
	}
}

func (h *Hub) JoinChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.channels[channel]
	if !ok {
		conns = make(map[*Connection]struct{})
		h.channels[channel] = conns
	}
	conns[conn] = struct{}{}
}

func (h *Hub) LeaveChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.channels[channel]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
	}
}

func (h *Hub) BroadcastToChannel(channel string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.channels[channel] {
		conn.Send(message)
	}
}

func (h *Hub) ConnectionsInChannel(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
