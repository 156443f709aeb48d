package live

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	ws "github.com/gorilla/websocket"

	"staffattendance/internal/attendance"
)

// Event types pushed to dashboards.
const (
	TypeInit = "attendance:init"
	TypeNew  = "attendance:new"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is the frame written to every client.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Hub fans check-ins out to connected dashboards.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	lg         *log.Logger
	upgrader   ws.Upgrader
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewHub(lg *log.Logger) *Hub {
	if lg == nil {
		lg = log.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
		lg:         lg,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the route is token protected; CORS is handled by the router
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run owns the client set until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

func encode(typ string, payload map[string]any) ([]byte, error) {
	return sonic.ConfigStd.Marshal(Event{Type: typ, Payload: payload})
}

// BroadcastCheckIn announces a stored record and today's running total.
// It never blocks the caller; a full buffer drops the frame.
func (h *Hub) BroadcastCheckIn(rec attendance.Record, total int) {
	data, err := encode(TypeNew, map[string]any{"record": rec, "total": total})
	if err != nil {
		h.lg.Printf("failed to marshal broadcast payload: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.lg.Println("live feed busy, dropping check-in broadcast")
	}
}

// ServeWS upgrades the request and sends initial as the first frame.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial []attendance.Record) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Printf("websocket upgrade failed: %v", err)
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}

	if data, err := encode(TypeInit, map[string]any{"data": initial, "total": len(initial)}); err == nil {
		client.send <- data
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
				c.hub.lg.Printf("websocket read error: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
