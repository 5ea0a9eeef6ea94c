// Package control is the read-only inspection surface of spec.md §6:
// HTTP endpoints for listing ships, contracts, trade routes and
// waypoints, plus a WebSocket that forwards the ship-snapshot broadcast
// verbatim. Grounded on
// _examples/EverforgeWorks-Galaxies-Server/internal/api/hub.go's
// register/unregister/broadcast hub shape, adapted from a game-client
// fan-out to a one-way telemetry feed (no client ever sends a message
// back up the socket here — the core's responsibility per §6 is only to
// "expose the two broadcast subscriptions", not to accept commands).
package control

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/acdtunes/fleetctl/internal/domain/ship"
)

// Envelope is the JSON shape every message pushed down the WebSocket
// carries: a {type, payload} tag so a single socket can multiplex ship
// and agent snapshots.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one connected inspector (browser tab, curl --http2, etc).
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Envelope
}

// Hub fans out ship-snapshot and agent-snapshot broadcasts to every
// connected inspector. There is no inbound message path: the core
// never accepts writes through this surface.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Envelope
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Envelope, 64),
	}
}

// Run is the hub's single-goroutine event loop; it must be running
// before ServeWS handles its first request (Server.ListenAndServe
// starts it before serving).
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case env := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- env:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// PublishShipSnapshot forwards a ship-manager broadcast verbatim (§6).
func (h *Hub) PublishShipSnapshot(snap ship.Snapshot) {
	select {
	case h.broadcast <- Envelope{Type: "ship_snapshot", Payload: snap}:
	default:
		log.Printf("control: hub broadcast buffer full, dropping ship_snapshot for %s", snap.Symbol)
	}
}

// AgentSnapshot is the periodic credits/agent-identity broadcast (§6
// "the agent-snapshot broadcast").
type AgentSnapshot struct {
	Symbol  string `json:"symbol"`
	Credits int64  `json:"credits"`
}

func (h *Hub) PublishAgentSnapshot(snap AgentSnapshot) {
	select {
	case h.broadcast <- Envelope{Type: "agent_snapshot", Payload: snap}:
	default:
		log.Printf("control: hub broadcast buffer full, dropping agent_snapshot")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers a new inspector client. The
// client never reads application messages in (it only drains the socket
// to detect close), since this feed is one-way.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("control: websocket upgrade failed: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan Envelope, 32)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) writePump() {
	defer c.conn.Close()
	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}

// readPump only exists to notice the client closing the connection;
// any message it sends up is ignored and decoded just far enough to
// drain the buffer.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}
