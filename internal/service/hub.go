package service

import (
	"log"
	"strconv"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// WSConn is the subset of the websocket connection the hub writes to.
// Tests substitute a fake.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection with an authenticated identity.
type Client struct {
	Conn     WSConn
	UserID   int64
	Username string
	Send     chan []byte

	mu          sync.Mutex
	currentRoom string
	closed      bool
}

// SetCurrentRoom records which conversation the connection is viewing. It
// only decides notification suppression, never delivery.
func (c *Client) SetCurrentRoom(room string) {
	c.mu.Lock()
	c.currentRoom = room
	c.mu.Unlock()
}

func (c *Client) CurrentRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentRoom
}

// TrySend queues an event without blocking. It reports false only for a
// full buffer (slow consumer); a send after the channel closed is silently
// dropped, since delivery can race teardown — the presence registry may
// still snapshot a connection the hub has already unregistered.
func (c *Client) TrySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes Send exactly once; TrySend refuses delivery from then
// on. The hub calls this on unregister and on the slow-consumer drop.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// WritePump is the single writer for the connection. It drains Send until
// the hub closes it on unregister, or until a write fails.
func (c *Client) WritePump() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// RoomKey names the conversation room for an unordered user pair. Both
// participants must compute the identical key, so the pair is sorted first.
func RoomKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return strconv.FormatInt(a, 10) + ":" + strconv.FormatInt(b, 10)
}

// Hub owns connection registration, per-pair rooms and event fan-out.
// Personal channels are backed by the presence registry's connection sets.
type Hub struct {
	presence *PresenceRegistry

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

func NewHub(presence *PresenceRegistry) *Hub {
	return &Hub{
		presence:   presence,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: %s connected (total: %d)", client.Username, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.leaveAllLocked(client)
				client.closeSend()
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WS: %s disconnected (total: %d)", client.Username, total)

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.TrySend(data) {
					delete(h.clients, client)
					h.leaveAllLocked(client)
					client.closeSend()
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event for every connection (presence transitions).
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
}

func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// leaveAllLocked drops a client from every room. Caller holds h.mu.
func (h *Hub) leaveAllLocked(client *Client) {
	for room, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SendToRoom delivers to every room member, optionally excluding one
// connection (typing relays are emit-to-others).
func (h *Hub) SendToRoom(room string, data []byte, except *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		if client == except {
			continue
		}
		client.TrySend(data)
	}
}

// SendToConversation delivers to the union of the pair room and both
// participants' personal channels, exactly once per connection. A viewer
// with the thread open sits in both the room and a personal channel; the
// union keeps the no-duplicates guarantee.
func (h *Hub) SendToConversation(room string, userA, userB int64, data []byte) {
	targets := make(map[*Client]bool)

	h.mu.RLock()
	for client := range h.rooms[room] {
		targets[client] = true
	}
	h.mu.RUnlock()

	for _, client := range h.presence.Connections(userA) {
		targets[client] = true
	}
	if userB != userA {
		for _, client := range h.presence.Connections(userB) {
			targets[client] = true
		}
	}

	for client := range targets {
		client.TrySend(data)
	}
}
