package notifications

import (
	"sync"

	"github.com/gorilla/websocket"
)

// AdminRoom receives every persisted studio event.
const AdminRoom = "admin"

// EntityRoom names the room for availability watchers of one listing.
func EntityRoom(entityType, entityID string) string {
	return entityType + ":" + entityID
}

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			// the broadcast path may already have dropped a slow client;
			// only close Send once
			if conns := h.rooms[c.Room]; conns != nil {
				if _, ok := conns[c]; ok {
					delete(conns, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.rooms[m.Room], c)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for room, conns := range h.rooms {
				for c := range conns {
					close(c.Send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every client send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues data for every client in a room. Safe to call after
// Stop; the message is simply dropped.
func (h *Hub) Broadcast(room string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
	case <-h.done:
	}
}
