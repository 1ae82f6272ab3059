package realtime

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// RoomStaff receives every event; staff and kitchen dashboards join it.
	RoomStaff = "staff"

	EventNewOrder           = "new_order"
	EventOrderStatusUpdated = "order_status_updated"
	EventTableUpdated       = "table_updated"
	EventStaffCalled        = "staff_called"
)

type Client struct {
	ID    string
	Send  chan []byte
	rooms map[string]struct{}
}

type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (h *Hub) Register(id string) *Client {
	client := &Client{
		ID:    id,
		Send:  make(chan []byte, 16),
		rooms: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.rooms[room] = struct{}{}
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.rooms, room)
}

// Broadcast sends the event to every client subscribed to any of the rooms.
// Slow clients are skipped rather than blocking the caller.
func (h *Hub) Broadcast(event string, data interface{}, rooms ...string) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.WithError(err).Error("realtime: marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.inAny(rooms) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			h.log.WithField("client", client.ID).Warn("realtime: dropping message for slow client")
		}
	}
}

func (c *Client) inAny(rooms []string) bool {
	for _, r := range rooms {
		if _, ok := c.rooms[r]; ok {
			return true
		}
	}
	return false
}

// TableRoom is the per-table channel customer sockets subscribe to.
func TableRoom(tableID uint) string {
	return "table:" + strconv.FormatUint(uint64(tableID), 10)
}
