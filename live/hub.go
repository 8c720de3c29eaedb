package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types pushed to season rooms.
const (
	EventLeaderboardUpdated = "LEADERBOARD_UPDATED"
	EventAdminChanged       = "ADMIN_CHANGED"
)

// Message is the wire envelope for room broadcasts.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	RoomID  string `json:"room_id,omitempty"`
}

// SeasonRoom names the room clients of one season share.
func SeasonRoom(seasonCode string) string {
	return "season_" + seasonCode
}

// Hub fans messages out to websocket clients grouped into per-season rooms.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[string]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("websocket client registered",
				slog.String("room", client.room),
				slog.Int("clients", len(h.rooms[client.room])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, ok := clients[client]; ok {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends one message to every client in the room. Clients
// that cannot keep up are skipped; their write pump will notice eventually.
func (h *Hub) BroadcastToRoom(roomID string, message Message) {
	message.RoomID = roomID

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal room broadcast",
			slog.String("room", roomID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		client.trySend(data)
	}
}
