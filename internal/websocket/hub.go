package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

// Message is a real-time notification broadcast to all connected dashboards.
// Workflow events (awards, redemptions, conclusions) are forwarded as-is;
// catalog changes use entity/action pairs.
type Message struct {
	Type          string `json:"type"`
	VolunteerID   int64  `json:"volunteer_id,omitempty"`
	OpportunityID int64  `json:"opportunity_id,omitempty"`
	ApplicationID int64  `json:"application_id,omitempty"`
	BenefitID     int64  `json:"benefit_id,omitempty"`
	Points        int    `json:"points,omitempty"`
	Balance       int    `json:"balance,omitempty"`
}

// FromEvent converts a committed workflow event into a broadcast message.
func FromEvent(ev workflow.Event) Message {
	return Message{
		Type:          ev.Type,
		VolunteerID:   ev.VolunteerID,
		OpportunityID: ev.OpportunityID,
		ApplicationID: ev.ApplicationID,
		BenefitID:     ev.BenefitID,
		Points:        ev.Points,
		Balance:       ev.Balance,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
