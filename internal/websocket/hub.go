package websocket

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a closed or saturated client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is a live dashboard subscriber
type ClientInterface interface {
	ID() string
	WorkspaceID() int32
	Send(data []byte) error
	Close() error
}

// Hub fans dashboard events out to the subscribers of each workspace.
// It is safe for concurrent use.
type Hub struct {
	subscribers map[int32]map[string]ClientInterface
	mu          sync.RWMutex
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int32]map[string]ClientInterface),
	}
}

// Register subscribes a client to its workspace's events
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	if h.subscribers[workspaceID] == nil {
		h.subscribers[workspaceID] = make(map[string]ClientInterface)
	}
	h.subscribers[workspaceID][client.ID()] = client

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Int("subscribers", len(h.subscribers[workspaceID])).
		Msg("Dashboard subscriber registered")
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client.WorkspaceID(), client.ID())
}

func (h *Hub) removeLocked(workspaceID int32, clientID string) bool {
	clients, ok := h.subscribers[workspaceID]
	if !ok {
		return false
	}
	if _, exists := clients[clientID]; !exists {
		return false
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.subscribers, workspaceID)
	}
	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("Dashboard subscriber unregistered")
	return true
}

// DisconnectWorkspace closes and removes every subscriber of a workspace,
// returning how many were dropped
func (h *Hub) DisconnectWorkspace(workspaceID int32) int {
	h.mu.Lock()
	clients := h.subscribers[workspaceID]
	delete(h.subscribers, workspaceID)
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", c.ID()).Msg("Close subscriber")
		}
	}
	if len(clients) > 0 {
		log.Info().
			Int32("workspace_id", workspaceID).
			Int("subscribers", len(clients)).
			Msg("Workspace subscribers disconnected")
	}
	return len(clients)
}

// Broadcast sends an event to all subscribers of a workspace. Sends run
// asynchronously so a slow subscriber never blocks the publisher.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.subscribers[workspaceID]))
	for _, c := range h.subscribers[workspaceID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, c := range targets {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("workspace_id", workspaceID).
					Str("client_id", c.ID()).
					Msg("Dropped event for subscriber")
			}
		}(c)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("subscribers", len(targets)).
		Msg("Broadcast event")
}

// ClientCount returns the number of subscribers of a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[workspaceID])
}

// TotalClientCount returns the number of subscribers across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.subscribers {
		total += len(clients)
	}
	return total
}

// Workspaces lists the workspaces that have at least one subscriber
func (h *Hub) Workspaces() []int32 {
	h.mu.RLock()
	ids := make([]int32, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
