package notifications

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"kforum/internal/middleware"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

// Hub tracks live websocket clients on this instance and fans Redis
// messages out to them.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
	total int
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// RegisterClient adds a client, enforcing per-user and global limits.
// Returns false when a limit is hit; the caller must close the connection.
func (h *Hub) RegisterClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return false
	}
	set := h.conns[c.UserID]
	if len(set) >= maxConnsPerUser {
		return false
	}
	if set == nil {
		set = make(map[*Client]struct{})
		h.conns[c.UserID] = set
	}
	set[c] = struct{}{}
	h.total++
	return true
}

func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	h.total--
	if len(set) == 0 {
		delete(h.conns, c.UserID)
	}
}

// Broadcast delivers a message to all connections of a single user.
func (h *Hub) Broadcast(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns[userID] {
		c.TrySend(message)
	}
}

// BroadcastAll delivers a message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.conns {
		for c := range set {
			c.TrySend(message)
		}
	}
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// StartWiring connects the hub to the notifier's Redis subscription so
// that events published by any instance reach this instance's clients.
func (h *Hub) StartWiring(ctx context.Context, notifier *Notifier) error {
	return notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.BroadcastAll([]byte(payload))
			return
		}
		idStr, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			middleware.Logger.Warn("unparseable notification channel", "channel", channel)
			return
		}
		h.Broadcast(uint(id), []byte(payload))
	})
}

// Shutdown closes every client connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, h.total)
	for _, set := range h.conns {
		for c := range set {
			clients = append(clients, c)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
