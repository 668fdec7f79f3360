package ws

import (
	"errors"
	"log/slog"
	"sync"

	"mafia/internal/domain"
)

// ErrConnectionGone is returned when sending to an unknown connection
var ErrConnectionGone = errors.New("connection gone")

// Gateway tracks live WebSocket clients by connection reference and
// delivers room events to them. It implements app.Notifier.
type Gateway struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

// NewGateway creates an empty gateway
func NewGateway(logger *slog.Logger) *Gateway {
	return &Gateway{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register makes a client reachable under its connection reference
func (g *Gateway) Register(client *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[client.ConnRef()] = client
}

// Unregister forgets a client if it is still the one registered
func (g *Gateway) Unregister(client *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if current, ok := g.clients[client.ConnRef()]; ok && current == client {
		delete(g.clients, client.ConnRef())
	}
}

// Send implements app.Notifier
func (g *Gateway) Send(connRef string, event *domain.GameEvent) error {
	g.mu.RLock()
	client, ok := g.clients[connRef]
	g.mu.RUnlock()

	if !ok {
		return ErrConnectionGone
	}
	return client.Send(FromEvent(event))
}

// Connected implements app.Notifier
func (g *Gateway) Connected(connRef string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.clients[connRef]
	return ok
}

// Count returns the number of live connections
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// CloseAll closes every connection
func (g *Gateway) CloseAll() {
	g.mu.Lock()
	clients := make([]*Client, 0, len(g.clients))
	for _, client := range g.clients {
		clients = append(clients, client)
	}
	g.clients = make(map[string]*Client)
	g.mu.Unlock()

	for _, client := range clients {
		if err := client.Close(); err != nil {
			g.logger.Debug("failed to close client", "connRef", client.ConnRef(), "error", err)
		}
	}
}
