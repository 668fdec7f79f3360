package app

import "mafia/internal/domain"

// Notifier delivers events to transport connections
type Notifier interface {
	// Send delivers an event to one connection
	Send(connRef string, event *domain.GameEvent) error

	// Connected reports whether connRef still resolves to a live connection
	Connected(connRef string) bool
}
