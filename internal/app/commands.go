package app

import "mafia/internal/domain"

// Command is a client request decoded by the transport. ConnRef identifies
// the connection it came from; except for Join and Reconnect, the room and
// player are resolved from that connection's binding.
type Command interface {
	origin() string
}

// Join enters a room, creating it if needed. A known PlayerID rejoins.
type Join struct {
	ConnRef  string
	RoomID   string
	Name     string
	PlayerID string
}

// Reconnect rebinds an existing player to a new connection
type Reconnect struct {
	ConnRef  string
	RoomID   string
	PlayerID string
}

// SetReady toggles readiness in the lobby
type SetReady struct {
	ConnRef string
	Ready   bool
}

// UpdateRoleSettings replaces the role mix (host only)
type UpdateRoleSettings struct {
	ConnRef  string
	Settings domain.RoleSettings
}

// StartGame deals roles (host only)
type StartGame struct {
	ConnRef string
}

// NightAction submits a kill, save or investigation
type NightAction struct {
	ConnRef  string
	Action   domain.ActionType
	TargetID string
}

// DayVote votes to eliminate a player
type DayVote struct {
	ConnRef  string
	TargetID string
}

// Leave removes the player from the room for good
type Leave struct {
	ConnRef string
}

// Disconnect is emitted by the transport when a connection drops
type Disconnect struct {
	ConnRef string
}

// Chat is a message to the whole room
type Chat struct {
	ConnRef string
	Text    string
}

// MafiaChat is a message to the living mafia
type MafiaChat struct {
	ConnRef string
	Text    string
}

func (c Join) origin() string               { return c.ConnRef }
func (c Reconnect) origin() string          { return c.ConnRef }
func (c SetReady) origin() string           { return c.ConnRef }
func (c UpdateRoleSettings) origin() string { return c.ConnRef }
func (c StartGame) origin() string          { return c.ConnRef }
func (c NightAction) origin() string        { return c.ConnRef }
func (c DayVote) origin() string            { return c.ConnRef }
func (c Leave) origin() string              { return c.ConnRef }
func (c Disconnect) origin() string         { return c.ConnRef }
func (c Chat) origin() string               { return c.ConnRef }
func (c MafiaChat) origin() string          { return c.ConnRef }
