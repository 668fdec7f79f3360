package domain

import "time"

// Player represents a member of a room
type Player struct {
	ID         string    `json:"id"`
	ConnRef    string    `json:"-"`
	Name       string    `json:"name"`
	Role       Role      `json:"role,omitempty"`
	Alive      bool      `json:"alive"`
	Ready      bool      `json:"ready"`
	Connected  bool      `json:"connected"`
	JoinedAt   time.Time `json:"joinedAt"`
	LastSeenAt time.Time `json:"-"`

	// seq is the join order within the room, used for host succession
	seq uint64
}

// NewPlayer creates a new lobby player with the given ID and name
func NewPlayer(id, name, connRef string, now time.Time) *Player {
	return &Player{
		ID:         id,
		ConnRef:    connRef,
		Name:       name,
		Alive:      true,
		Connected:  connRef != "",
		JoinedAt:   now,
		LastSeenAt: now,
	}
}

// Reconnect binds the player to a new connection. Last reconnect wins.
func (p *Player) Reconnect(connRef string, now time.Time) {
	p.ConnRef = connRef
	p.Connected = true
	p.LastSeenAt = now
}

// Disconnect marks the player as unreachable without removing them
func (p *Player) Disconnect(now time.Time) {
	p.Connected = false
	p.LastSeenAt = now
}

// Touch records activity from the player
func (p *Player) Touch(now time.Time) {
	p.LastSeenAt = now
}

// CanAct returns true if the player is alive and holds a role with a night action
func (p *Player) CanAct() bool {
	if !p.Alive {
		return false
	}
	_, ok := p.Role.NightAction()
	return ok
}

// PlayerInfo is a safe view of player data (hides role from other players)
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Alive     bool   `json:"alive"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"isHost"`
}

// ToInfo converts a Player to PlayerInfo (without role)
func (p *Player) ToInfo(hostID string) PlayerInfo {
	return PlayerInfo{
		ID:        p.ID,
		Name:      p.Name,
		Alive:     p.Alive,
		Ready:     p.Ready,
		Connected: p.Connected,
		IsHost:    p.ID == hostID,
	}
}

// RoleInfo is the public view of a player's role, used for the final reveal
type RoleInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Alive bool   `json:"alive"`
}
