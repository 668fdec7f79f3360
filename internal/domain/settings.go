package domain

import (
	"fmt"
	"time"
)

// RoleSettings configures how many special roles are dealt at game start.
// Whatever is left over is dealt as villagers.
type RoleSettings struct {
	MafiaCount     int `json:"mafiaCount"`
	DetectiveCount int `json:"detectiveCount"`
	DoctorCount    int `json:"doctorCount"`
}

// DefaultRoleSettings scales the role mix to the number of players
func DefaultRoleSettings(playerCount int) RoleSettings {
	return RoleSettings{
		MafiaCount:     max(1, playerCount/4),
		DetectiveCount: 1,
		DoctorCount:    1,
	}
}

// Total returns the number of special roles
func (s RoleSettings) Total() int {
	return s.MafiaCount + s.DetectiveCount + s.DoctorCount
}

// Validate checks the settings against the current head count
func (s RoleSettings) Validate(playerCount int) error {
	if s.MafiaCount < 1 {
		return fmt.Errorf("%w: at least one mafia is required", ErrInvalidRoleSettings)
	}
	if s.DetectiveCount < 0 || s.DoctorCount < 0 {
		return fmt.Errorf("%w: role counts cannot be negative", ErrInvalidRoleSettings)
	}
	if s.Total() > playerCount {
		return fmt.Errorf("%w: %d roles configured for %d players", ErrInvalidRoleSettings, s.Total(), playerCount)
	}
	return nil
}

// GameSettings holds the per-room rules that come from server configuration
type GameSettings struct {
	MinPlayers      int           `json:"minPlayers"`
	MaxPlayers      int           `json:"maxPlayers"`
	RoleRevealDelay time.Duration `json:"roleRevealDelay"`
	NightDelay      time.Duration `json:"nightDelay"`

	// MultipleMafiaKills lets every distinct mafia target die in one night.
	// When false only the mafia's plurality choice is a kill candidate.
	MultipleMafiaKills bool `json:"multipleMafiaKills"`
}

// DefaultGameSettings returns the default game settings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MinPlayers:         3,
		MaxPlayers:         16,
		RoleRevealDelay:    5 * time.Second,
		NightDelay:         3 * time.Second,
		MultipleMafiaKills: true,
	}
}
