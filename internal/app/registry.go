package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mafia/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// maxCodeAttempts bounds the search for an unused room code
	maxCodeAttempts = 10
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Stats is a point-in-time view of the registry
type Stats struct {
	ActiveRooms      int `json:"activeRooms"`
	PlayingRooms     int `json:"playingRooms"`
	TotalPlayers     int `json:"totalPlayers"`
	ConnectedPlayers int `json:"connectedPlayers"`
}

// Registry maps room ids to rooms. It is owned by the coordinator loop and
// is not safe for concurrent use.
type Registry struct {
	rooms          map[string]*domain.Room
	rules          domain.GameSettings
	roomCodeLength int
	logger         *slog.Logger
}

// NewRegistry creates an empty registry. New rooms get the given rules.
func NewRegistry(rules domain.GameSettings, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:          make(map[string]*domain.Room),
		rules:          rules,
		roomCodeLength: DefaultRoomCodeLength,
		logger:         logger,
	}
}

// GetOrCreate returns the room for id, creating it if it does not exist.
// id must already be normalized.
func (r *Registry) GetOrCreate(id string, now time.Time) (*domain.Room, bool) {
	if room, ok := r.rooms[id]; ok {
		return room, false
	}

	room := domain.NewRoom(id, r.rules, now)
	r.rooms[id] = room
	r.logger.Info("room created", "roomID", id)
	return room, true
}

// Get returns a room by id
func (r *Registry) Get(id string) (*domain.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Remove deletes a room. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	if _, ok := r.rooms[id]; ok {
		delete(r.rooms, id)
		r.logger.Info("room deleted", "roomID", id)
	}
}

// Len returns the number of rooms
func (r *Registry) Len() int {
	return len(r.rooms)
}

// IDs returns the room ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sweep deletes rooms that are empty or idle past expiry, and prunes lobby
// players whose connection is gone and who have not been seen within grace.
// It returns the deleted room ids and the surviving rooms that changed.
func (r *Registry) Sweep(now time.Time, expiry, grace time.Duration, connected func(connRef string) bool) ([]string, []*domain.Room) {
	var removed []string
	var changed []*domain.Room

	for _, id := range r.IDs() {
		room, ok := r.rooms[id]
		if !ok {
			continue
		}

		if room.Empty() || now.Sub(room.LastActiveAt) > expiry {
			r.Remove(id)
			removed = append(removed, id)
			continue
		}

		if !room.PruneStale(now, grace, connected) {
			continue
		}
		if room.Empty() {
			r.Remove(id)
			removed = append(removed, id)
			continue
		}
		changed = append(changed, room)
	}

	return removed, changed
}

// GenerateCode returns a random room code that is not in use
func (r *Registry) GenerateCode() (string, error) {
	for attempts := 0; attempts < maxCodeAttempts; attempts++ {
		code, err := r.randomCode()
		if err != nil {
			return "", err
		}
		if _, exists := r.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique room code after %d attempts", maxCodeAttempts)
}

// Snapshot counts rooms and players
func (r *Registry) Snapshot() Stats {
	var stats Stats
	for _, room := range r.rooms {
		stats.ActiveRooms++
		if room.Status == domain.StatusPlaying {
			stats.PlayingRooms++
		}
		for _, p := range room.Players {
			stats.TotalPlayers++
			if p.Connected {
				stats.ConnectedPlayers++
			}
		}
	}
	return stats
}

// randomCode generates a random room code
func (r *Registry) randomCode() (string, error) {
	b := make([]byte, r.roomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	code := make([]byte, r.roomCodeLength)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code), nil
}
