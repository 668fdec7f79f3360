package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventRosterUpdate        EventType = "ROSTER_UPDATE"
	EventHostChanged         EventType = "HOST_CHANGED"
	EventJoined              EventType = "JOINED"
	EventStateSync           EventType = "STATE_SYNC"
	EventGameStarting        EventType = "GAME_STARTING"
	EventRoleAssigned        EventType = "ROLE_ASSIGNED"
	EventPhaseChange         EventType = "PHASE_CHANGE"
	EventNightBegins         EventType = "NIGHT_BEGINS"
	EventDayBegins           EventType = "DAY_BEGINS"
	EventActionAccepted      EventType = "ACTION_ACCEPTED"
	EventMafiaAction         EventType = "MAFIA_ACTION"
	EventInvestigationResult EventType = "INVESTIGATION_RESULT"
	EventVoteTally           EventType = "VOTE_TALLY"
	EventVoteResult          EventType = "VOTE_RESULT"
	EventPlayerEliminated    EventType = "PLAYER_ELIMINATED"
	EventGameOver            EventType = "GAME_OVER"
	EventRoleReveal          EventType = "ROLE_REVEAL"
	EventChatMessage         EventType = "CHAT_MESSAGE"
	EventMafiaChat           EventType = "MAFIA_CHAT"
	EventError               EventType = "ERROR"
)

// GameEvent represents an event that occurred in a room
type GameEvent struct {
	Type      EventType   `json:"type"`
	RoomID    string      `json:"roomId"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new room-wide event
func NewEvent(eventType EventType, roomID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific event
func NewPlayerEvent(eventType EventType, roomID, playerID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		RoomID:    roomID,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// IsUnicast returns true if the event targets a single player
func (e *GameEvent) IsUnicast() bool {
	return e.PlayerID != ""
}

// Payload types for different events

// RosterPayload is sent whenever membership, readiness or settings change
type RosterPayload struct {
	Players  []PlayerInfo `json:"players"`
	HostID   string       `json:"hostId"`
	Status   Status       `json:"status"`
	Settings RoleSettings `json:"settings"`
	CanStart bool         `json:"canStart"`
}

// HostChangedPayload is sent when host privileges move to another player
type HostChangedPayload struct {
	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`
}

// JoinedPayload answers a join or reconnect to the caller
type JoinedPayload struct {
	PlayerID    string `json:"playerId"`
	HostID      string `json:"hostId"`
	Reconnected bool   `json:"reconnected"`
}

// StateSyncPayload lets a (re)joining client rebuild its view of the room
type StateSyncPayload struct {
	Status      Status         `json:"status"`
	Phase       Phase          `json:"phase"`
	Round       int            `json:"round"`
	Role        Role           `json:"role,omitempty"`
	Alive       bool           `json:"alive"`
	FellowMafia []PlayerInfo   `json:"fellowMafia,omitempty"`
	Tally       map[string]int `json:"tally,omitempty"`
	Winner      Faction        `json:"winner,omitempty"`
}

// GameStartingPayload announces that roles are being dealt
type GameStartingPayload struct {
	Players  []PlayerInfo `json:"players"`
	Settings RoleSettings `json:"settings"`
}

// RoleAssignedPayload is sent to each player with their role
type RoleAssignedPayload struct {
	Role        Role         `json:"role"`
	FellowMafia []PlayerInfo `json:"fellowMafia,omitempty"` // Only for mafia
}

// PhaseChangePayload is sent on every phase transition
type PhaseChangePayload struct {
	Status Status `json:"status"`
	Phase  Phase  `json:"phase"`
	Round  int    `json:"round"`
}

// NightBeginsPayload opens a night
type NightBeginsPayload struct {
	Round        int          `json:"round"`
	AlivePlayers []PlayerInfo `json:"alivePlayers"`
}

// DayBeginsPayload opens a day and reports the night's victims
type DayBeginsPayload struct {
	Round        int          `json:"round"`
	Killed       []string     `json:"killed"`
	AlivePlayers []PlayerInfo `json:"alivePlayers"`
}

// ActionAcceptedPayload confirms a night action to its actor
type ActionAcceptedPayload struct {
	ActionType ActionType `json:"actionType"`
	TargetID   string     `json:"targetId"`
}

// MafiaActionPayload tells living mafia which target a teammate picked
type MafiaActionPayload struct {
	ActorID    string `json:"actorId"`
	ActorName  string `json:"actorName"`
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
}

// InvestigationResultPayload is the detective's private answer
type InvestigationResultPayload struct {
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
	IsMafia    bool   `json:"isMafia"`
}

// VoteTallyPayload is the live count during the day
type VoteTallyPayload struct {
	Tally      map[string]int `json:"tally"` // targetID -> votes
	VotedCount int            `json:"votedCount"`
	AliveCount int            `json:"aliveCount"`
}

// VoteResultPayload closes a day
type VoteResultPayload struct {
	Tally        map[string]int `json:"tally"`
	EliminatedID string         `json:"eliminatedId,omitempty"`
	Tie          bool           `json:"tie"`
}

// PlayerEliminatedPayload is sent for every death
type PlayerEliminatedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Phase    Phase  `json:"phase"`
	Votes    int    `json:"votes,omitempty"` // Only for day eliminations
}

// GameOverPayload announces the winner
type GameOverPayload struct {
	Winner Faction `json:"winner"`
}

// RoleRevealPayload shows every role once the game is over
type RoleRevealPayload struct {
	Players []RoleInfo `json:"players"`
}

// ChatPayload carries a chat line
type ChatPayload struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

// ErrorPayload is sent when a command is rejected
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
