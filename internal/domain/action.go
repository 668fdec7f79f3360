package domain

import "time"

// ActionType is the kind of a night action
type ActionType string

const (
	ActionKill        ActionType = "KILL"
	ActionSave        ActionType = "SAVE"
	ActionInvestigate ActionType = "INVESTIGATE"
)

// NightAction represents an action submitted by a player during the night
type NightAction struct {
	ActorID   string     `json:"actorId"`
	Type      ActionType `json:"type"`
	TargetID  string     `json:"targetId"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewNightAction creates a new night action
func NewNightAction(actorID string, actionType ActionType, targetID string, now time.Time) *NightAction {
	return &NightAction{
		ActorID:   actorID,
		Type:      actionType,
		TargetID:  targetID,
		Timestamp: now,
	}
}

// ParseActionType validates a wire action type
func ParseActionType(s string) (ActionType, bool) {
	switch at := ActionType(s); at {
	case ActionKill, ActionSave, ActionInvestigate:
		return at, true
	default:
		return "", false
	}
}
