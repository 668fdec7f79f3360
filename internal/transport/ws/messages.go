package ws

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mafia/internal/app"
	"mafia/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoin               MessageType = "join"
	MsgSetReady           MessageType = "set_ready"
	MsgUpdateRoleSettings MessageType = "update_role_settings"
	MsgStartGame          MessageType = "start_game"
	MsgNightAction        MessageType = "night_action"
	MsgDayVote            MessageType = "day_vote"
	MsgLeaveLobby         MessageType = "leave_lobby"
	MsgReconnect          MessageType = "reconnect"
	MsgChat               MessageType = "chat"
	MsgMafiaChat          MessageType = "mafia_chat"
	MsgPing               MessageType = "ping"
)

// Server → Client message types not produced by rooms
const (
	MsgError MessageType = MessageType(domain.EventError)
	MsgPong  MessageType = "PONG"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	RoomID    string      `json:"roomId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FromEvent wraps a room event for the wire
func FromEvent(event *domain.GameEvent) *ServerMessage {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ServerMessage{
		Type:      MessageType(event.Type),
		RoomID:    event.RoomID,
		Payload:   event.Payload,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// JoinPayload is the payload for join message
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`
	PlayerID string `json:"playerId,omitempty"`
}

// ReconnectPayload is the payload for reconnect message
type ReconnectPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// SetReadyPayload is the payload for set_ready message
type SetReadyPayload struct {
	Ready bool `json:"ready"`
}

// UpdateRoleSettingsPayload is the payload for update_role_settings message
type UpdateRoleSettingsPayload struct {
	MafiaCount     *int `json:"mafiaCount"`
	DetectiveCount *int `json:"detectiveCount"`
	DoctorCount    *int `json:"doctorCount"`
}

// NightActionPayload is the payload for night_action message
type NightActionPayload struct {
	Action   string `json:"action"`
	TargetID string `json:"targetId"`
}

// DayVotePayload is the payload for day_vote message
type DayVotePayload struct {
	TargetID string `json:"targetId"`
}

// ChatPayload is the payload for chat and mafia_chat messages
type ChatPayload struct {
	Text string `json:"text"`
}

// DecodeMessage parses a raw frame
func DecodeMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: invalid message format", domain.ErrValidation)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: message type is required", domain.ErrValidation)
	}
	return msg, nil
}

// Command converts the message into a coordinator command for connRef
func (m ClientMessage) Command(connRef string) (app.Command, error) {
	switch m.Type {
	case MsgJoin:
		var p JoinPayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.RoomID) == "" {
			return nil, fmt.Errorf("%w: roomId is required", domain.ErrValidation)
		}
		return app.Join{ConnRef: connRef, RoomID: p.RoomID, Name: p.Name, PlayerID: p.PlayerID}, nil

	case MsgReconnect:
		var p ReconnectPayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		if p.RoomID == "" || p.PlayerID == "" {
			return nil, fmt.Errorf("%w: roomId and playerId are required", domain.ErrValidation)
		}
		return app.Reconnect{ConnRef: connRef, RoomID: p.RoomID, PlayerID: p.PlayerID}, nil

	case MsgSetReady:
		var p SetReadyPayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		return app.SetReady{ConnRef: connRef, Ready: p.Ready}, nil

	case MsgUpdateRoleSettings:
		var p UpdateRoleSettingsPayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		if p.MafiaCount == nil || p.DetectiveCount == nil || p.DoctorCount == nil {
			return nil, fmt.Errorf("%w: mafiaCount, detectiveCount and doctorCount are required", domain.ErrValidation)
		}
		return app.UpdateRoleSettings{ConnRef: connRef, Settings: domain.RoleSettings{
			MafiaCount:     *p.MafiaCount,
			DetectiveCount: *p.DetectiveCount,
			DoctorCount:    *p.DoctorCount,
		}}, nil

	case MsgStartGame:
		return app.StartGame{ConnRef: connRef}, nil

	case MsgNightAction:
		var p NightActionPayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		action, ok := domain.ParseActionType(strings.ToUpper(p.Action))
		if !ok {
			return nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, p.Action)
		}
		if p.TargetID == "" {
			return nil, fmt.Errorf("%w: targetId is required", domain.ErrValidation)
		}
		return app.NightAction{ConnRef: connRef, Action: action, TargetID: p.TargetID}, nil

	case MsgDayVote:
		var p DayVotePayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		if p.TargetID == "" {
			return nil, fmt.Errorf("%w: targetId is required", domain.ErrValidation)
		}
		return app.DayVote{ConnRef: connRef, TargetID: p.TargetID}, nil

	case MsgLeaveLobby:
		return app.Leave{ConnRef: connRef}, nil

	case MsgChat, MsgMafiaChat:
		var p ChatPayload
		if err := m.decode(&p); err != nil {
			return nil, err
		}
		if m.Type == MsgMafiaChat {
			return app.MafiaChat{ConnRef: connRef, Text: p.Text}, nil
		}
		return app.Chat{ConnRef: connRef, Text: p.Text}, nil

	default:
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, m.Type)
	}
}

func (m ClientMessage) decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%w: payload is required", domain.ErrValidation)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return nil
}
