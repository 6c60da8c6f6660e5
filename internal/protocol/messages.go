package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeTurn         MessageType = "turn"
	TypeSessionEvent MessageType = "session_event"
	TypeErrorEvent   MessageType = "error_event"
)

// Session lifecycle event names carried by SessionEvent.
const (
	EventSessionStarted = "started"
	EventSessionEnded   = "ended"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Turn is broadcast after every completed interaction.
type Turn struct {
	Type        MessageType `json:"type"`
	SessionID   int64       `json:"session_id"`
	TurnID      string      `json:"turn_id"`
	PlayerInput string      `json:"player_input"`
	DMResponse  string      `json:"dm_response"`
	CreatedAt   time.Time   `json:"created_at"`
}

// SessionEvent is broadcast when a session starts or ends.
type SessionEvent struct {
	Type      MessageType `json:"type"`
	SessionID int64       `json:"session_id"`
	Event     string      `json:"event"`
	HasRecap  bool        `json:"has_recap,omitempty"`
}

// ErrorEvent reports a server-side failure to event subscribers.
type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID int64       `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// ParseServerMessage decodes one event-stream payload into its typed form.
func ParseServerMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeTurn:
		var msg Turn
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID <= 0 || msg.TurnID == "" {
			return nil, errors.New("invalid turn")
		}
		return msg, nil
	case TypeSessionEvent:
		var msg SessionEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID <= 0 || msg.Event == "" {
			return nil, errors.New("invalid session_event")
		}
		return msg, nil
	case TypeErrorEvent:
		var msg ErrorEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Code == "" {
			return nil, errors.New("invalid error_event")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
