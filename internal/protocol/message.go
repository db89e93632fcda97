package protocol

import (
	"encoding/json"
	"fmt"
)

// Message is the envelope of every frame on the wire.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Server -> connection.
const (
	ActionAssignPlayer = "assignPlayer"
	ActionGameState    = "gameState"
)

// Connection -> server.
const (
	ActionMakeMove       = "makeMove"
	ActionResetGame      = "resetGame"
	ActionRegisterServer = "registerServer"
)

func NewMessage(action string, payload any) (*Message, error) {
	msg := &Message{Action: action}
	if payload == nil {
		return msg, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}
	msg.Payload = raw

	return msg, nil
}

func MustNewMessage(action string, payload any) *Message {
	msg, err := NewMessage(action, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

func (that *Message) Encode() ([]byte, error) {
	data, err := json.Marshal(that)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// Decode - parses a frame into its envelope. The payload is left raw.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if msg.Action == "" {
		return nil, ErrMissingAction
	}
	return &msg, nil
}

func (that *Message) DecodePayload(v any) error {
	if len(that.Payload) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingPayload, that.Action)
	}
	if err := json.Unmarshal(that.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", that.Action, err)
	}
	return nil
}
