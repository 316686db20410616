package client

import (
	"encoding/json"
	"fmt"
)

const (
	MessageTypeSave       = "save"
	MessageTypeSaveResult = "save_result"

	ReasonSaved      = "File saved successfully"
	ReasonSaveFailed = "Failed to save file"
)

type SessionResponse struct {
	SessionID string `json:"sessionid"`
	EditURL   string `json:"editurl"`
}

// Session is the server side editing session created for one upload.
type Session struct {
	ID      string
	EditURL string
}

// InboundMessage is a message pushed by the editing server.
// Content is nil when the message carried no content field.
type InboundMessage struct {
	Type    string  `json:"type"`
	Content *string `json:"content,omitempty"`
}

type ResultMessage struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// DecodeInbound parses a text frame. Frames that are not JSON objects or lack a
// string type field are protocol errors.
func DecodeInbound(data []byte) (InboundMessage, error) {
	var raw struct {
		Type    *string `json:"type"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return InboundMessage{}, fmt.Errorf("%w: failed to decode message: %w", ErrProtocol, err)
	}
	if raw.Type == nil {
		return InboundMessage{}, fmt.Errorf("%w: message without type", ErrProtocol)
	}
	return InboundMessage{Type: *raw.Type, Content: raw.Content}, nil
}
