package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Frame is the outbound websocket envelope.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EncodeFrame marshals an outbound frame.
func EncodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

// inbound is a client-to-server chat command.
type inbound struct {
	Type           string  `json:"type"`
	ConversationID idValue `json:"conversationId"`
	IsTyping       bool    `json:"isTyping"`
}

// idValue is an id sent either as a JSON number or as a numeric string.
type idValue uint

func (v *idValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*v = 0
		return nil
	}
	raw := b
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*v = idValue(n)
	return nil
}
