package domain

import (
	"encoding/json"
	"fmt"
)

// ActionTag identifies the kind of a Message.
type ActionTag string

// Standard Action Tags
const (
	// TagOpenMenu asks the views to present the side menu.
	TagOpenMenu ActionTag = "OPEN_MENU"

	// TagCloseMenu asks the views to dismiss the side menu.
	TagCloseMenu ActionTag = "CLOSE_MENU"

	// TagUpdateName replaces the display name.
	// Payload: "name" (string)
	TagUpdateName ActionTag = "UPDATE_NAME"
)

// KeyName is the payload key carried by TagUpdateName messages.
const KeyName = "name"

// Message is a tagged instruction for the ActionStore.
// On the wire it is a flat JSON object: {"type": "UPDATE_NAME", "name": "Ada"}.
type Message struct {
	Type    ActionTag
	Payload map[string]any
}

// OpenMenu builds an OPEN_MENU message.
func OpenMenu() Message {
	return Message{Type: TagOpenMenu}
}

// CloseMenu builds a CLOSE_MENU message.
func CloseMenu() Message {
	return Message{Type: TagCloseMenu}
}

// UpdateName builds an UPDATE_NAME message carrying name.
func UpdateName(name string) Message {
	return Message{
		Type:    TagUpdateName,
		Payload: map[string]any{KeyName: name},
	}
}

// Lookup returns the payload value stored under key.
func (m Message) Lookup(key string) (any, bool) {
	if m.Payload == nil {
		return nil, false
	}
	v, ok := m.Payload[key]
	return v, ok
}

// MarshalJSON flattens the payload next to the "type" field.
func (m Message) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(m.Payload)+1)
	for k, v := range m.Payload {
		flat[k] = v
	}
	flat["type"] = string(m.Type)
	return json.Marshal(flat)
}

// UnmarshalJSON reads a flat object; every key other than "type" lands in Payload.
func (m *Message) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	raw, ok := flat["type"]
	if !ok {
		return fmt.Errorf("message: missing \"type\" field")
	}
	tag, ok := raw.(string)
	if !ok {
		return fmt.Errorf("message: \"type\" must be a string, got %T", raw)
	}
	delete(flat, "type")

	m.Type = ActionTag(tag)
	m.Payload = nil
	if len(flat) > 0 {
		m.Payload = flat
	}
	return nil
}
