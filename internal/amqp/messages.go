package amqp

import (
	"encoding/json"
	"fmt"
)

// ChangeMessage announces that a local collection row changed. Consumers
// use it to schedule uploads; the payload itself is not carried, only the
// identity of what changed.
type ChangeMessage struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Op         string `json:"op"`
	Timestamp  string `json:"timestamp"`
}

func (m ChangeMessage) Validate() error {
	if m.Collection == "" {
		return fmt.Errorf("change message: missing collection")
	}
	if m.ID == "" {
		return fmt.Errorf("change message: missing id")
	}
	if m.Op == "" {
		return fmt.Errorf("change message: missing op")
	}
	return nil
}

func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (ChangeMessage, error) {
	var m ChangeMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ChangeMessage{}, fmt.Errorf("decode change message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return ChangeMessage{}, err
	}
	return m, nil
}
