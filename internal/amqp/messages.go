package amqp

import (
	"encoding/json"
	"time"
)

// Record actions carried by RecordEvent.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	// ActionClear removes every record of the owner in a collection. ID
	// carries the owner id.
	ActionClear = "clear"
)

// RecordEvent announces a successful write to one of the document
// collections. It carries identifiers only; consumers read the record back
// from the store when they need its content.
type RecordEvent struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(collection, action, id, userID string) *RecordEvent {
	return &RecordEvent{
		Collection: collection,
		Action:     action,
		ID:         id,
		UserID:     userID,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON creates a message from JSON bytes
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
