package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is a lightweight message announcing that a user's
// transaction set changed. Consumers fetch whatever detail they need from
// the database; only the identifiers travel on the wire.
type TransactionEvent struct {
	Action        string    `json:"action"`
	UserID        int64     `json:"userId"`
	TransactionID int64     `json:"transactionId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(action string, userID, transactionID int64) *TransactionEvent {
	return &TransactionEvent{
		Action:        action,
		UserID:        userID,
		TransactionID: transactionID,
		OccurredAt:    time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event from JSON bytes and checks the
// action is one this module knows.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Action {
	case ActionAdded, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown event action: %q", ev.Action)
	}
	return &ev, nil
}
