package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SettledMessage announces one committed settlement. It carries only
// identifiers; consumers reload whatever state they need from the
// store before rebuilding derived views.
type SettledMessage struct {
	AccountID  string    `json:"accountId"`
	ActivityID uuid.UUID `json:"activityId"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSettledMessage creates a settled message stamped with the current
// time.
func NewSettledMessage(accountID string, activityID uuid.UUID) *SettledMessage {
	return &SettledMessage{
		AccountID:  accountID,
		ActivityID: activityID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SettledMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SettledMessageFromJSON creates a message from JSON bytes
func SettledMessageFromJSON(data []byte) (*SettledMessage, error) {
	var msg SettledMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
