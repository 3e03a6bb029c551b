package amqp

import (
	"encoding/json"
	"time"
)

// Reasons a sync round gets requested. The worker logs them; the engine
// treats every request the same.
const (
	ReasonStartup  = "startup"
	ReasonInterval = "interval"
	ReasonMutation = "mutation"
	ReasonManual   = "manual"
)

// SyncRequestMessage asks the sync worker to run one reconciliation round
// for a user. It carries no record data; the worker reads the dirty set from
// the store, so coalescing or dropping duplicate requests is always safe.
type SyncRequestMessage struct {
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncRequestMessage(userID, reason string) *SyncRequestMessage {
	return &SyncRequestMessage{
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestMessageFromJSON creates a message from JSON bytes
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
