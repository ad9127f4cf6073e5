package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"budgetbuddy/internal/core"
)

// LedgerEvent announces a committed change to a user's cached balance.
// Consumers treat it as a hint to re-check the ledger, not as the source
// of truth.
type LedgerEvent struct {
	UserID    string         `json:"user_id"`
	EntryID   string         `json:"entry_id"`
	Kind      core.EntryKind `json:"kind"`
	Op        core.Op        `json:"op"`
	Delta     core.Money     `json:"delta"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewLedgerEvent(userID, entryID string, kind core.EntryKind, op core.Op, delta core.Money) *LedgerEvent {
	return &LedgerEvent{
		UserID:    userID,
		EntryID:   entryID,
		Kind:      kind,
		Op:        op,
		Delta:     delta,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("ledger event without user_id")
	}
	return &msg, nil
}
