package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event names published after a mutation commits.
const (
	EventTransactionCreated  = "transaction.created"
	EventTransactionUpdated  = "transaction.updated"
	EventTransactionDeleted  = "transaction.deleted"
	EventTransactionRestored = "transaction.restored"
	EventTransactionPurged   = "transaction.purged"
)

// LedgerEventMessage is a lightweight notification; consumers fetch the
// full transaction from the store if they need it.
type LedgerEventMessage struct {
	Event           string    `json:"event"`
	TransactionID   int64     `json:"transaction_id"`
	TransactionType string    `json:"transaction_type,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(event string, id int64, txType string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:           event,
		TransactionID:   id,
		TransactionType: txType,
		Timestamp:       time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
