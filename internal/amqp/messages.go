package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerChangedMessage tells consumers that an owner's ledger was written.
// It carries no record data; consumers reload what they need from storage.
type LedgerChangedMessage struct {
	OwnerID    string    `json:"ownerId"`
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(owner, collection string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		OwnerID:    owner,
		Collection: collection,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and checks a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, errors.New("ledger changed message without owner")
	}
	return &msg, nil
}
