package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BatchCategorizedMessage announces a recorded batch. It carries only the id;
// the consumer loads rows from the history database.
type BatchCategorizedMessage struct {
	BatchID   string    `json:"batch_id"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBatchCategorizedMessage(batchID string, rows int) *BatchCategorizedMessage {
	return &BatchCategorizedMessage{
		BatchID:   batchID,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

func (m *BatchCategorizedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BatchCategorizedMessageFromJSON decodes a message and rejects one without a batch id.
func BatchCategorizedMessageFromJSON(data []byte) (*BatchCategorizedMessage, error) {
	var msg BatchCategorizedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BatchID == "" {
		return nil, errors.New("message has no batch_id")
	}
	return &msg, nil
}
