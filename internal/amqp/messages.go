package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MovementRecordedMessage tells the worker a movement landed on a given
// day. It carries only identifiers; the worker reloads the day's movements
// from the database before rebuilding the summary.
type MovementRecordedMessage struct {
	ID        uuid.UUID `json:"id"`
	Direction string    `json:"direction"`
	Day       string    `json:"day"` // YYYY-MM-DD
	Timestamp time.Time `json:"timestamp"`
}

func NewMovementRecordedMessage(id uuid.UUID, direction, day string) *MovementRecordedMessage {
	return &MovementRecordedMessage{
		ID:        id,
		Direction: direction,
		Day:       day,
		Timestamp: time.Now(),
	}
}

func (m *MovementRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MovementRecordedMessageFromJSON(data []byte) (*MovementRecordedMessage, error) {
	var msg MovementRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
