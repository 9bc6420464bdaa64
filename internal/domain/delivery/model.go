package delivery

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Delivery statuses.
const (
	StatusReceived  = "received"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Delivery is one inbound webhook delivery, stored with its raw payload so a
// failed transformation can be replayed after a fix. The upstream system
// does not support selective redelivery; this log is the replay mechanism.
type Delivery struct {
	ID          uuid.UUID       `json:"id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Error       *string         `json:"error,omitempty"`
	ReceivedAt  time.Time       `json:"received_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}
