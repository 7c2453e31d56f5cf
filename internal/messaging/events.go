package messaging

import "encoding/json"

// Event types carried on the lifecycle topic.
const (
	EventOrderCreated     = "order.created"
	EventTaskStateChanged = "task.state_changed"
)

// Envelope wraps a typed event payload so one topic can carry the
// whole order/task lifecycle.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
