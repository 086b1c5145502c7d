package docsvc

import "github.com/LuigiLanza93/cronache-trama-e-fato/internal/document"

// Event names delivered to subscribers.
const (
	// EventState carries a full document replacing the local replica.
	EventState = "character:state"
	// EventPatch carries a raw patch to apply via the merge engine.
	EventPatch = "character:patch"
)

// Subscriber receives room-scoped events. Implemented by the websocket
// session; Send must not block (sessions enqueue and drop the connection
// when the queue is full).
type Subscriber interface {
	ID() string
	Send(event string, payload any)
}

// PatchPayload is the body of an EventPatch delivery.
type PatchPayload struct {
	Slug  string            `json:"slug"`
	Patch document.Document `json:"patch"`
}
