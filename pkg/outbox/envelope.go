package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies the till or job that produced the event.
type ActorRef struct {
	Source    string `json:"source"`
	SessionID string `json:"sessionId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses the stored payload column.
func DecodeEnvelope(raw json.RawMessage) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	err := json.Unmarshal(raw, &env)
	return env, err
}

// DecodeData unmarshals the event-specific data into out.
func (e PayloadEnvelope) DecodeData(out any) error {
	return json.Unmarshal(e.Data, out)
}
