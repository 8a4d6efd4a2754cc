// Package stream fans board events out to connected user sessions, bridging
// instances through a Redis pub/sub channel.
package stream

import (
	"encoding/json"

	"github.com/bytedance/sonic"

	"corkboard-api/domain"
)

// Envelope is the wire form of an event. Recipients ride along on the
// inter-instance channel only; clients receive just {topic, payload}.
type Envelope struct {
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	Recipients []string        `json:"recipients,omitempty"`
}

// NewEnvelope serializes a domain event for the given recipient set.
func NewEnvelope(ev domain.Event, recipients []string) (Envelope, error) {
	payload, err := sonic.Marshal(ev.EventPayload())
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Topic: ev.Topic(), Payload: payload, Recipients: recipients}, nil
}

// ClientBytes renders the envelope as delivered to a client session, with
// the recipient list stripped.
func (e Envelope) ClientBytes() ([]byte, error) {
	return sonic.Marshal(Envelope{Topic: e.Topic, Payload: e.Payload})
}
