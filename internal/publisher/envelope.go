package publisher

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DefaultBaseChannel is the channel messages go to when no session is given.
const DefaultBaseChannel = "tls"

// Envelope is the JSON structure published on the broker.
type Envelope struct {
	ID    int64          `json:"id"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// NewEnvelope wraps payload under the event's data key.
func NewEnvelope(id int64, event EventName, payload any) Envelope {
	return Envelope{
		ID:    id,
		Event: event.String(),
		Data:  map[string]any{event.Key(): payload},
	}
}

// Marshal encodes the envelope as the wire message.
func (e Envelope) Marshal() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", &InvalidArgumentError{Field: "payload", Message: fmt.Sprintf("not JSON serializable: %v", err)}
	}
	return string(b), nil
}

// ParseEnvelope decodes a wire message published by a Publisher.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if e.Event == "" {
		return Envelope{}, fmt.Errorf("decoding envelope: missing event")
	}
	return e, nil
}

// Payload returns the single data value and its key.
func (e Envelope) Payload() (string, any) {
	for k, v := range e.Data {
		return k, v
	}
	return "", nil
}

// ChannelName returns the channel for a session: base alone when sessionID is
// empty, otherwise "<base>-<sessionID>".
func ChannelName(base, sessionID string) string {
	if sessionID == "" {
		return base
	}
	return base + "-" + sessionID
}

// idClock hands out millisecond timestamps that never go backwards, even if
// the wall clock steps back or callers race.
type idClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDClock(now func() time.Time) *idClock {
	if now == nil {
		now = time.Now
	}
	return &idClock{now: now}
}

func (c *idClock) next() int64 {
	ms := c.now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms < c.last {
		ms = c.last
	}
	c.last = ms
	return ms
}
