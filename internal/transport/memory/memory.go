// Package memory provides an in-process transport backed by the event bus.
// It is used for local runs without a broker and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaharia-lab/testerpub/internal/eventbus"
	"github.com/shaharia-lab/testerpub/internal/publisher"
)

// Addr is the pseudo address reported to lifecycle observers.
const Addr = "memory"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("memory transport: closed")

// Transport delivers messages to in-process subscribers.
type Transport struct {
	bus eventbus.Bus
}

// New creates a transport over bus. The transport owns the bus and closes it.
func New(bus eventbus.Bus) *Transport {
	return &Transport{bus: bus}
}

// Dial returns a publisher.DialFunc that creates a transport over bus and
// reports it ready before returning.
func Dial(bus eventbus.Bus) publisher.DialFunc {
	return func(_ context.Context, lc publisher.Lifecycle) (publisher.Transport, error) {
		t := New(bus)
		if lc.Ready != nil {
			lc.Ready(Addr)
		}
		return t, nil
	}
}

// Publish enqueues message for channel. A full buffer is reported as an error.
func (t *Transport) Publish(ctx context.Context, channel, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := t.bus.Publish(channel, message)
	switch {
	case errors.Is(err, eventbus.ErrClosed):
		return ErrClosed
	case err != nil:
		return fmt.Errorf("memory transport: %w", err)
	}
	return nil
}

// Subscribe registers fn for messages on channel. An empty channel matches all.
func (t *Transport) Subscribe(channel string, fn func(channel, message string)) {
	t.bus.Subscribe(func(m eventbus.Message) {
		if channel == "" || m.Channel == channel {
			fn(m.Channel, m.Payload)
		}
	})
}

// Status always reports ready.
func (t *Transport) Status() string {
	return "ready"
}

// Close drains pending messages and stops the bus.
func (t *Transport) Close() error {
	t.bus.Close()
	return nil
}
