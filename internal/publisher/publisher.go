// Package publisher turns tester events into JSON envelopes and publishes
// them on per-session broker channels.
//
// A message for session "abc" and event "testerPctComplete" looks like:
//
//	channel: tls-abc
//	message: {"id":1700000000000,"event":"testerPctComplete","data":{"pctComplete":42}}
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaharia-lab/testerpub/internal/logger"
)

const logTag = "messagePublisher"

// Transport delivers a message to a broker channel. Implementations must be
// safe for concurrent use.
type Transport interface {
	Publish(ctx context.Context, channel, message string) error
	Close() error
}

// Logger is the leveled structured logger the publisher writes to.
// *slog.Logger satisfies it.
type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
}

// LogEntry is the input to LogAndPublish.
type LogEntry struct {
	SessionID string
	Level     slog.Level
	Text      string
	Tags      []string
	// Event defaults to DefaultEvent when empty.
	Event EventName
}

// Publisher publishes envelopes through a shared transport.
type Publisher struct {
	transport   Transport
	logger      Logger
	baseChannel string
	clock       *idClock
	metrics     *Metrics
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithBaseChannel overrides DefaultBaseChannel.
func WithBaseChannel(base string) Option {
	return func(p *Publisher) {
		if base != "" {
			p.baseChannel = base
		}
	}
}

// WithMetrics records publish outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithClock replaces time.Now as the source of envelope ids.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.clock = newIDClock(now) }
}

// New creates a Publisher. Most callers should obtain one from a Connector
// so the transport is shared.
func New(transport Transport, log Logger, opts ...Option) *Publisher {
	p := &Publisher{
		transport:   transport,
		logger:      log,
		baseChannel: DefaultBaseChannel,
		clock:       newIDClock(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Channel returns the channel messages for sessionID are published to.
func (p *Publisher) Channel(sessionID string) string {
	return ChannelName(p.baseChannel, sessionID)
}

// Publish publishes payload for sessionID under DefaultEvent.
func (p *Publisher) Publish(ctx context.Context, sessionID string, payload any) error {
	return p.PublishEvent(ctx, sessionID, payload, DefaultEvent)
}

// PublishEvent publishes payload for sessionID under event. An empty event
// selects DefaultEvent. A missing sessionID is logged and the message goes to
// the base channel. The call returns once the transport accepts the message;
// delivery is not acknowledged.
func (p *Publisher) PublishEvent(ctx context.Context, sessionID string, payload any, event EventName) error {
	if event == "" {
		event = DefaultEvent
	}
	event, err := ParseEventName(string(event))
	if err != nil {
		return err
	}

	if sessionID == "" {
		p.metrics.observeMissingSession()
		p.logger.Log(ctx, slog.LevelWarn,
			fmt.Sprintf("There was no session id supplied to publish for the event %q", event),
			slog.String("event", event.String()),
			slog.Any("data", payload),
			logger.Tags(logTag),
		)
	}

	message, err := NewEnvelope(p.clock.next(), event, payload).Marshal()
	if err != nil {
		return err
	}

	channel := p.Channel(sessionID)
	start := time.Now()
	if err := p.transport.Publish(ctx, channel, message); err != nil {
		p.metrics.observeFailure(event)
		p.logger.Log(ctx, slog.LevelWarn,
			fmt.Sprintf("The transport failed to publish to the channel %q", channel),
			slog.String("channel", channel),
			slog.String("error", err.Error()),
			logger.Tags(logTag),
		)
		return &TransportError{Channel: channel, Err: err}
	}
	p.metrics.observePublished(event, time.Since(start).Seconds())
	return nil
}

// LogAndPublish publishes entry.Text as the event payload, then writes it to
// the logger at entry.Level with entry.Tags. The log write is skipped when
// publishing fails.
func (p *Publisher) LogAndPublish(ctx context.Context, entry LogEntry) error {
	if err := p.PublishEvent(ctx, entry.SessionID, entry.Text, entry.Event); err != nil {
		return err
	}
	p.logger.Log(ctx, entry.Level, entry.Text, logger.Tags(entry.Tags...))
	return nil
}
