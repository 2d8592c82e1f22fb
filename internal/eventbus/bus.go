// Package eventbus provides an in-memory, asynchronous message bus.
// Messages are dispatched through a buffered channel and processed by a worker pool.
package eventbus

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

var (
	// ErrBufferFull is returned by Publish when the message could not be enqueued.
	ErrBufferFull = errors.New("eventbus: buffer full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("eventbus: closed")
)

// Bus is the interface for publishing messages and managing subscribers.
type Bus interface {
	// Publish enqueues a message for the given channel.
	// It never blocks: if the buffer is full the message is dropped and ErrBufferFull is returned.
	Publish(channel, payload string) error

	// Subscribe registers a listener that will be called for every published message.
	// All listeners are invoked for each message (broadcast).
	Subscribe(listener Listener)

	// Close stops accepting new messages and waits for all pending messages to be processed.
	Close()
}

// Options configures a bus. Zero values select the defaults.
type Options struct {
	Workers    int
	BufferSize int
	Logger     *slog.Logger
}

// inMemoryBus is the default Bus implementation.
type inMemoryBus struct {
	ch        chan Message
	listeners []Listener
	mu        sync.RWMutex
	wg        sync.WaitGroup
	workers   int
	logger    *slog.Logger

	// closeMu guards closed and the send on ch so Publish never races Close.
	closeMu sync.RWMutex
	closed  bool
}

// New creates a new in-memory Bus.
func New(opts Options) Bus {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:      make(chan Message, opts.BufferSize),
		workers: opts.Workers,
		logger:  opts.Logger,
	}
	b.startWorkers()
	return b
}

// startWorkers launches the worker goroutines that process messages from the channel.
func (b *inMemoryBus) startWorkers() {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for m := range b.ch {
				b.dispatch(m)
			}
		}()
	}
}

// dispatch calls all registered listeners for the given message.
// Each listener is invoked with panic recovery to prevent one bad listener
// from affecting others.
func (b *inMemoryBus) dispatch(m Message) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("eventbus: listener panicked", "channel", m.Channel, "panic", r)
				}
			}()
			l(m)
		}()
	}
}

// Publish enqueues a message. If the buffer is full the message is dropped.
func (b *inMemoryBus) Publish(channel, payload string) error {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	m := Message{
		Channel:   channel,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case b.ch <- m:
		return nil
	default:
		b.logger.Warn("eventbus: buffer full, dropping message", "channel", channel)
		return ErrBufferFull
	}
}

// Subscribe adds a listener to receive all future messages.
func (b *inMemoryBus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Close drains and closes the message channel, then waits for all workers to finish.
// Calling Close more than once is a no-op.
func (b *inMemoryBus) Close() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.closeMu.Unlock()
	b.wg.Wait()
}
