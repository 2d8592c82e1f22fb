package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/shaharia-lab/testerpub/internal/logger"
)

// ErrConnectorClosed is returned by Init after Close.
var ErrConnectorClosed = errors.New("publisher: connector closed")

// Lifecycle receives connection events from a transport. Either field may be
// called from any goroutine, any number of times.
type Lifecycle struct {
	Ready  func(addr string)
	Failed func(err error)
}

// DialFunc opens a transport. It must not block on the network: connection
// setup happens in the background and is reported through lc.
type DialFunc func(ctx context.Context, lc Lifecycle) (Transport, error)

// Config is the input to Connector.Init.
type Config struct {
	Logger Logger
	// Address is the broker address being dialled, used in log lines only.
	Address     string
	BaseChannel string
	Metrics     *Metrics
}

// Connector owns the single transport shared by every Publisher it hands out.
// The first Init dials; later calls return the same Publisher.
type Connector struct {
	dial DialFunc

	mu        sync.Mutex
	transport Transport
	pub       *Publisher
	closed    bool
}

// NewConnector creates a Connector that opens its transport with dial.
func NewConnector(dial DialFunc) *Connector {
	return &Connector{dial: dial}
}

// Init dials the transport on first use and returns the shared Publisher.
// Config is only read on the first successful call.
func (c *Connector) Init(ctx context.Context, cfg Config) (*Publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectorClosed
	}
	if c.pub != nil {
		return c.pub, nil
	}
	if cfg.Logger == nil {
		return nil, &InvalidArgumentError{Field: "logger", Message: "is required"}
	}

	log := cfg.Logger
	pidTag := fmt.Sprintf("pid-%d", os.Getpid())
	lc := Lifecycle{
		Ready: func(addr string) {
			log.Log(context.Background(), slog.LevelInfo,
				fmt.Sprintf("A connection is established to the broker at %q", addr),
				slog.String("addr", addr),
				logger.Tags(pidTag, logTag),
			)
		},
		Failed: func(err error) {
			log.Log(context.Background(), slog.LevelError,
				fmt.Sprintf("An error event was received from the broker client: %q", err.Error()),
				slog.String("error", err.Error()),
				logger.Tags(logTag),
			)
		},
	}

	log.Log(ctx, slog.LevelInfo,
		fmt.Sprintf("Attempting to establish a connection with the broker at %q", cfg.Address),
		slog.String("addr", cfg.Address),
		logger.Tags(pidTag, logTag),
	)
	transport, err := c.dial(ctx, lc)
	if err != nil {
		return nil, fmt.Errorf("dialing transport: %w", err)
	}

	c.transport = transport
	c.pub = New(transport, log, WithBaseChannel(cfg.BaseChannel), WithMetrics(cfg.Metrics))
	return c.pub, nil
}

// Status reports the transport's connection state when the transport exposes
// one, "disconnected" before Init and after Close.
func (c *Connector) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport == nil || c.closed {
		return "disconnected"
	}
	if s, ok := c.transport.(interface{ Status() string }); ok {
		return s.Status()
	}
	return "unknown"
}

// Close releases the transport. The connector cannot be initialised again.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.transport == nil {
		return nil
	}
	if err := c.transport.Close(); err != nil {
		return fmt.Errorf("closing transport: %w", err)
	}
	return nil
}
