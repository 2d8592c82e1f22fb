// Package redis implements the publisher transport over Redis pub/sub.
package redis

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-co-op/gocron/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shaharia-lab/testerpub/internal/publisher"
)

// Connection states reported by Status.
const (
	StatusConnecting = "connecting"
	StatusReady      = "ready"
	StatusError      = "error"
)

// Hooks observe the connection. OnReady fires when a connection is first
// established and again after every recovery; OnError fires on each failed
// health check.
type Hooks struct {
	OnReady func(addr string)
	OnError func(err error)
}

// Client is a Redis pub/sub transport with a background health check.
type Client struct {
	rdb    *goredis.Client
	addr   string
	hooks  Hooks
	cron   gocron.Scheduler
	status atomic.Value

	// ctx is canceled by Close so an in-flight health check stops reporting.
	ctx    context.Context
	cancel context.CancelFunc
}

// Connect creates a client and starts connecting in the background. It only
// fails on invalid options; network errors are reported through hooks.
func Connect(_ context.Context, opts Options, hooks Hooks) (*Client, error) {
	ro, err := opts.ClientOptions()
	if err != nil {
		return nil, err
	}

	c := &Client{
		rdb:   goredis.NewClient(ro),
		addr:  ro.Addr,
		hooks: hooks,
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.status.Store(StatusConnecting)

	cron, err := gocron.NewScheduler()
	if err != nil {
		c.cancel()
		_ = c.rdb.Close()
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	_, err = cron.NewJob(
		gocron.DurationJob(opts.healthInterval()),
		gocron.NewTask(c.check),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		c.cancel()
		_ = cron.Shutdown()
		_ = c.rdb.Close()
		return nil, fmt.Errorf("scheduling redis health check: %w", err)
	}
	c.cron = cron
	cron.Start()
	return c, nil
}

// Dial returns a publisher.DialFunc that connects with opts and forwards
// connection events to the publisher's lifecycle observers.
func Dial(opts Options) publisher.DialFunc {
	return func(ctx context.Context, lc publisher.Lifecycle) (publisher.Transport, error) {
		c, err := Connect(ctx, opts, Hooks{OnReady: lc.Ready, OnError: lc.Failed})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// check pings the server and fires the hooks on state changes.
func (c *Client) check() {
	ctx, cancel := context.WithTimeout(c.ctx, c.rdb.Options().DialTimeout+c.rdb.Options().ReadTimeout)
	defer cancel()

	err := c.rdb.Ping(ctx).Err()
	if c.ctx.Err() != nil {
		return
	}
	if err != nil {
		c.status.Store(StatusError)
		if c.hooks.OnError != nil {
			c.hooks.OnError(err)
		}
		return
	}
	if prev := c.status.Swap(StatusReady); prev != StatusReady && c.hooks.OnReady != nil {
		c.hooks.OnReady(c.addr)
	}
}

// Addr returns the server address the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Status reports the result of the latest health check.
func (c *Client) Status() string {
	return c.status.Load().(string)
}

// Publish sends message to channel with PUBLISH. The number of receivers is
// not checked.
func (c *Client) Publish(ctx context.Context, channel, message string) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Subscribe listens on the given channels. The subscription is confirmed
// before returning; callers must Close it.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error) {
	return confirm(ctx, c.rdb.Subscribe(ctx, channels...))
}

// PSubscribe listens on channels matching the given glob patterns.
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) (*goredis.PubSub, error) {
	return confirm(ctx, c.rdb.PSubscribe(ctx, patterns...))
}

func confirm(ctx context.Context, ps *goredis.PubSub) (*goredis.PubSub, error) {
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing: %w", err)
	}
	return ps, nil
}

// Close stops the health check and closes the connection pool. Closing the
// pool first unblocks a ping that is still waiting on the network, so Close
// does not wait out the health check timeout.
func (c *Client) Close() error {
	c.cancel()
	poolErr := c.rdb.Close()
	if err := c.cron.Shutdown(); err != nil {
		return fmt.Errorf("stopping health check: %w", err)
	}
	return poolErr
}
