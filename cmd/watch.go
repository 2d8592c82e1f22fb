package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/testerpub/internal/config"
	"github.com/shaharia-lab/testerpub/internal/publisher"
	"github.com/shaharia-lab/testerpub/internal/transport/redis"
)

// NewWatchCmd returns the "watch" subcommand that prints published envelopes.
func NewWatchCmd(cfg *config.AppConfig) *cobra.Command {
	var sessionID string
	var all bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to a session channel and print its events",
		Example: `  testerpub watch --session lowPrivUser
  testerpub watch --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Transport != config.TransportRedis {
				return fmt.Errorf("watch requires the %q transport, configured %q", config.TransportRedis, cfg.Transport)
			}
			opts, err := cfg.RedisOptions()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			client, err := redis.Connect(ctx, opts, redis.Hooks{
				OnError: func(err error) { fmt.Fprintf(cmd.ErrOrStderr(), "broker error: %v\n", err) },
			})
			if err != nil {
				return err
			}
			defer client.Close()

			var ps *goredis.PubSub
			if all {
				ps, err = client.PSubscribe(ctx, cfg.BaseChannel, cfg.BaseChannel+"-*")
			} else {
				ps, err = client.Subscribe(ctx, publisher.ChannelName(cfg.BaseChannel, sessionID))
			}
			if err != nil {
				return err
			}
			defer ps.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s on %s (Ctrl+C to stop)\n", watchTarget(cfg.BaseChannel, sessionID, all), client.Addr())
			return watchLoop(ctx, ps.Channel(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id to watch; empty watches the base channel")
	cmd.Flags().BoolVar(&all, "all", false, "Watch the base channel and every session channel")
	return cmd
}

func watchTarget(base, sessionID string, all bool) string {
	if all {
		return base + " and " + base + "-*"
	}
	return publisher.ChannelName(base, sessionID)
}

// watchLoop prints every message until ctx is done or msgs is closed.
func watchLoop(ctx context.Context, msgs <-chan *goredis.Message, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			fmt.Fprintln(out, formatMessage(m.Channel, m.Payload))
		}
	}
}

// formatMessage renders one broker message as a single line. Messages that
// are not envelopes are printed verbatim.
func formatMessage(channel, payload string) string {
	env, err := publisher.ParseEnvelope([]byte(payload))
	if err != nil {
		return fmt.Sprintf("[%s] %s", channel, payload)
	}
	key, value := env.Payload()
	rendered, err := json.Marshal(value)
	if err != nil {
		rendered = []byte(fmt.Sprint(value))
	}
	return fmt.Sprintf("[%s] id=%d event=%s %s=%s", channel, env.ID, env.Event, key, rendered)
}
