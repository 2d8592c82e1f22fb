package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/testerpub/internal/config"
	"github.com/shaharia-lab/testerpub/internal/logger"
	"github.com/shaharia-lab/testerpub/internal/publisher"
)

// NewPublishCmd returns the "publish" subcommand that sends a single event.
func NewPublishCmd(cfg *config.AppConfig) *cobra.Command {
	var sessionID, event string
	var raw bool

	cmd := &cobra.Command{
		Use:   "publish [payload]",
		Short: "Publish one event and exit",
		Long: `Publish a single tester event. The payload is sent as JSON when it parses as
JSON, otherwise as a string. Use --raw to always send a string.`,
		Example: `  testerpub publish --session lowPrivUser --event testerPctComplete 42
  testerpub publish --session lowPrivUser "Tester initialised"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			if len(args) == 1 {
				payload = parsePayload(args[0], raw)
			}
			return withPublisher(cmd.Context(), cfg, func(ctx context.Context, pub *publisher.Publisher) error {
				if err := pub.PublishEvent(ctx, sessionID, payload, publisher.EventName(event)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", eventOrDefault(event), pub.Channel(sessionID))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id; empty publishes to the base channel")
	cmd.Flags().StringVarP(&event, "event", "e", string(publisher.DefaultEvent), "Event name, must start with \"tester\"")
	cmd.Flags().BoolVar(&raw, "raw", false, "Send the payload as a string even if it is valid JSON")
	return cmd
}

// NewLogCmd returns the "log" subcommand that logs a line and publishes it.
func NewLogCmd(cfg *config.AppConfig) *cobra.Command {
	var sessionID, event, level string
	var tags []string

	cmd := &cobra.Command{
		Use:     "log <text>",
		Short:   "Publish a text event and write it to the system log",
		Example: `  testerpub log --session lowPrivUser --level notice --tag app-scanner "Scan finished"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logger.ParseLevel(level)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			return withPublisher(cmd.Context(), cfg, func(ctx context.Context, pub *publisher.Publisher) error {
				err := pub.LogAndPublish(ctx, publisher.LogEntry{
					SessionID: sessionID,
					Level:     lvl,
					Text:      text,
					Tags:      tags,
					Event:     publisher.EventName(event),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged at %s and published %s to %s\n", logger.LevelName(lvl), eventOrDefault(event), pub.Channel(sessionID))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session id; empty publishes to the base channel")
	cmd.Flags().StringVarP(&event, "event", "e", string(publisher.DefaultEvent), "Event name, must start with \"tester\"")
	cmd.Flags().StringVarP(&level, "level", "l", "info", "Log level (debug, info, notice, warning, error, crit, alert, emerg)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag to attach to the log record (repeatable)")
	return cmd
}

// withPublisher initialises the shared connection, runs fn and tears it down.
func withPublisher(ctx context.Context, cfg *config.AppConfig, fn func(context.Context, *publisher.Publisher) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	pub, err := a.publisher(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, pub)
}

// parsePayload returns s as a JSON value when it is valid JSON and raw is false.
func parsePayload(s string, raw bool) any {
	if !raw && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}

func eventOrDefault(event string) string {
	if event == "" {
		return string(publisher.DefaultEvent)
	}
	return event
}
