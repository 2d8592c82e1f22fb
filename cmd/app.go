package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaharia-lab/testerpub/internal/build"
	"github.com/shaharia-lab/testerpub/internal/config"
	"github.com/shaharia-lab/testerpub/internal/eventbus"
	"github.com/shaharia-lab/testerpub/internal/logger"
	"github.com/shaharia-lab/testerpub/internal/publisher"
	"github.com/shaharia-lab/testerpub/internal/transport/memory"
	"github.com/shaharia-lab/testerpub/internal/transport/redis"
)

// app bundles the logger, metrics registry and connector shared by every command.
type app struct {
	cfg       *config.AppConfig
	logger    *slog.Logger
	logCloser io.Closer
	registry  *prometheus.Registry
	connector *publisher.Connector
	address   string
}

func newApp(cfg *config.AppConfig) (*app, error) {
	sysLogger, closer, err := logger.NewSystemLogger(cfg.LogDir(), logger.Options{
		Level:  cfg.SlogLevel(),
		Stderr: cfg.LogStderr,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    sysLogger,
		logCloser: closer,
		registry:  prometheus.NewRegistry(),
	}

	var dial publisher.DialFunc
	switch cfg.Transport {
	case config.TransportMemory:
		bus := eventbus.New(eventbus.Options{Logger: sysLogger})
		bus.Subscribe(func(m eventbus.Message) {
			sysLogger.Debug("memory transport delivered message", "channel", m.Channel, "message", m.Payload)
		})
		dial = memory.Dial(bus)
		a.address = memory.Addr
	default:
		opts, err := cfg.RedisOptions()
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		ro, err := opts.ClientOptions()
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		dial = redis.Dial(opts)
		a.address = ro.Addr
	}
	a.connector = publisher.NewConnector(dial)
	return a, nil
}

// publisher initialises the shared connection and returns the publisher.
func (a *app) publisher(ctx context.Context) (*publisher.Publisher, error) {
	metrics, err := publisher.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	a.logger.Info("testerpub starting", build.LogAttrs()...)
	return a.connector.Init(ctx, publisher.Config{
		Logger:      a.logger,
		Address:     a.address,
		BaseChannel: a.cfg.BaseChannel,
		Metrics:     metrics,
	})
}

// close releases the transport and flushes the log file.
func (a *app) close() {
	if err := a.connector.Close(); err != nil {
		a.logger.Warn("closing connector", "error", err)
	}
	_ = a.logCloser.Close()
}
