package redis

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultHost           = "localhost"
	defaultPort           = 6379
	defaultDialTimeout    = 5 * time.Second
	defaultHealthInterval = 30 * time.Second
)

// Options describes how to reach the broker. URL, when set, wins over the
// individual host and credential fields.
type Options struct {
	URL            string
	Host           string
	Port           int
	Username       string
	Password       string
	DB             int
	DialTimeout    time.Duration
	HealthInterval time.Duration
}

// Addr returns host:port, applying defaults.
func (o Options) Addr() string {
	host := o.Host
	if host == "" {
		host = defaultHost
	}
	port := o.Port
	if port <= 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// healthInterval returns the ping period, applying the default.
func (o Options) healthInterval() time.Duration {
	if o.HealthInterval <= 0 {
		return defaultHealthInterval
	}
	return o.HealthInterval
}

// ClientOptions converts o into go-redis options.
func (o Options) ClientOptions() (*goredis.Options, error) {
	dialTimeout := o.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	if o.URL != "" {
		if !strings.HasPrefix(o.URL, "redis://") && !strings.HasPrefix(o.URL, "rediss://") {
			return nil, fmt.Errorf("parse redis url: unsupported scheme in %q", o.URL)
		}
		opt, err := goredis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt.DialTimeout = dialTimeout
		return opt, nil
	}

	return &goredis.Options{
		Addr:        o.Addr(),
		Username:    o.Username,
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: dialTimeout,
	}, nil
}
