package redis_test

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/testerpub/internal/publisher"
	"github.com/shaharia-lab/testerpub/internal/transport/redis"
)

// unreachable points at a port nothing listens on so every dial is refused.
var unreachable = redis.Options{Host: "127.0.0.1", Port: 1, DialTimeout: 200 * time.Millisecond}

func TestOptions_Addr(t *testing.T) {
	tests := []struct {
		name string
		opts redis.Options
		want string
	}{
		{"defaults", redis.Options{}, "localhost:6379"},
		{"host only", redis.Options{Host: "redis"}, "redis:6379"},
		{"host and port", redis.Options{Host: "10.0.0.5", Port: 6380}, "10.0.0.5:6380"},
		{"ipv6", redis.Options{Host: "::1", Port: 6379}, "[::1]:6379"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Addr())
		})
	}
}

func TestOptions_ClientOptions_HostPort(t *testing.T) {
	ro, err := redis.Options{Host: "redis", Port: 6380, Password: "secret", DB: 2}.ClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", ro.Addr)
	assert.Equal(t, "secret", ro.Password)
	assert.Equal(t, 2, ro.DB)
	assert.Equal(t, 5*time.Second, ro.DialTimeout)
}

func TestOptions_ClientOptions_URLWins(t *testing.T) {
	ro, err := redis.Options{URL: "redis://user:pw@cache:6390/3", Host: "ignored"}.ClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6390", ro.Addr)
	assert.Equal(t, "user", ro.Username)
	assert.Equal(t, "pw", ro.Password)
	assert.Equal(t, 3, ro.DB)
}

func TestOptions_ClientOptions_BadURL(t *testing.T) {
	_, err := redis.Options{URL: "http://cache:6379"}.ClientOptions()
	assert.Error(t, err)

	_, err = redis.Options{URL: "redis://cache:6379/notadb"}.ClientOptions()
	assert.Error(t, err)
}

func TestConnect_UnreachableReportsError(t *testing.T) {
	var errs int32
	failed := make(chan error, 4)
	c, err := redis.Connect(t.Context(), unreachable, redis.Hooks{
		OnReady: func(string) { t.Error("ready must not fire for an unreachable server") },
		OnError: func(err error) {
			if atomic.AddInt32(&errs, 1) == 1 {
				failed <- err
			}
		},
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "127.0.0.1:1", c.Addr())

	select {
	case err := <-failed:
		assert.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("health check never reported the dial failure")
	}
	assert.Equal(t, redis.StatusError, c.Status())

	assert.Error(t, c.Publish(t.Context(), "tls-abc", "{}"))
}

func TestConnect_StartsConnecting(t *testing.T) {
	c, err := redis.Connect(t.Context(), redis.Options{Host: "127.0.0.1", Port: 1, HealthInterval: time.Hour}, redis.Hooks{})
	require.NoError(t, err)
	defer c.Close()

	assert.Contains(t, []string{redis.StatusConnecting, redis.StatusError}, c.Status())
}

func TestConnect_InvalidOptions(t *testing.T) {
	_, err := redis.Connect(t.Context(), redis.Options{URL: "ftp://nope"}, redis.Hooks{})
	assert.Error(t, err)
}

func TestDial_ForwardsLifecycle(t *testing.T) {
	failed := make(chan struct{}, 4)
	dial := redis.Dial(unreachable)

	tr, err := dial(t.Context(), publisher.Lifecycle{
		Failed: func(error) {
			select {
			case failed <- struct{}{}:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer tr.Close()

	select {
	case <-failed:
	case <-time.After(10 * time.Second):
		t.Fatal("lifecycle Failed observer was not called")
	}
}

// silentServer accepts connections and never answers, so every command
// blocks until its read timeout.
func silentServer(t *testing.T) (redis.Options, <-chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})

	accepted := make(chan struct{}, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
			select {
			case accepted <- struct{}{}:
			default:
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return redis.Options{Host: "127.0.0.1", Port: addr.Port, DialTimeout: time.Second}, accepted
}

func TestClose_InterruptsHealthCheck(t *testing.T) {
	opts, accepted := silentServer(t)

	var errs int32
	c, err := redis.Connect(t.Context(), opts, redis.Hooks{
		OnError: func(error) { atomic.AddInt32(&errs, 1) },
	})
	require.NoError(t, err)

	select {
	case <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("health check never connected")
	}

	start := time.Now()
	_ = c.Close()
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, atomic.LoadInt32(&errs), "a canceled health check must not report an error")
}
