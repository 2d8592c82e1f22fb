package publisher_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/testerpub/internal/publisher"
	"github.com/shaharia-lab/testerpub/internal/publisher/mocks"
)

func countingDial(tr publisher.Transport, dials *int32, lc *publisher.Lifecycle) publisher.DialFunc {
	return func(_ context.Context, got publisher.Lifecycle) (publisher.Transport, error) {
		atomic.AddInt32(dials, 1)
		if lc != nil {
			*lc = got
		}
		return tr, nil
	}
}

func TestConnector_InitTwiceDialsOnce(t *testing.T) {
	var dials int32
	tr := &mocks.MockTransport{}
	c := publisher.NewConnector(countingDial(tr, &dials, nil))
	log := &recordingLogger{}

	first, err := c.Init(t.Context(), publisher.Config{Logger: log, Address: "localhost:6379"})
	require.NoError(t, err)
	second, err := c.Init(t.Context(), publisher.Config{Logger: log, Address: "elsewhere:6379"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&dials))

	records := log.all()
	require.Len(t, records, 1)
	assert.Equal(t, slog.LevelInfo, records[0].Level)
	assert.Contains(t, records[0].Msg, "localhost:6379")
	tags, ok := records[0].Attrs["tags"].([]string)
	require.True(t, ok)
	assert.Len(t, tags, 2)
	assert.Regexp(t, `^pid-\d+$`, tags[0])
	assert.Equal(t, "messagePublisher", tags[1])
}

func TestConnector_ConcurrentInit(t *testing.T) {
	var dials int32
	c := publisher.NewConnector(countingDial(&mocks.MockTransport{}, &dials, nil))
	log := &recordingLogger{}

	const callers = 10
	pubs := make([]*publisher.Publisher, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Init(context.Background(), publisher.Config{Logger: log})
			assert.NoError(t, err)
			pubs[i] = p
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&dials))
	for _, p := range pubs {
		assert.Same(t, pubs[0], p)
	}
}

func TestConnector_LifecycleObserversLog(t *testing.T) {
	var dials int32
	var lc publisher.Lifecycle
	c := publisher.NewConnector(countingDial(&mocks.MockTransport{}, &dials, &lc))
	log := &recordingLogger{}

	_, err := c.Init(t.Context(), publisher.Config{Logger: log})
	require.NoError(t, err)
	require.NotNil(t, lc.Ready)
	require.NotNil(t, lc.Failed)

	lc.Ready("127.0.0.1:6379")
	lc.Failed(errors.New("connection refused"))

	records := log.all()
	require.Len(t, records, 3)
	assert.Equal(t, slog.LevelInfo, records[1].Level)
	assert.Equal(t, "127.0.0.1:6379", records[1].Attrs["addr"])
	assert.Equal(t, slog.LevelError, records[2].Level)
	assert.Equal(t, "connection refused", records[2].Attrs["error"])
}

func TestConnector_UsesBaseChannel(t *testing.T) {
	var dials int32
	tr := &mocks.MockTransport{}
	tr.On("Publish", mock.Anything, "progress-abc", mock.Anything).Return(nil).Once()
	c := publisher.NewConnector(countingDial(tr, &dials, nil))

	p, err := c.Init(t.Context(), publisher.Config{Logger: &recordingLogger{}, BaseChannel: "progress"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(t.Context(), "abc", "x"))
	tr.AssertExpectations(t)
}

func TestConnector_RequiresLogger(t *testing.T) {
	var dials int32
	c := publisher.NewConnector(countingDial(&mocks.MockTransport{}, &dials, nil))

	_, err := c.Init(t.Context(), publisher.Config{})
	assert.ErrorIs(t, err, publisher.ErrInvalidArgument)
	assert.EqualValues(t, 0, atomic.LoadInt32(&dials))
}

func TestConnector_DialErrorAllowsRetry(t *testing.T) {
	calls := 0
	c := publisher.NewConnector(func(context.Context, publisher.Lifecycle) (publisher.Transport, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("bad options")
		}
		return &mocks.MockTransport{}, nil
	})
	cfg := publisher.Config{Logger: &recordingLogger{}}

	_, err := c.Init(t.Context(), cfg)
	require.Error(t, err)

	p, err := c.Init(t.Context(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestConnector_Close(t *testing.T) {
	var dials int32
	tr := &mocks.MockTransport{}
	tr.On("Close").Return(nil).Once()
	c := publisher.NewConnector(countingDial(tr, &dials, nil))

	_, err := c.Init(t.Context(), publisher.Config{Logger: &recordingLogger{}})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	tr.AssertExpectations(t)

	_, err = c.Init(t.Context(), publisher.Config{Logger: &recordingLogger{}})
	assert.ErrorIs(t, err, publisher.ErrConnectorClosed)
}

func TestConnector_CloseBeforeInit(t *testing.T) {
	var dials int32
	c := publisher.NewConnector(countingDial(&mocks.MockTransport{}, &dials, nil))
	assert.NoError(t, c.Close())
}

type statusTransport struct {
	mocks.MockTransport
}

func (s *statusTransport) Status() string { return "ready" }

func TestConnector_Status(t *testing.T) {
	var dials int32
	tr := &statusTransport{}
	tr.On("Close").Return(nil)
	c := publisher.NewConnector(countingDial(tr, &dials, nil))
	assert.Equal(t, "disconnected", c.Status())

	_, err := c.Init(t.Context(), publisher.Config{Logger: &recordingLogger{}})
	require.NoError(t, err)
	assert.Equal(t, "ready", c.Status())

	require.NoError(t, c.Close())
	assert.Equal(t, "disconnected", c.Status())
}

func TestConnector_StatusUnknown(t *testing.T) {
	var dials int32
	c := publisher.NewConnector(countingDial(&mocks.MockTransport{}, &dials, nil))
	_, err := c.Init(t.Context(), publisher.Config{Logger: &recordingLogger{}})
	require.NoError(t, err)
	assert.Equal(t, "unknown", c.Status())
}
