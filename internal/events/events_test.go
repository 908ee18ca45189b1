package events

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/retry"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

type sent struct {
	subject string
	data    []byte
}

type fakeStream struct {
	mu       sync.Mutex
	sent     []sent
	failures int // calls to fail before succeeding
	calls    int
	started  chan struct{}
	gate     chan struct{}
}

func (f *fakeStream) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, stdErrors.New("no responders")
	}
	f.sent = append(f.sent, sent{subject: subject, data: payload})
	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.sent))}, nil
}

func (f *fakeStream) snapshot() ([]sent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...), f.calls
}

func fastRetry(n int) retry.Policy {
	return retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, n)
}

func TestNewEvent(t *testing.T) {
	r := analyzer.Result{StatusCode: 429, Category: taxonomy.CategoryRateLimit}
	ev := NewEvent("cli", r)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventType, ev.Type)
	assert.False(t, ev.Time.IsZero())

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "cli", doc["source"])
	result, ok := doc["result"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, result, "analysis")

	assert.NotEqual(t, ev.ID, NewEvent("cli", r).ID)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "errdetective.classified.rate_limit",
		Subject("errdetective.classified", analyzer.Result{Category: taxonomy.CategoryRateLimit}))
	assert.Equal(t, "x.unknown", Subject("x.", analyzer.Result{}))
}

func TestNATSPublisher_Delivers(t *testing.T) {
	fs := &fakeStream{}
	p := newPublisher(fs, Options{Source: "test", Retry: fastRetry(0)})

	ctx := observability.WithSource(context.Background(), "service")
	require.NoError(t, p.Publish(ctx, analyzer.Result{Category: taxonomy.CategoryServerError}))
	require.NoError(t, p.Publish(context.Background(), analyzer.Result{Category: taxonomy.CategoryAuthError}))
	require.NoError(t, p.Close(context.Background()))

	got, _ := fs.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "errdetective.classified.server_error", got[0].subject)
	assert.Equal(t, "errdetective.classified.auth_error", got[1].subject)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(got[0].data, &ev))
	assert.Equal(t, "service", ev["source"])
	require.NoError(t, json.Unmarshal(got[1].data, &ev))
	assert.Equal(t, "test", ev["source"])
}

func TestNATSPublisher_Retries(t *testing.T) {
	fs := &fakeStream{failures: 2}
	p := newPublisher(fs, Options{Retry: fastRetry(3)})
	require.NoError(t, p.Publish(context.Background(), analyzer.Result{}))
	require.NoError(t, p.Close(context.Background()))

	got, calls := fs.snapshot()
	assert.Len(t, got, 1)
	assert.Equal(t, 3, calls)
}

func TestNATSPublisher_GivesUp(t *testing.T) {
	fs := &fakeStream{failures: 10}
	p := newPublisher(fs, Options{Retry: fastRetry(1)})
	require.NoError(t, p.Publish(context.Background(), analyzer.Result{}))
	require.NoError(t, p.Close(context.Background()))

	got, calls := fs.snapshot()
	assert.Empty(t, got)
	assert.Equal(t, 2, calls)
}

func TestNATSPublisher_QueueFull(t *testing.T) {
	fs := &fakeStream{started: make(chan struct{}, 1), gate: make(chan struct{})}
	p := newPublisher(fs, Options{QueueSize: 1, Retry: fastRetry(0)})

	require.NoError(t, p.Publish(context.Background(), analyzer.Result{}))
	<-fs.started // the worker holds the first event

	require.NoError(t, p.Publish(context.Background(), analyzer.Result{}))
	err := p.Publish(context.Background(), analyzer.Result{})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(fs.gate)
	require.NoError(t, p.Close(context.Background()))
	got, _ := fs.snapshot()
	assert.Len(t, got, 2)
}

func TestNATSPublisher_Closed(t *testing.T) {
	p := newPublisher(&fakeStream{}, Options{})
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))
	assert.ErrorIs(t, p.Publish(context.Background(), analyzer.Result{}), ErrClosed)
}

func TestNATSPublisher_CloseDeadline(t *testing.T) {
	fs := &fakeStream{started: make(chan struct{}, 1), gate: make(chan struct{})}
	p := newPublisher(fs, Options{Retry: fastRetry(0)})
	require.NoError(t, p.Publish(context.Background(), analyzer.Result{}))
	<-fs.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(fs.gate)
	}()
	err := p.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), analyzer.Result{}))
}
