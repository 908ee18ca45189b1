package events

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/retry"
)

const (
	DefaultSubjectPrefix = "errdetective.classified"
	DefaultStream        = "ERRDETECTIVE"
	DefaultQueueSize     = 256
	DefaultTimeout       = 5 * time.Second
)

var (
	// ErrQueueFull is returned by Publish when the outbound queue is saturated.
	ErrQueueFull = stdErrors.New("event queue is full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = stdErrors.New("publisher is closed")
)

// streamPublisher is the part of jetstream.JetStream the publisher uses.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Options configures a NATSPublisher. Zero values take the defaults above.
type Options struct {
	SubjectPrefix string
	Stream        string
	Source        string
	QueueSize     int
	Timeout       time.Duration
	Retry         retry.Policy
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SubjectPrefix == "" {
		o.SubjectPrefix = DefaultSubjectPrefix
	}
	if o.Stream == "" {
		o.Stream = DefaultStream
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retry.Validate() != nil {
		o.Retry = retry.DefaultPolicy()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type outbound struct {
	id      string
	subject string
	data    []byte
}

// NATSPublisher hands results to a background worker that writes them to
// JetStream, so Publish never waits on the network. Deliveries are retried
// with the configured backoff and deduplicated by event id.
type NATSPublisher struct {
	conn *nats.Conn
	js   streamPublisher
	opts Options

	mu     sync.RWMutex
	closed bool
	queue  chan outbound

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNATSPublisher connects to url and makes sure the stream exists.
func NewNATSPublisher(ctx context.Context, url string, opts Options) (*NATSPublisher, error) {
	opts = opts.withDefaults()

	conn, err := nats.Connect(url, nats.Name("errdetective"))
	if err != nil {
		return nil, errors.TransportError("nats connect", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.TransportError("jetstream context", err)
	}
	if err := ensureStream(ctx, js, opts); err != nil {
		conn.Close()
		return nil, err
	}

	p := newPublisher(js, opts)
	p.conn = conn
	opts.Logger.LogAttrs(ctx, slog.LevelInfo, "NATS event publisher ready",
		slog.String("url", url),
		logfields.Subject(opts.SubjectPrefix+".>"),
	)
	return p, nil
}

// ensureStream looks the stream up and creates it when missing.
func ensureStream(ctx context.Context, js jetstream.JetStream, opts Options) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := js.Stream(ctx, opts.Stream)
	if err == nil {
		return nil
	}
	if !stdErrors.Is(err, jetstream.ErrStreamNotFound) {
		return errors.TransportError("lookup stream "+opts.Stream, err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        opts.Stream,
		Description: "Classified LINE API errors",
		Subjects:    []string{opts.SubjectPrefix + ".>"},
		MaxAge:      7 * 24 * time.Hour,
	})
	if err != nil {
		return errors.TransportError("create stream "+opts.Stream, err)
	}
	opts.Logger.LogAttrs(ctx, slog.LevelInfo, "Created event stream", slog.String("stream", opts.Stream))
	return nil
}

func newPublisher(js streamPublisher, opts Options) *NATSPublisher {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	p := &NATSPublisher{
		js:     js,
		opts:   opts,
		queue:  make(chan outbound, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues r. It fails only when the queue is full or closed.
func (p *NATSPublisher) Publish(ctx context.Context, r analyzer.Result) error {
	source := p.opts.Source
	if s := observability.GetContext(ctx).Source; s != "" {
		source = s
	}
	ev := NewEvent(source, r)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := outbound{id: ev.ID, subject: Subject(p.opts.SubjectPrefix, r), data: data}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *NATSPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		p.deliver(msg)
	}
}

func (p *NATSPublisher) deliver(msg outbound) {
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, p.opts.Timeout)
		_, err := p.js.Publish(ctx, msg.subject, msg.data, jetstream.WithMsgID(msg.id))
		cancel()
		if err == nil {
			p.opts.Logger.LogAttrs(p.ctx, slog.LevelDebug, "Published classification event",
				logfields.Subject(msg.subject),
				slog.String("event_id", msg.id),
			)
			return
		}
		if attempt >= p.opts.Retry.MaxRetries || p.ctx.Err() != nil {
			p.opts.Logger.LogAttrs(p.ctx, slog.LevelError, "Dropping classification event",
				logfields.Subject(msg.subject),
				slog.String("event_id", msg.id),
				slog.Int("attempts", attempt+1),
				logfields.Error(err),
			)
			return
		}
		t := time.NewTimer(p.opts.Retry.Delay(attempt + 1))
		select {
		case <-t.C:
		case <-p.ctx.Done():
			t.Stop()
			return
		}
	}
}

// Close stops accepting events and drains the queue until ctx expires, then
// closes the connection. Pending events are dropped when ctx ends first.
func (p *NATSPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	var err error
	select {
	case <-p.done:
	case <-ctx.Done():
		err = ctx.Err()
		p.cancel()
		<-p.done
	}
	p.cancel()
	if p.conn != nil {
		if drainErr := p.conn.Drain(); drainErr != nil && err == nil {
			err = drainErr
		}
	}
	return err
}

var _ analyzer.Publisher = (*NATSPublisher)(nil)
