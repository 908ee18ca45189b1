package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/observability"
)

// RequestIDHeader is copied into the log context of a request when present.
const RequestIDHeader = "X-Request-Id"

// Server answers classification requests on a NATS subject. Instances in
// the same queue group share the load.
type Server struct {
	conn       *nats.Conn
	handler    *Handler
	subject    string
	queueGroup string
	logger     *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

func NewServer(conn *nats.Conn, handler *Handler, subject, queueGroup string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{conn: conn, handler: handler, subject: subject, queueGroup: queueGroup, logger: logger}
}

// Start subscribes; requests are handled until Stop or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.conn.QueueSubscribe(s.subject, s.queueGroup, func(m *nats.Msg) {
		reqCtx := ctx
		if m.Header != nil {
			if id := m.Header.Get(RequestIDHeader); id != "" {
				reqCtx = observability.WithRequestID(reqCtx, id)
			}
		}
		reply := s.handler.Handle(reqCtx, m.Data)
		if m.Reply == "" {
			return
		}
		if err := m.Respond(reply); err != nil {
			observability.Log(reqCtx, s.logger, slog.LevelError, "failed to send reply",
				logfields.Subject(m.Reply),
				logfields.Error(err),
			)
		}
	})
	if err != nil {
		return errors.TransportError("subscribe "+s.subject, err)
	}
	s.sub = sub
	s.logger.LogAttrs(ctx, slog.LevelInfo, "Classification service listening",
		logfields.Subject(s.subject),
		slog.String("queue_group", s.queueGroup),
	)
	return nil
}

// Stop drains the subscription so in-flight requests still get replies.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil
	}
	err := s.sub.Drain()
	s.sub = nil
	if err != nil {
		return errors.TransportError("drain "+s.subject, err)
	}
	return nil
}
