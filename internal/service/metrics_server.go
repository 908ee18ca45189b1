package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/metrics"
)

// MetricsServer serves /metrics and /healthz.
type MetricsServer struct {
	addr   string
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

func NewMetricsServer(addr string, g prom.Gatherer, logger *slog.Logger) *MetricsServer {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(g))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &MetricsServer{
		addr:   addr,
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second},
		logger: logger,
	}
}

// Start binds the listener and serves in the background.
func (m *MetricsServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return errors.TransportError("listen "+m.addr, err)
	}
	m.ln = ln
	m.logger.LogAttrs(ctx, slog.LevelInfo, "Metrics server listening", logfields.Addr(ln.Addr().String()))
	go func() {
		if err := m.srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			m.logger.LogAttrs(ctx, slog.LevelError, "Metrics server stopped", logfields.Error(err))
		}
	}()
	return nil
}

// Addr is the bound address, useful with ":0".
func (m *MetricsServer) Addr() string {
	if m.ln == nil {
		return m.addr
	}
	return m.ln.Addr().String()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.ln == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}
