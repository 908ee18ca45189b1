package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/metrics"
	"git.home.luguber.info/inful/errdetective/internal/service"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	NATSURL string `name:"nats-url" help:"Override service.nats_url"`
	Subject string `help:"Override service.subject"`
	Metrics string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides metrics.listen_addr)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg := root.config()
	url := firstNonEmpty(s.NATSURL, cfg.Service.NATSURL)
	subject := firstNonEmpty(s.Subject, cfg.Service.Subject)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsSrv *service.MetricsServer
	if cfg.Metrics.Enabled || s.Metrics != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsSrv = service.NewMetricsServer(firstNonEmpty(s.Metrics, cfg.Metrics.ListenAddr), reg, g.Logger)
		if err := metricsSrv.Start(ctx); err != nil {
			return err
		}
	}

	opts := []analyzer.Option{
		analyzer.WithLogger(g.Logger),
		analyzer.WithRecorder(recorder),
		analyzer.WithConcurrency(cfg.Batch.Concurrency),
		analyzer.WithChunkSize(cfg.Batch.ChunkSize),
		analyzer.WithParseCache(cfg.Cache.ParseEntries),
	}
	if cfg.Events.Enabled {
		pub, err := newPublisher(ctx, cfg, g.Logger, "service")
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			_ = pub.Close(closeCtx)
		}()
		opts = append(opts, analyzer.WithPublisher(pub))
	}

	build := service.NewBuilder(opts...)
	a, err := build(cfg.Catalog.OverlayFile)
	if err != nil {
		return err
	}
	holder := service.NewHolder(a)

	if cfg.Catalog.Watch {
		w, err := service.NewOverlayWatcher(cfg.Catalog.OverlayFile, holder, build, recorder, g.Logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
	}

	conn, err := nats.Connect(url, nats.Name("errdetective-service"))
	if err != nil {
		return errors.TransportError("nats connect "+url, err)
	}
	defer conn.Close()

	handler := service.NewHandler(holder, cfg.Service.Timeout.Std(), g.Logger)
	srv := service.NewServer(conn, handler, subject, cfg.Service.QueueGroup, g.Logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	g.Logger.LogAttrs(context.Background(), slog.LevelInfo, "Shutdown signal received, stopping service", logfields.Subject(subject))

	if err := srv.Stop(); err != nil {
		g.Logger.LogAttrs(context.Background(), slog.LevelWarn, "Failed to drain subscription", logfields.Error(err))
	}
	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			g.Logger.LogAttrs(context.Background(), slog.LevelWarn, "Metrics server shutdown failed", logfields.Error(err))
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
