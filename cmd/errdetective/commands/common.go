package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/config"
	"git.home.luguber.info/inful/errdetective/internal/events"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/render"
	"git.home.luguber.info/inful/errdetective/internal/retry"
	"git.home.luguber.info/inful/errdetective/internal/service"
)

// Global carries process-wide state into command Run methods.
type Global struct {
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

// NewGlobal wires the standard streams.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), In: os.Stdin, Out: os.Stdout}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path; a missing file means defaults" default:"errdetective.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Output  string           `short:"o" help:"Output format: text, json or pretty" default:"text" enum:"text,json,pretty"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Classify  ClassifyCmd  `cmd:"" help:"Classify one error from flags"`
	Parse     ParseCmd     `cmd:"" help:"Parse an error log and optionally classify it"`
	Batch     BatchCmd     `cmd:"" help:"Classify a JSON array or JSON lines of errors"`
	Serve     ServeCmd     `cmd:"" help:"Answer classification requests over NATS"`
	Endpoints EndpointsCmd `cmd:"" help:"List the endpoints with specific rules"`
	Info      VersionCmd   `cmd:"" name:"version" help:"Print build information"`

	Loaded *config.Config `kong:"-"`
}

// AfterApply runs after flag parsing; loads configuration and sets up logging once.
func (c *CLI) AfterApply() error {
	cfg, err := config.LoadOptional(c.Config)
	if err != nil {
		return err
	}
	c.Loaded = cfg

	level := cfg.Logging.Level.Slog()
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func (c *CLI) config() *config.Config {
	if c.Loaded == nil {
		c.Loaded = config.Default()
	}
	return c.Loaded
}

func (c *CLI) format() render.Format {
	f, err := render.ParseFormat(c.Output)
	if err != nil {
		return render.FormatText
	}
	return f
}

// newAnalyzer builds the analyzer for one-shot commands. The returned
// cleanup flushes the event publisher when one is configured.
func newAnalyzer(ctx context.Context, g *Global, root *CLI, extra ...analyzer.Option) (*analyzer.Analyzer, func(), error) {
	cfg := root.config()
	opts := []analyzer.Option{
		analyzer.WithLogger(g.Logger),
		analyzer.WithConcurrency(cfg.Batch.Concurrency),
		analyzer.WithChunkSize(cfg.Batch.ChunkSize),
		analyzer.WithParseCache(cfg.Cache.ParseEntries),
	}
	cleanup := func() {}

	if cfg.Events.Enabled {
		pub, err := newPublisher(ctx, cfg, g.Logger, "cli")
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, analyzer.WithPublisher(pub))
		cleanup = func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := pub.Close(closeCtx); err != nil {
				observability.WarnContext(closeCtx, "event publisher did not drain", slog.String("error", err.Error()))
			}
		}
	}
	opts = append(opts, extra...)

	a, err := service.NewBuilder(opts...)(cfg.Catalog.OverlayFile)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger, source string) (*events.NATSPublisher, error) {
	r := cfg.Events.Retry
	return events.NewNATSPublisher(ctx, cfg.Events.NATSURL, events.Options{
		SubjectPrefix: cfg.Events.Subject,
		Stream:        cfg.Events.Stream,
		Source:        source,
		Retry:         retry.NewPolicy(retry.BackoffMode(r.Backoff), r.Initial.Std(), r.Max.Std(), r.MaxRetries),
		Logger:        logger,
	})
}

// readInput returns the contents of path, or of g.In when path is "" or "-".
func readInput(g *Global, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(g.In)
	}
	return os.ReadFile(path)
}
