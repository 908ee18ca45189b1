// Package analyzer is the entry point for classifying API errors. It maps
// the supported input shapes onto evidence, runs the engine and assembles
// results, one at a time or in batches.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/errdetective/internal/catalog"
	"git.home.luguber.info/inful/errdetective/internal/engine"
	"git.home.luguber.info/inful/errdetective/internal/errors"
	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/logparse"
	"git.home.luguber.info/inful/errdetective/internal/metrics"
	"git.home.luguber.info/inful/errdetective/internal/observability"
)

const (
	DefaultConcurrency  = 8
	DefaultChunkSize    = 10
	DefaultParseEntries = 512
)

// Publisher receives every single-item result. Implementations must not
// block for long; failures are logged and otherwise ignored.
type Publisher interface {
	Publish(ctx context.Context, r Result) error
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	assembler   *Assembler
	parser      *logparse.Parser
	cache       *lru.Cache[string, logparse.Record]
	recorder    metrics.Recorder
	logger      *slog.Logger
	publisher   Publisher
	concurrency int
	chunkSize   int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCatalog classifies against c instead of the default catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *Analyzer) { a.assembler = NewAssembler(engine.New(c)) }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(a *Analyzer) { a.publisher = p }
}

// WithParseCache memoizes up to n log parses; n <= 0 disables the cache.
func WithParseCache(n int) Option {
	return func(a *Analyzer) {
		if n <= 0 {
			a.cache = nil
			return
		}
		c, err := lru.New[string, logparse.Record](n)
		if err == nil {
			a.cache = c
		}
	}
}

// WithConcurrency bounds the goroutines used per batch chunk.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithChunkSize sets how many batch items are scheduled together.
func WithChunkSize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// New returns an analyzer over the default catalog unless WithCatalog is given.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		assembler:   NewAssembler(nil),
		parser:      logparse.New(),
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
		chunkSize:   DefaultChunkSize,
	}
	WithParseCache(DefaultParseEntries)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the tables in use.
func (a *Analyzer) Catalog() *catalog.Catalog { return a.assembler.Engine().Catalog() }

// Parser returns the log parser in use.
func (a *Analyzer) Parser() *logparse.Parser { return a.parser }

// Analyze classifies one value. See FromValue for the accepted shapes.
func (a *Analyzer) Analyze(v any) (Result, error) {
	return a.AnalyzeContext(context.Background(), v)
}

// AnalyzeContext is Analyze with cancellation checked before any work.
// Unsupported inputs return an unsupported_input error; faults raised while
// classifying return an internal error.
func (a *Analyzer) AnalyzeContext(ctx context.Context, v any) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := a.analyzeOne(ctx, v)
	if err != nil {
		return Result{}, err
	}
	a.publish(ctx, r)
	return r, nil
}

// AnalyzeLog classifies log text, optionally for a known endpoint. It never fails.
func (a *Analyzer) AnalyzeLog(ctx context.Context, text, endpoint string) Result {
	r, err := a.AnalyzeContext(ctx, LogTextInput{Text: text, Endpoint: endpoint})
	if err != nil {
		return failureResult(LogTextInput{}.Kind(), err)
	}
	return r
}

func (a *Analyzer) analyzeOne(ctx context.Context, v any) (res Result, err error) {
	if err := ctx.Err(); err != nil {
		a.recorder.IncInputResult(kindOf(v), metrics.ResultCanceled)
		return Result{}, errors.Wrap(err, errors.CategoryRuntime, errors.SeverityWarning, "analysis canceled")
	}

	in, err := FromValue(v)
	if err != nil {
		a.recorder.IncInputResult(kindOf(v), metrics.ResultUnsupported)
		return Result{}, err
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			a.recorder.IncInputResult(kindOf(in), metrics.ResultFailed)
			err = errors.InternalClassification(fmt.Sprintf("%v", v), fmt.Errorf("panic: %v", rec))
			res = Result{}
		}
	}()

	ev := a.collect(in)
	res = a.assembler.Assemble(ev)

	a.recorder.ObserveClassifyDuration(time.Since(start))
	a.recorder.IncClassification(string(res.Category), string(res.Tier), res.IsRetryable)
	result := metrics.ResultClassified
	if ev.Description == parseFailedDescription {
		result = metrics.ResultDegraded
	}
	a.recorder.IncInputResult(in.Kind(), result)

	if a.logger.Enabled(ctx, slog.LevelDebug) {
		observability.Log(ctx, a.logger, slog.LevelDebug, "classified error",
			logfields.Category(string(res.Category)),
			logfields.StatusCode(res.StatusCode),
			logfields.Tier(string(res.Tier)),
			logfields.Retryable(res.IsRetryable),
			logfields.Endpoint(res.Endpoint),
			logfields.RequestID(res.RequestID),
		)
	}
	return res, nil
}

func (a *Analyzer) parse(text string) logparse.Record {
	if a.cache == nil {
		return a.parser.Parse(text)
	}
	if rec, ok := a.cache.Get(text); ok {
		a.recorder.IncParseCache(true)
		return rec
	}
	a.recorder.IncParseCache(false)
	rec := a.parser.Parse(text)
	a.cache.Add(text, rec)
	return rec
}

func (a *Analyzer) publish(ctx context.Context, r Result) {
	if a.publisher == nil {
		return
	}
	err := a.publisher.Publish(ctx, r)
	a.recorder.IncEventPublish(err == nil)
	if err != nil {
		observability.Log(ctx, a.logger, slog.LevelWarn, "failed to publish classification event",
			logfields.Category(string(r.Category)),
			logfields.Error(err),
		)
	}
}

// kindOf names v for metrics, tolerating nil pointer variants.
func kindOf(v any) (kind string) {
	defer func() {
		if recover() != nil {
			kind = fmt.Sprintf("%T", v)
		}
	}()
	if in, ok := v.(Input); ok {
		return in.Kind()
	}
	return fmt.Sprintf("%T", v)
}
