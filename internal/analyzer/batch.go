package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/errdetective/internal/engine"
	"git.home.luguber.info/inful/errdetective/internal/logfields"
	"git.home.luguber.info/inful/errdetective/internal/metrics"
	"git.home.luguber.info/inful/errdetective/internal/observability"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

// AnalyzeBatch classifies every value and never fails: an item that cannot
// be analyzed yields an UNKNOWN result whose description names the failure.
// Results are in input order. Items are scheduled chunk by chunk, with at
// most the configured concurrency within a chunk.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, values []any) []Result {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]Result, len(values))
	if len(values) == 0 {
		return results
	}

	start := time.Now()
	batchID := uuid.NewString()
	if observability.GetContext(ctx).BatchID == "" {
		ctx = observability.WithBatchID(ctx, batchID)
	}

	for lo := 0; lo < len(values); lo += a.chunkSize {
		hi := min(lo+a.chunkSize, len(values))

		var g errgroup.Group
		g.SetLimit(a.concurrency)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				results[i] = a.analyzeItem(ctx, i, values[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	a.recorder.ObserveBatch(len(values), time.Since(start))
	observability.Log(ctx, a.logger, slog.LevelDebug, "batch analyzed",
		logfields.BatchSize(len(values)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
	)
	return results
}

func (a *Analyzer) analyzeItem(ctx context.Context, index int, v any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			a.recorder.IncInputResult(kindOf(v), metrics.ResultFailed)
			res = failureResult(kindOf(v), fmt.Errorf("panic: %v", rec))
		}
	}()

	r, err := a.analyzeOne(ctx, v)
	if err != nil {
		observability.Log(ctx, a.logger, slog.LevelWarn, "batch item failed",
			logfields.Index(index),
			logfields.Error(err),
		)
		return failureResult(kindOf(v), err)
	}
	return r
}

// failureResult is the UNKNOWN placeholder for an input that could not be analyzed.
func failureResult(kind string, err error) Result {
	msg := fmt.Sprintf("Analysis failed: %v", err)
	return Result{
		Message:           msg,
		Category:          taxonomy.CategoryUnknown,
		Severity:          taxonomy.SeverityOf(taxonomy.CategoryUnknown),
		Description:       msg,
		RecommendedAction: "Check that the input is a supported error shape.",
		Headers:           map[string]string{},
		Tier:              engine.TierFallback,
		InputKind:         kind,
		RawInput:          map[string]any{"error": err.Error()},
	}
}
