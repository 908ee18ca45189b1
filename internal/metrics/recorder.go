package metrics

import "time"

// ResultLabel enumerates per-input outcomes for counters.
type ResultLabel string

const (
	ResultClassified  ResultLabel = "classified"
	ResultDegraded    ResultLabel = "degraded"
	ResultUnsupported ResultLabel = "unsupported"
	ResultFailed      ResultLabel = "failed"
	ResultCanceled    ResultLabel = "canceled"
)

// Recorder defines observability hooks for classification. Implementations
// may forward to Prometheus or a test double; NoopRecorder is the default.
type Recorder interface {
	IncClassification(category, tier string, retryable bool)
	ObserveClassifyDuration(d time.Duration)
	IncInputResult(kind string, result ResultLabel)
	IncParseCache(hit bool)
	ObserveBatch(size int, d time.Duration)
	IncEventPublish(success bool)
	IncCatalogReload(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncClassification(string, string, bool) {}
func (NoopRecorder) ObserveClassifyDuration(time.Duration)  {}
func (NoopRecorder) IncInputResult(string, ResultLabel)     {}
func (NoopRecorder) IncParseCache(bool)                     {}
func (NoopRecorder) ObserveBatch(int, time.Duration)        {}
func (NoopRecorder) IncEventPublish(bool)                   {}
func (NoopRecorder) IncCatalogReload(bool)                  {}
