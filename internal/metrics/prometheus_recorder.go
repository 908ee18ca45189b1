package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric.
const Namespace = "errdetective"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	classifications  *prom.CounterVec
	classifyDuration prom.Histogram
	inputResults     *prom.CounterVec
	parseCache       *prom.CounterVec
	batchSize        prom.Histogram
	batchDuration    prom.Histogram
	eventPublish     *prom.CounterVec
	catalogReloads   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.classifications = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "classifications_total",
			Help:      "Classified errors by category, deciding tier and retryability",
		}, []string{"category", "tier", "retryable"})
		pr.classifyDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time to classify a single input",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		})
		pr.inputResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "input_results_total",
			Help:      "Input outcomes by input kind",
		}, []string{"kind", "result"})
		pr.parseCache = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "parse_cache_total",
			Help:      "Log parse cache lookups",
		}, []string{"result"})
		pr.batchSize = prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_size",
			Help:      "Number of inputs per batch",
			Buckets:   prom.ExponentialBuckets(1, 4, 7),
		})
		pr.batchDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch analysis",
			Buckets:   prom.DefBuckets,
		})
		pr.eventPublish = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "event_publish_total",
			Help:      "Classification event publish attempts by result",
		}, []string{"result"})
		pr.catalogReloads = prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog overlay reloads by result",
		}, []string{"result"})
		reg.MustRegister(pr.classifications, pr.classifyDuration, pr.inputResults, pr.parseCache,
			pr.batchSize, pr.batchDuration, pr.eventPublish, pr.catalogReloads)
	})
	return pr
}

func (p *PrometheusRecorder) IncClassification(category, tier string, retryable bool) {
	if p == nil || p.classifications == nil {
		return
	}
	p.classifications.WithLabelValues(category, tier, strconv.FormatBool(retryable)).Inc()
}

func (p *PrometheusRecorder) ObserveClassifyDuration(d time.Duration) {
	if p == nil || p.classifyDuration == nil {
		return
	}
	p.classifyDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncInputResult(kind string, result ResultLabel) {
	if p == nil || p.inputResults == nil {
		return
	}
	p.inputResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) IncParseCache(hit bool) {
	if p == nil || p.parseCache == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.parseCache.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveBatch(size int, d time.Duration) {
	if p == nil || p.batchSize == nil {
		return
	}
	p.batchSize.Observe(float64(size))
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncEventPublish(success bool) {
	if p == nil || p.eventPublish == nil {
		return
	}
	p.eventPublish.WithLabelValues(outcome(success)).Inc()
}

func (p *PrometheusRecorder) IncCatalogReload(success bool) {
	if p == nil || p.catalogReloads == nil {
		return
	}
	p.catalogReloads.WithLabelValues(outcome(success)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
