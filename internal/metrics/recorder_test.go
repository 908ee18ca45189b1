package metrics

import (
	"testing"
	"time"
)

// Compile-time checks that both implementations satisfy Recorder.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorderDoesNothing(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncClassification("UNKNOWN", "fallback", false)
	r.ObserveClassifyDuration(time.Millisecond)
	r.IncInputResult("dict", ResultClassified)
	r.IncParseCache(true)
	r.ObserveBatch(3, time.Second)
	r.IncEventPublish(false)
	r.IncCatalogReload(true)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.IncClassification("UNKNOWN", "fallback", false)
	p.ObserveBatch(1, time.Millisecond)
	p.IncEventPublish(true)
}
