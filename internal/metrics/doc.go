// Package metrics provides classification metrics behind a Recorder
// interface.
//
// Components receive a Recorder through options and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	a := analyzer.New(analyzer.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registerer once;
// HTTPHandler exposes a gatherer for scraping.
package metrics
