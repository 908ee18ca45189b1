// Package service runs errdetective as a long-lived process: a NATS
// request/reply classification endpoint, catalog overlay hot reload and a
// Prometheus scrape endpoint.
package service

import (
	"sync/atomic"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
	"git.home.luguber.info/inful/errdetective/internal/catalog"
)

// Holder shares the current analyzer between request handlers and the
// overlay watcher. Swaps are atomic; in-flight requests keep the analyzer
// they started with.
type Holder struct {
	current atomic.Pointer[analyzer.Analyzer]
}

func NewHolder(a *analyzer.Analyzer) *Holder {
	h := &Holder{}
	h.Store(a)
	return h
}

func (h *Holder) Load() *analyzer.Analyzer { return h.current.Load() }

func (h *Holder) Store(a *analyzer.Analyzer) {
	if a != nil {
		h.current.Store(a)
	}
}

// BuildFunc builds an analyzer for the overlay at path ("" for none).
type BuildFunc func(path string) (*analyzer.Analyzer, error)

// NewBuilder returns a BuildFunc that applies opts to every analyzer it builds.
func NewBuilder(opts ...analyzer.Option) BuildFunc {
	return func(path string) (*analyzer.Analyzer, error) {
		var copts []catalog.Option
		if path != "" {
			copts = append(copts, catalog.WithOverlayFile(path))
		}
		c, err := catalog.New(copts...)
		if err != nil {
			return nil, err
		}
		all := make([]analyzer.Option, 0, len(opts)+1)
		all = append(all, analyzer.WithCatalog(c))
		all = append(all, opts...)
		return analyzer.New(all...), nil
	}
}
