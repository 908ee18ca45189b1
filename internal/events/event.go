// Package events publishes classification results to NATS JetStream so that
// downstream consumers (alerting, dashboards) can react to API failures.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/errdetective/internal/analyzer"
)

// EventType identifies the payload carried by an Event.
const EventType = "errdetective.classification"

// Event is the envelope written to the stream.
type Event struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Source string          `json:"source,omitempty"` // cli, service, ...
	Result analyzer.Result `json:"result"`
}

// NewEvent wraps r in an envelope with a fresh id.
func NewEvent(source string, r analyzer.Result) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   EventType,
		Time:   time.Now().UTC(),
		Source: source,
		Result: r,
	}
}

// Subject returns the per-category subject under prefix, for example
// "errdetective.classified.rate_limit".
func Subject(prefix string, r analyzer.Result) string {
	cat := strings.ToLower(string(r.Category))
	if cat == "" {
		cat = "unknown"
	}
	return strings.TrimSuffix(prefix, ".") + "." + cat
}

// Noop discards every result.
type Noop struct{}

func (Noop) Publish(context.Context, analyzer.Result) error { return nil }

var _ analyzer.Publisher = Noop{}
