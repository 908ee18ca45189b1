// Package engine decides the category and retryability of an API error by
// walking a fixed precedence chain over the catalog tables.
package engine

import (
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/errdetective/internal/catalog"
	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

// Tier names the rule that produced a decision.
type Tier string

const (
	TierVendorCode        Tier = "vendor_code"
	TierEndpoint          Tier = "endpoint"
	TierEndpointHeuristic Tier = "endpoint_heuristic"
	TierStatusCode        Tier = "status_code"
	TierMessagePattern    Tier = "message_pattern"
	TierFallback          Tier = "fallback"

	// TierInputType marks decisions fixed by the input shape itself, such as
	// signature verification failures.
	TierInputType Tier = "input_type"
)

// Query is the normalized evidence for one error.
type Query struct {
	StatusCode int
	Message    string
	VendorCode string
	Endpoint   taxonomy.EndpointKey
}

// Decision is the outcome of Classify.
type Decision struct {
	Category  taxonomy.Category
	Retryable bool
	Tier      Tier

	// Endpoint is the resolved registered endpoint, zero when none applied.
	Endpoint taxonomy.EndpointKey
}

// Engine is stateless apart from its catalog and safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
}

// New returns an engine over c, or over the default catalog when c is nil.
func New(c *catalog.Catalog) *Engine {
	if c == nil {
		c = catalog.Default()
	}
	return &Engine{catalog: c}
}

// Catalog returns the tables the engine consults.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Classify is total: every query yields a decision, UNKNOWN at worst.
//
// Precedence: vendor code, endpoint table, endpoint heuristics, message
// patterns over the status table, status table alone, UNKNOWN.
func (e *Engine) Classify(q Query) Decision {
	if r, ok := e.catalog.VendorRule(strings.TrimSpace(q.VendorCode)); ok {
		return Decision{Category: r.Category, Retryable: r.Retryable, Tier: TierVendorCode}
	}

	folded := fold(q.Message)

	key, registered := e.catalog.ResolveEndpoint(q.Endpoint)
	if registered {
		if entry, ok := e.catalog.EndpointEntry(key, q.StatusCode); ok {
			return Decision{Category: entry.Category, Retryable: entry.Retryable, Tier: TierEndpoint, Endpoint: key}
		}
		if cat, ok := heuristic(key, q.StatusCode, folded); ok {
			return Decision{Category: cat, Retryable: false, Tier: TierEndpointHeuristic, Endpoint: key}
		}
	}

	base, hasBase := e.catalog.StatusRule(q.StatusCode)

	if p, ok := e.catalog.MatchPattern(folded); ok {
		return Decision{
			Category:  p.Category,
			Retryable: p.Retryable || (hasBase && base.Retryable),
			Tier:      TierMessagePattern,
			Endpoint:  key,
		}
	}

	if hasBase {
		return Decision{Category: base.Category, Retryable: base.Retryable, Tier: TierStatusCode, Endpoint: key}
	}
	return Decision{Category: taxonomy.CategoryUnknown, Retryable: false, Tier: TierFallback, Endpoint: key}
}

// ResolveDetails merges endpoint-specific guidance over the category-generic
// entry field by field. Unmapped categories use the UNKNOWN guidance.
func (e *Engine) ResolveDetails(cat taxonomy.Category, endpoint taxonomy.EndpointKey, status int) taxonomy.Details {
	generic := e.catalog.Details(cat)
	key, ok := e.catalog.ResolveEndpoint(endpoint)
	if !ok {
		return generic.Merge(taxonomy.Details{})
	}
	entry, ok := e.catalog.EndpointEntry(key, status)
	if !ok || entry.Category != cat {
		return generic.Merge(taxonomy.Details{})
	}
	return entry.Details.Merge(generic)
}

// heuristic disambiguates 404s whose meaning depends on the endpoint.
func heuristic(key taxonomy.EndpointKey, status int, folded string) (taxonomy.Category, bool) {
	if status != 404 || folded == "" {
		return "", false
	}
	switch {
	case key.Namespace == "user" && strings.Contains(key.Operation, "profile"),
		key.Namespace == "message":
		if strings.Contains(folded, "user not found") {
			return taxonomy.CategoryUserNotFound, true
		}
		if strings.Contains(folded, "not found") {
			return taxonomy.CategoryUserBlocked, true
		}
	case key.Namespace == "webhook":
		if strings.Contains(folded, "not found") {
			return taxonomy.CategoryWebhookError, true
		}
	}
	return "", false
}

// fold case-folds s. cases.Caser keeps state, so one is created per call.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
