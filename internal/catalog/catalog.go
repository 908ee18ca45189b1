// Package catalog holds the static tables the classifier consults: the base
// HTTP status table, vendor error codes, ordered message patterns, the
// endpoint hierarchy and per-category guidance.
//
// A Catalog is immutable after New returns and safe for concurrent use.
package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

// Rule is a category plus the retryability that goes with it.
type Rule struct {
	Category  taxonomy.Category
	Retryable bool
}

// PatternEntry is one compiled message pattern.
type PatternEntry struct {
	Pattern   *regexp.Regexp
	Category  taxonomy.Category
	Retryable bool
}

// EndpointEntry is the endpoint-specific mapping for one (endpoint, status).
type EndpointEntry struct {
	Rule
	Details taxonomy.Details
}

// EndpointInfo describes a registered endpoint for listings.
type EndpointInfo struct {
	Key         taxonomy.EndpointKey
	Description string
	Statuses    []int
}

type operation struct {
	description string
	statuses    map[int]EndpointEntry
}

// Catalog holds the classification tables. It is read-only after New.
type Catalog struct {
	status     map[int]Rule
	vendor     map[string]Rule
	patterns   []PatternEntry
	namespaces map[string]string
	endpoints  map[taxonomy.EndpointKey]*operation
	details    map[taxonomy.Category]taxonomy.Details

	// operation name -> namespaces registering it, for flat ids
	byOperation map[string][]string
}

// New builds a catalog from the embedded endpoint table, then applies the
// given overlays in order.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		status:      make(map[int]Rule, len(defaultStatusRules)),
		vendor:      make(map[string]Rule),
		namespaces:  make(map[string]string),
		endpoints:   make(map[taxonomy.EndpointKey]*operation),
		byOperation: make(map[string][]string),
		details:     make(map[taxonomy.Category]taxonomy.Details, len(defaultDetails)),
	}
	for code, r := range defaultStatusRules {
		c.status[code] = r
	}
	for cat, d := range defaultDetails {
		c.details[cat] = d
	}
	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p.expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p.expr, err)
		}
		c.patterns = append(c.patterns, PatternEntry{Pattern: re, Category: p.category, Retryable: p.retryable})
	}

	base, err := decodeTable(embeddedTable, "embedded:endpoints.yaml")
	if err != nil {
		return nil, err
	}
	if err := c.apply(base, "embedded:endpoints.yaml"); err != nil {
		return nil, err
	}

	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}
	for _, ov := range cfg.overlays {
		data, source, err := ov.load()
		if err != nil {
			return nil, err
		}
		tf, err := decodeTable(data, source)
		if err != nil {
			return nil, err
		}
		if err := c.apply(tf, source); err != nil {
			return nil, err
		}
	}

	for op := range c.byOperation {
		sort.Strings(c.byOperation[op])
	}
	return c, nil
}

var defaultCatalog = func() *Catalog {
	c, err := New()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded table is invalid: %v", err))
	}
	return c
}()

// Default returns the catalog built from the embedded tables only.
func Default() *Catalog { return defaultCatalog }

// StatusRule looks up the base rule for an HTTP status code.
func (c *Catalog) StatusRule(status int) (Rule, bool) {
	r, ok := c.status[status]
	return r, ok
}

// VendorRule looks up a vendor-specific error code.
func (c *Catalog) VendorRule(code string) (Rule, bool) {
	if code == "" {
		return Rule{}, false
	}
	r, ok := c.vendor[code]
	return r, ok
}

// MatchPattern returns the first pattern matching an already case-folded message.
func (c *Catalog) MatchPattern(folded string) (PatternEntry, bool) {
	if folded == "" {
		return PatternEntry{}, false
	}
	for _, p := range c.patterns {
		if p.Pattern.MatchString(folded) {
			return p, true
		}
	}
	return PatternEntry{}, false
}

// Patterns returns the ordered pattern list.
func (c *Catalog) Patterns() []PatternEntry {
	return slices.Clone(c.patterns)
}

// ResolveEndpoint maps key onto a registered endpoint. Flat keys resolve
// only when exactly one namespace registers the operation.
func (c *Catalog) ResolveEndpoint(key taxonomy.EndpointKey) (taxonomy.EndpointKey, bool) {
	if key.IsZero() {
		return taxonomy.EndpointKey{}, false
	}
	if key.IsFlat() {
		ns := c.byOperation[key.Operation]
		if len(ns) != 1 {
			return taxonomy.EndpointKey{}, false
		}
		return taxonomy.EndpointKey{Namespace: ns[0], Operation: key.Operation}, true
	}
	if _, ok := c.endpoints[key]; !ok {
		return taxonomy.EndpointKey{}, false
	}
	return key, true
}

// EndpointEntry returns the exact (endpoint, status) mapping. key must
// already be resolved.
func (c *Catalog) EndpointEntry(key taxonomy.EndpointKey, status int) (EndpointEntry, bool) {
	op, ok := c.endpoints[key]
	if !ok {
		return EndpointEntry{}, false
	}
	e, ok := op.statuses[status]
	return e, ok
}

// Details returns the category-generic guidance, falling back to UNKNOWN.
func (c *Catalog) Details(cat taxonomy.Category) taxonomy.Details {
	if d, ok := c.details[cat]; ok {
		return d
	}
	return c.details[taxonomy.CategoryUnknown]
}

// Endpoints lists every registered endpoint sorted by key.
func (c *Catalog) Endpoints() []EndpointInfo {
	out := make([]EndpointInfo, 0, len(c.endpoints))
	for key, op := range c.endpoints {
		statuses := make([]int, 0, len(op.statuses))
		for s := range op.statuses {
			statuses = append(statuses, s)
		}
		sort.Ints(statuses)
		out = append(out, EndpointInfo{Key: key, Description: op.description, Statuses: statuses})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// NamespaceDescription returns the description of a namespace.
func (c *Catalog) NamespaceDescription(ns string) string {
	return c.namespaces[ns]
}
