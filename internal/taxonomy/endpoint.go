package taxonomy

import (
	"fmt"
	"strings"
)

// EndpointKey names a remote API operation as a structured
// (namespace, operation) pair, e.g. {"message", "message_push"}.
// A key with an empty Namespace is a flat operation reference that the
// catalog resolves when the operation name is unambiguous.
type EndpointKey struct {
	Namespace string
	Operation string
}

// ParseEndpoint splits a dotted "namespace.operation" identifier. A value
// without a dot yields a flat key. Empty segments are rejected.
func ParseEndpoint(id string) (EndpointKey, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return EndpointKey{}, fmt.Errorf("empty endpoint id")
	}
	ns, op, dotted := strings.Cut(id, ".")
	if !dotted {
		return EndpointKey{Operation: id}, nil
	}
	if ns == "" || op == "" {
		return EndpointKey{}, fmt.Errorf("malformed endpoint id %q", id)
	}
	return EndpointKey{Namespace: ns, Operation: op}, nil
}

// IsFlat reports whether the key lacks a namespace.
func (k EndpointKey) IsFlat() bool { return k.Namespace == "" }

// IsZero reports whether no endpoint was given.
func (k EndpointKey) IsZero() bool { return k.Namespace == "" && k.Operation == "" }

func (k EndpointKey) String() string {
	if k.Namespace == "" {
		return k.Operation
	}
	return k.Namespace + "." + k.Operation
}

// Details is the human-facing guidance attached to a classification.
type Details struct {
	Description string
	Action      string
	DocURL      string
	Solutions   []string

	// Code is the endpoint-level error code, empty for category-generic details.
	Code string
}

// Merge returns d with every empty field filled from fallback.
func (d Details) Merge(fallback Details) Details {
	out := d
	if out.Description == "" {
		out.Description = fallback.Description
	}
	if out.Action == "" {
		out.Action = fallback.Action
	}
	if out.DocURL == "" {
		out.DocURL = fallback.DocURL
	}
	if len(out.Solutions) == 0 && len(fallback.Solutions) > 0 {
		out.Solutions = fallback.Solutions
	}
	if len(out.Solutions) > 0 {
		out.Solutions = append([]string(nil), out.Solutions...)
	}
	return out
}
