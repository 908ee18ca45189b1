// Package retry holds retry timing: the Retry-After advice attached to
// classification results and the backoff policy for outbound publishing.
package retry

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

const (
	// RateLimitDefault is the advised wait in seconds after RATE_LIMIT.
	RateLimitDefault = 60
	// ServerErrorDefault is the advised wait in seconds after SERVER_ERROR.
	ServerErrorDefault = 10
)

// After computes the advised wait in seconds. It is nil for non-retryable
// errors. An integer Retry-After header wins over the category defaults.
func After(cat taxonomy.Category, retryable bool, headers map[string]string) *int {
	if !retryable {
		return nil
	}
	if v, ok := HeaderSeconds(headers); ok {
		return &v
	}
	switch cat {
	case taxonomy.CategoryRateLimit:
		v := RateLimitDefault
		return &v
	case taxonomy.CategoryServerError:
		v := ServerErrorDefault
		return &v
	}
	return nil
}

// HeaderSeconds reads a Retry-After header (any case) in delta-seconds form.
// HTTP-date values are not interpreted.
func HeaderSeconds(headers map[string]string) (int, bool) {
	for k, v := range headers {
		if !strings.EqualFold(k, "Retry-After") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
