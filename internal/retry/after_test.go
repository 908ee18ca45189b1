package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/errdetective/internal/taxonomy"
)

func TestAfter(t *testing.T) {
	t.Run("not retryable", func(t *testing.T) {
		assert.Nil(t, After(taxonomy.CategoryRateLimit, false, map[string]string{"Retry-After": "5"}))
	})

	t.Run("rate limit default", func(t *testing.T) {
		got := After(taxonomy.CategoryRateLimit, true, nil)
		require.NotNil(t, got)
		assert.Equal(t, 60, *got)
	})

	t.Run("header overrides default", func(t *testing.T) {
		got := After(taxonomy.CategoryRateLimit, true, map[string]string{"retry-after": "5"})
		require.NotNil(t, got)
		assert.Equal(t, 5, *got)
	})

	t.Run("server error default", func(t *testing.T) {
		got := After(taxonomy.CategoryServerError, true, nil)
		require.NotNil(t, got)
		assert.Equal(t, 10, *got)
	})

	t.Run("non-integer header ignored", func(t *testing.T) {
		got := After(taxonomy.CategoryServerError, true, map[string]string{"Retry-After": "Wed, 21 Oct 2015 07:28:00 GMT"})
		require.NotNil(t, got)
		assert.Equal(t, 10, *got)
	})

	t.Run("other retryable categories have no default", func(t *testing.T) {
		assert.Nil(t, After(taxonomy.CategoryTimeoutError, true, nil))
		got := After(taxonomy.CategoryTimeoutError, true, map[string]string{"RETRY-AFTER": " 3 "})
		require.NotNil(t, got)
		assert.Equal(t, 3, *got)
	})
}
