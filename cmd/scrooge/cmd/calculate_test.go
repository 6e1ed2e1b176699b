package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRangeDefaultsToFallback(t *testing.T) {
	fallback := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	from, to, err := resolveRange("", "", "", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, from)
	assert.Equal(t, fallback, to)
}

func TestResolveRangeSingleDate(t *testing.T) {
	from, to, err := resolveRange("2026-08-15", "", "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, from, to)
}

func TestResolveRangeExplicitRange(t *testing.T) {
	from, to, err := resolveRange("", "2026-08-01", "2026-08-31", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), to)
}

func TestResolveRangeRejectsBadCombinations(t *testing.T) {
	_, _, err := resolveRange("2026-08-15", "2026-08-01", "2026-08-31", time.Time{})
	assert.Error(t, err)

	_, _, err = resolveRange("", "2026-08-01", "", time.Time{})
	assert.Error(t, err)

	_, _, err = resolveRange("", "2026-08-31", "2026-08-01", time.Time{})
	assert.Error(t, err)
}
