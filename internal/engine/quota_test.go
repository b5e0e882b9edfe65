package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQuotaEnforcer_WithinLimit tests normal operation within quota.
func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		err := q.Check()
		assert.NoError(t, err, "step %d should be allowed", i+1)
	}

	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxSteps())
}

// TestQuotaEnforcer_ExceedsLimit tests quota exceeded error.
func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check())
	}

	err := q.Check()
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var re *RuleError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "6", re.Details["steps"])
	assert.Equal(t, "5", re.Details["max_steps"])
	assert.Contains(t, re.Error(), "6 > 5")
}

// TestQuotaEnforcer_Unlimited tests that a non-positive limit never fails.
func TestQuotaEnforcer_Unlimited(t *testing.T) {
	for _, limit := range []int{0, -1} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			q := NewQuotaEnforcer(limit)
			for i := 0; i < 10000; i++ {
				require.NoError(t, q.Check())
			}
			assert.Equal(t, 10000, q.Current())
		})
	}
}

// TestRuleError_Is tests that sentinels match by code only.
func TestRuleError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newPatternError("!foo:bar", "unknown pattern operator %q", "foo"))

	assert.ErrorIs(t, err, ErrUnsupportedPattern)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.True(t, IsUnsupportedPattern(err))
	assert.False(t, IsQuotaError(err))
	assert.False(t, IsUnsupportedPattern(errors.New("plain")))
	assert.Contains(t, err.Error(), `pattern="!foo:bar"`)
}
