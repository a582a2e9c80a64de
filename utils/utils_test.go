package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode(t *testing.T) {
	code, err := GenerateTicketCode(6)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "TKT-"))
	// 6 bytes hex-encode to 12 characters.
	assert.Len(t, code, len("TKT-")+12)
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestGenerateTicketCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateTicketCode(6)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestGenerateReference(t *testing.T) {
	ref, err := GenerateReference(8)

	require.NoError(t, err)
	assert.Len(t, ref, 16)
	assert.Equal(t, strings.ToUpper(ref), ref)
}

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("notifier")

	assert.Equal(t, "notifier", cb.name)
	assert.Equal(t, uint32(100), cb.maxRequests)
	assert.Equal(t, 60*time.Second, cb.interval)
	assert.Equal(t, 60*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.state)
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("notifier")

	result, err := cb.Execute(context.Background(), func() (any, error) {
		return "published", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "published", result)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("notifier")

	downstream := errors.New("publish timeout")
	result, err := cb.Execute(context.Background(), func() (any, error) {
		return nil, downstream
	})

	assert.Equal(t, downstream, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_OpensAfterFailureRatio(t *testing.T) {
	cb := NewCircuitBreaker("notifier")
	cb.maxRequests = 5

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("down")
		})
	}

	assert.Equal(t, StateOpen, cb.state)

	_, err := cb.Execute(ctx, func() (any, error) {
		return "should not run", nil
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
