package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quovi/discover/internal/metrics"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	b := New[int]("test-open", Settings{MinRequests: 4, FailureRatio: 0.5, Timeout: time.Hour}, nil)
	boom := errors.New("boom")

	v, err := b.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	for i := 0; i < 3; i++ {
		_, err = b.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")))

	called := false
	_, err = b.Execute(func() (int, error) { called = true; return 0, nil })
	assert.True(t, IsRejected(err))
	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-open", "rejected")))
}

func TestBreakerStaysClosedBelowMinRequests(t *testing.T) {
	b := New[string]("test-closed", Settings{MinRequests: 10}, nil)
	for i := 0; i < 9; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errors.New("fail") })
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.False(t, IsRejected(errors.New("fail")))
}
