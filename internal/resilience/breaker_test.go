package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  20 * time.Millisecond,
		SuccessThreshold: 2,
	})
}

func TestBreakerStartsClosed(t *testing.T) {
	cb := testBreaker()
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := testBreaker()
	failure := errors.New("provider down")

	for i := 0; i < 3; i++ {
		err := cb.Call(func() error { return failure })
		assert.ErrorIs(t, err, failure)
	}

	assert.Equal(t, StateOpen, cb.State())

	// Open breaker rejects without invoking the function.
	err := cb.Call(func() error {
		t.Fatal("function must not run while the breaker is open")
		return nil
	})

	var cbErr *CircuitBreakerError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StateOpen, cbErr.State)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := testBreaker()

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("down") })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// Two successes in half-open close the breaker.
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := testBreaker()

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("down") })
	}
	time.Sleep(30 * time.Millisecond)

	_ = cb.Call(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := testBreaker()

	_ = cb.Call(func() error { return errors.New("down") })
	_ = cb.Call(func() error { return errors.New("down") })
	require.NoError(t, cb.Call(func() error { return nil }))

	// Two more failures are below the threshold again.
	_ = cb.Call(func() error { return errors.New("down") })
	_ = cb.Call(func() error { return errors.New("down") })
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReset(t *testing.T) {
	cb := testBreaker()

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("down") })
	}
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Call(func() error { return nil }))
}
