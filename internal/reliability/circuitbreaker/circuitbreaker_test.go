package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("redis down")

func TestBreakerTripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Hour)
	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	fail := func() error { return errDown }
	require.ErrorIs(t, cb.Execute(fail, nil), errDown)
	require.ErrorIs(t, cb.Execute(fail, nil), errDown)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreakerIgnoredErrorsDoNotTrip(t *testing.T) {
	miss := errors.New("miss")
	cb := NewCircuitBreaker(1, 1, time.Hour)
	ignore := func(err error) bool { return errors.Is(err, miss) }

	for i := 0; i < 5; i++ {
		require.ErrorIs(t, cb.Execute(func() error { return miss }, ignore), miss)
	}
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, time.Millisecond)
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(5 * time.Millisecond)
	require.True(t, cb.AllowRequest())
	assert.Equal(t, StateHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.GetState())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Millisecond)
	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require.True(t, cb.AllowRequest())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())
}
