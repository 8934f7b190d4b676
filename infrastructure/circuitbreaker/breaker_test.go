package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func fail(context.Context) error    { return errUpstream }
func succeed(context.Context) error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 2, Timeout: time.Minute})

	require.ErrorIs(t, b.Execute(context.Background(), fail), errUpstream)
	assert.Equal(t, StateClosed, b.State())
	require.ErrorIs(t, b.Execute(context.Background(), fail), errUpstream)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	now := time.Now()
	var transitions []string
	b := New(Config{
		FailureThreshold: 1,
		Timeout:          10 * time.Second,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(11 * time.Second)
	require.NoError(t, b.Execute(context.Background(), succeed))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := New(Config{FailureThreshold: 3, Timeout: time.Second})
	b.now = func() time.Time { return now }

	for range 3 {
		_ = b.Execute(context.Background(), fail)
	}
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	_ = b.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_IgnoresNonFailures(t *testing.T) {
	t.Parallel()

	errClient := errors.New("bad request")
	b := New(Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, errClient) },
	})

	_ = b.Execute(context.Background(), func(context.Context) error { return errClient })
	assert.Equal(t, StateClosed, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}
