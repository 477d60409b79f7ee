package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedFn func() (string, error)

func TestExecuteWithResultPrimarySucceeds(t *testing.T) {
	fg := NewFallbackGroup[namedFn]("online", func() (string, error) { return "primary", nil }, BreakerConfig{})
	fg.Add("offline", func() (string, error) { return "fallback", nil })

	got, err := ExecuteWithResult(context.Background(), fg, func(_ string, fn namedFn) (string, error) { return fn() })
	require.NoError(t, err)
	require.Equal(t, "primary", got)
	require.Equal(t, []string{"online", "offline"}, fg.Names())
}

func TestExecuteWithResultFallsBack(t *testing.T) {
	fg := NewFallbackGroup[namedFn]("online", func() (string, error) { return "", errTest }, BreakerConfig{})
	fg.Add("offline", func() (string, error) { return "fallback", nil })

	var tried []string
	got, err := ExecuteWithResult(context.Background(), fg, func(name string, fn namedFn) (string, error) {
		tried = append(tried, name)
		return fn()
	})
	require.NoError(t, err)
	require.Equal(t, "fallback", got)
	require.Equal(t, []string{"online", "offline"}, tried)
}

func TestExecuteWithResultAllFail(t *testing.T) {
	fg := NewFallbackGroup[namedFn]("a", func() (string, error) { return "", errors.New("a down") }, BreakerConfig{})
	fg.Add("b", func() (string, error) { return "", errors.New("b down") })

	_, err := ExecuteWithResult(context.Background(), fg, func(_ string, fn namedFn) (string, error) { return fn() })
	require.ErrorIs(t, err, ErrAllFailed)
	require.Contains(t, err.Error(), "b down")
}

func TestExecuteSkipsOpenBreaker(t *testing.T) {
	calls := 0
	fg := NewFallbackGroup[namedFn]("a", func() (string, error) { calls++; return "", errTest }, BreakerConfig{MaxFailures: 1})
	fg.Add("b", func() (string, error) { return "ok", nil })

	for range 3 {
		err := fg.Execute(context.Background(), func(_ string, fn namedFn) error {
			_, err := fn()
			return err
		})
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
	require.Equal(t, StateOpen, fg.Breaker("a").State())
	require.Nil(t, fg.Breaker("missing"))
}

func TestExecuteWithResultStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fg := NewFallbackGroup[namedFn]("a", func() (string, error) { return "x", nil }, BreakerConfig{})
	_, err := ExecuteWithResult(ctx, fg, func(_ string, fn namedFn) (string, error) { return fn() })
	require.ErrorIs(t, err, context.Canceled)
}
