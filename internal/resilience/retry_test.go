package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
		ShouldRetry:    func(error) bool { return true },
	}
}

func TestDoVal_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastConfig(3), "op", func(context.Context) (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 1, calls)
}

func TestDoVal_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastConfig(3), "op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", eris.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastConfig(3), "op", func(context.Context) (int, error) {
		calls++
		return 0, eris.New("still failing")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_SingleAttemptNoRetry(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastConfig(1), "op", func(context.Context) (int, error) {
		calls++
		return 0, eris.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_NonRetryableStopsImmediately(t *testing.T) {
	cfg := fastConfig(5)
	cfg.ShouldRetry = func(error) bool { return false }

	calls := 0
	_, err := DoVal(context.Background(), cfg, "op", func(context.Context) (int, error) {
		calls++
		return 0, eris.New("permanent")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := DoVal(ctx, fastConfig(5), "op", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, eris.New("transient")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff_CappedAtMax(t *testing.T) {
	cfg := Config{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     10.0,
		JitterFraction: 0,
	}

	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, time.Second, backoff(1, cfg))
	assert.Equal(t, time.Second, backoff(5, cfg))
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(Config{})
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 5*time.Second, cfg.MaxBackoff)
	assert.Equal(t, 2.0, cfg.Multiplier)
}
