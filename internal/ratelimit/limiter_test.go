package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/bidcrawl/internal/ratelimit"
)

func TestHostLimiter_SpacesRequestsToOneHost(t *testing.T) {
	const delay = 30 * time.Millisecond
	l := ratelimit.NewHostLimiter(delay)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "a.example.com"))
	require.NoError(t, l.Wait(ctx, "a.example.com"))
	require.NoError(t, l.Wait(ctx, "a.example.com"))

	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestHostLimiter_HostsAreIndependent(t *testing.T) {
	l := ratelimit.NewHostLimiter(time.Second)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "a.example.com"))
	require.NoError(t, l.Wait(ctx, "b.example.com"))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestHostLimiter_ZeroDelayNeverBlocks(t *testing.T) {
	l := ratelimit.NewHostLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background(), "a.example.com"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestHostLimiter_CancelledContext(t *testing.T) {
	l := ratelimit.NewHostLimiter(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Wait(ctx, "a.example.com"))
	cancel()

	err := l.Wait(ctx, "a.example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
