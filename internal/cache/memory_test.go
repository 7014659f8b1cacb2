package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), 0))

	value, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'x'

	again, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 20*time.Millisecond))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be readable")
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestMemory_Increment(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Increment(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemory_IncrementWindowReset(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	got, err := c.Increment(ctx, "counter", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = c.Increment(ctx, "counter", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	time.Sleep(30 * time.Millisecond)

	// New window starts at 1 after the old one lapses.
	got, err = c.Increment(ctx, "counter", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemory_IncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	defer c.Close()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, err := c.Increment(ctx, "counter", time.Minute)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := c.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine+1), got,
		"concurrent increments must never be lost")
}

func TestMemory_ContextCancellation(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)

	err = c.Set(ctx, "k", []byte("v"), 0)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Increment(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_CloseIsIdempotent(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestKeyScheme(t *testing.T) {
	assert.Equal(t, "blacklist:abc", BlacklistKey("abc"))
	assert.Equal(t, "refresh:u1:d1", RefreshSessionKey("u1", "d1"))
	assert.Equal(t, "behavior:u1", BehaviorKey("u1"))
	assert.Equal(t, "ratelimit:u1:login", RateLimitKey("u1", "login"))
	assert.Equal(t, "mfa:u1", MFAKey("u1"))
	assert.Equal(t, "stepup:u1", StepUpKey("u1"))
}
