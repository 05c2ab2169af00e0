package ttlcache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCompute_CachesWithinTTL(t *testing.T) {
	cache := New[string, int](time.Minute)

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := cache.GetOrCompute("key", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = cache.GetOrCompute("key", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	assert.Equal(t, 1, calls, "second call within TTL must be served from cache")
}

func TestGetOrCompute_RecomputesAfterExpiry(t *testing.T) {
	cache := New[string, int](time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	calls := 0
	compute := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := cache.GetOrCompute("key", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Advance past the TTL; exactly one recomputation must happen.
	now = now.Add(time.Minute + time.Second)

	v, err = cache.GetOrCompute("key", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = cache.GetOrCompute("key", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.Equal(t, 2, calls)
}

func TestGetOrCompute_DistinctKeys(t *testing.T) {
	cache := New[string, string](time.Minute)

	v, err := cache.GetOrCompute("a", func() (string, error) { return "va", nil })
	require.NoError(t, err)
	assert.Equal(t, "va", v)

	v, err = cache.GetOrCompute("b", func() (string, error) { return "vb", nil })
	require.NoError(t, err)
	assert.Equal(t, "vb", v)
}

func TestGetOrCompute_ErrorsNotCached(t *testing.T) {
	cache := New[string, int](time.Minute)

	calls := 0
	boom := errors.New("scan failed")

	_, err := cache.GetOrCompute("key", func() (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := cache.GetOrCompute("key", func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls, "a failed computation must not populate the cache")
}

func TestGetOrCompute_ConcurrentSameKey(t *testing.T) {
	cache := New[string, int](time.Minute)

	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.GetOrCompute("key", func() (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return 99, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 99, v)
		}()
	}
	wg.Wait()

	// Duplicate computation on a cold key is allowed, but once warm the
	// cache must serve hits without recomputing.
	mu.Lock()
	coldCalls := calls
	mu.Unlock()
	require.GreaterOrEqual(t, coldCalls, 1)

	_, err := cache.GetOrCompute("key", func() (int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, coldCalls, calls)
}
