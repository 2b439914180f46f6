package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestCacheService(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewCacheService(rdb)

	var got map[string]int
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetWithTTL(ctx, "k", map[string]int{"a": 1}, time.Second))
	assert.Equal(t, MinCacheTTL, mr.TTL(CacheKeyPrefix+"k"))

	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, map[string]int{"a": 1}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists(CacheKeyPrefix+"k"))
}

// countingStore counts loads that reach the backing store.
type countingStore struct {
	BucketStore
	loads int
}

func (s *countingStore) Load(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, error) {
	s.loads++
	return s.BucketStore.Load(ctx, householdID, bucket)
}

func TestCachedBucketStore(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	backing := &countingStore{BucketStore: NewMemoryBucketStore()}
	s := NewCachedBucketStore(backing, NewCacheService(rdb), zap.NewNop())

	require.NoError(t, s.Replace(ctx, "h", models.BucketRecipes, json.RawMessage(`[{"id":"1"}]`)))

	for i := 0; i < 3; i++ {
		data, err := s.Load(ctx, "h", models.BucketRecipes)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"1"}]`, string(data))
	}
	assert.Equal(t, 1, backing.loads)

	require.NoError(t, s.Merge(ctx, "h", models.BucketRecipes, json.RawMessage(`[{"id":"2"}]`)))
	data, err := s.Load(ctx, "h", models.BucketRecipes)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"},{"id":"2"}]`, string(data))
	assert.Equal(t, 2, backing.loads)

	// A Redis outage degrades to uncached reads.
	mr.Close()
	data, err = s.Load(ctx, "h", models.BucketRecipes)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"},{"id":"2"}]`, string(data))
}

// stallingStore reads from the backing store, then holds the result until
// released.
type stallingStore struct {
	BucketStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (s *stallingStore) Load(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, error) {
	data, err := s.BucketStore.Load(ctx, householdID, bucket)
	stall := false
	s.once.Do(func() { stall = true })
	if stall {
		close(s.read)
		<-s.release
	}
	return data, err
}

func TestCachedBucketStoreReadRacingWrite(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	backing := &stallingStore{
		BucketStore: NewMemoryBucketStore(),
		read:        make(chan struct{}),
		release:     make(chan struct{}),
	}
	require.NoError(t, backing.BucketStore.Replace(ctx, "h", models.BucketPlan, json.RawMessage(`[{"id":"old"}]`)))
	s := NewCachedBucketStore(backing, NewCacheService(rdb), zap.NewNop())

	done := make(chan json.RawMessage)
	go func() {
		data, err := s.Load(ctx, "h", models.BucketPlan)
		assert.NoError(t, err)
		done <- data
	}()

	<-backing.read
	require.NoError(t, s.Replace(ctx, "h", models.BucketPlan, json.RawMessage(`[{"id":"new"}]`)))
	close(backing.release)
	assert.JSONEq(t, `[{"id":"old"}]`, string(<-done))

	// The stale read must not have been cached for later readers.
	for i := 0; i < 2; i++ {
		data, err := s.Load(ctx, "h", models.BucketPlan)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"new"}]`, string(data))
	}
}
