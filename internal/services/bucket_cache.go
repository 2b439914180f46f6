package services

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

// CachedBucketStore serves bucket reads from Redis. Cached values are keyed by
// a per-bucket generation that every write bumps, so a read that raced a write
// can only populate a key no later reader will look up.
// Cache failures are logged and fall through to the underlying store.
type CachedBucketStore struct {
	next   BucketStore
	cache  *CacheService
	logger *zap.Logger
}

func NewCachedBucketStore(next BucketStore, cache *CacheService, logger *zap.Logger) *CachedBucketStore {
	return &CachedBucketStore{next: next, cache: cache, logger: logger}
}

func bucketGenerationKey(householdID string, bucket models.Bucket) string {
	return CacheKey("bucket_gen", householdID+":"+string(bucket))
}

func bucketCacheKey(householdID string, bucket models.Bucket, gen int64) string {
	return CacheKey("bucket", householdID+":"+string(bucket)+":"+strconv.FormatInt(gen, 10))
}

func (s *CachedBucketStore) Load(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, error) {
	// The generation is read before the data: a write that lands in between
	// bumps it, and the value cached below is then never served.
	gen, err := s.cache.Generation(ctx, bucketGenerationKey(householdID, bucket))
	if err != nil {
		s.logger.Warn("bucket cache generation read failed", zap.String("household_id", householdID), zap.Error(err))
		return s.next.Load(ctx, householdID, bucket)
	}
	key := bucketCacheKey(householdID, bucket, gen)

	var cached json.RawMessage
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("bucket cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	data, err := s.next.Load(ctx, householdID, bucket)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn("bucket cache write failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

func (s *CachedBucketStore) Replace(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error {
	defer s.invalidate(ctx, householdID, bucket)
	return s.next.Replace(ctx, householdID, bucket, data)
}

func (s *CachedBucketStore) Merge(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error {
	defer s.invalidate(ctx, householdID, bucket)
	return s.next.Merge(ctx, householdID, bucket, data)
}

// invalidate moves the bucket to a new generation and drops the old value.
func (s *CachedBucketStore) invalidate(ctx context.Context, householdID string, bucket models.Bucket) {
	gen, err := s.cache.BumpGeneration(ctx, bucketGenerationKey(householdID, bucket))
	if err != nil {
		s.logger.Warn("bucket cache invalidation failed", zap.String("household_id", householdID), zap.Error(err))
		return
	}
	old := bucketCacheKey(householdID, bucket, gen-1)
	if err := s.cache.Delete(ctx, old); err != nil {
		s.logger.Warn("bucket cache delete failed", zap.String("key", old), zap.Error(err))
	}
}
