package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func TestSplitJoinBucket_RoundTrip(t *testing.T) {
	in := json.RawMessage(`[{"id":"b","title":"乙"},{"id":"a","title":"甲"}]`)
	entities, err := splitBucket(models.BucketRecipes, in)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "b", entities[0].ID)

	out, err := joinBucket(models.BucketRecipes, entities)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
}

func TestSplitBucket_Rejects(t *testing.T) {
	_, err := splitBucket(models.BucketPlan, json.RawMessage(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidBucket)

	_, err = splitBucket(models.BucketPlan, json.RawMessage(`[{"date":"2024-05-01"}]`))
	assert.ErrorIs(t, err, ErrInvalidBucket)

	_, err = splitBucket(models.BucketProfile, json.RawMessage(`[]`))
	assert.ErrorIs(t, err, ErrInvalidBucket)
}

func TestSplitBucket_DuplicateIDs(t *testing.T) {
	entities, err := splitBucket(models.BucketPlan, json.RawMessage(`[{"id":"1","v":1},{"id":"2"},{"id":"1","v":2}]`))
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.JSONEq(t, `{"id":"1","v":2}`, string(entities[0].Data))
}

func TestJoinBucket_Empty(t *testing.T) {
	out, err := joinBucket(models.BucketRecipes, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))

	out, err = joinBucket(models.BucketProfile, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestMergeEntities(t *testing.T) {
	existing := []bucketEntity{
		{ID: "a", Position: 0, Data: json.RawMessage(`{"id":"a","v":1}`)},
		{ID: "b", Position: 1, Data: json.RawMessage(`{"id":"b"}`)},
	}
	incoming := []bucketEntity{
		{ID: "c", Data: json.RawMessage(`{"id":"c"}`)},
		{ID: "a", Data: json.RawMessage(`{"id":"a","v":2}`)},
	}
	out, err := joinBucket(models.BucketRecipes, mergeEntities(existing, incoming))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","v":2},{"id":"b"},{"id":"c"}]`, string(out))
}

func TestMemoryBucketStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBucketStore()

	data, err := s.Load(ctx, "h", models.BucketPlan)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	require.NoError(t, s.Replace(ctx, "h", models.BucketPlan, json.RawMessage(`[{"id":"1"},{"id":"2"}]`)))
	require.NoError(t, s.Merge(ctx, "h", models.BucketPlan, json.RawMessage(`[{"id":"3"},{"id":"1","x":true}]`)))
	data, err = s.Load(ctx, "h", models.BucketPlan)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","x":true},{"id":"2"},{"id":"3"}]`, string(data))

	require.NoError(t, s.Replace(ctx, "h", models.BucketPlan, json.RawMessage(`[{"id":"2"}]`)))
	data, err = s.Load(ctx, "h", models.BucketPlan)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(data))

	require.NoError(t, s.Replace(ctx, "h", models.BucketProfile, json.RawMessage(`{"name":"家"}`)))
	data, err = s.Load(ctx, "h", models.BucketProfile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"家"}`, string(data))

	data, err = s.Load(ctx, "other", models.BucketProfile)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
