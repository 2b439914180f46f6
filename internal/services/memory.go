package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

// MemoryHouseholds is an in-process HouseholdRepository for STORAGE_BACKEND=memory and tests.
type MemoryHouseholds struct {
	mu     sync.Mutex
	byID   map[string]*models.Household
	byCode map[string]string
}

func NewMemoryHouseholds() *MemoryHouseholds {
	return &MemoryHouseholds{
		byID:   make(map[string]*models.Household),
		byCode: make(map[string]string),
	}
}

func (r *MemoryHouseholds) Create(ctx context.Context, name, inviteCode string) (*models.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	h := &models.Household{
		ID:         uuid.New().String(),
		Name:       name,
		InviteCode: inviteCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.byID[h.ID] = h
	r.byCode[inviteCode] = h.ID
	cp := *h
	return &cp, nil
}

func (r *MemoryHouseholds) Get(ctx context.Context, id string) (*models.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return nil, ErrHouseholdNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *MemoryHouseholds) FindByCode(ctx context.Context, code string) (*models.Household, error) {
	r.mu.Lock()
	id, ok := r.byCode[code]
	r.mu.Unlock()
	if !ok {
		return nil, ErrHouseholdNotFound
	}
	return r.Get(ctx, id)
}

func (r *MemoryHouseholds) Rename(ctx context.Context, id, name string) (*models.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return nil, ErrHouseholdNotFound
	}
	h.Name = name
	h.Revision++
	h.UpdatedAt = time.Now().UTC()
	cp := *h
	return &cp, nil
}

func (r *MemoryHouseholds) BumpRevision(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return 0, ErrHouseholdNotFound
	}
	h.Revision++
	h.UpdatedAt = time.Now().UTC()
	return h.Revision, nil
}

func (r *MemoryHouseholds) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byCode[code]
	return ok, nil
}

// MemoryBucketStore is an in-process BucketStore with the same replace and
// merge semantics as MongoBucketStore.
type MemoryBucketStore struct {
	mu      sync.RWMutex
	buckets map[string][]bucketEntity
}

func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{buckets: make(map[string][]bucketEntity)}
}

func memoryKey(householdID string, bucket models.Bucket) string {
	return householdID + "/" + string(bucket)
}

func (s *MemoryBucketStore) Load(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, error) {
	s.mu.RLock()
	entities := s.buckets[memoryKey(householdID, bucket)]
	s.mu.RUnlock()
	return joinBucket(bucket, entities)
}

func (s *MemoryBucketStore) Replace(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error {
	entities, err := splitBucket(bucket, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.buckets[memoryKey(householdID, bucket)] = entities
	s.mu.Unlock()
	return nil
}

func (s *MemoryBucketStore) Merge(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error {
	entities, err := splitBucket(bucket, data)
	if err != nil {
		return err
	}
	key := memoryKey(householdID, bucket)
	s.mu.Lock()
	s.buckets[key] = mergeEntities(s.buckets[key], entities)
	s.mu.Unlock()
	return nil
}
