package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/storage"
)

// Store is the device-local durable store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Remote is the shared household store.
type Remote interface {
	GetBucket(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, int64, error)
	PutBucket(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) (int64, error)
	MergeBucket(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) (int64, error)
}

// HouseholdSource knows the active household, if any.
type HouseholdSource interface {
	Current() *models.Household
}

// Snapshot is the full application data as loaded from one source.
type Snapshot struct {
	Entries  []models.Entry
	Plan     []models.MealPlanItem
	Profile  models.UserProfile
	Revision int64
	// Remote is true when the data came from the household store.
	Remote bool
}

// EmptySnapshot is what a failed load degrades to.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Entries: []models.Entry{},
		Plan:    []models.MealPlanItem{},
		Profile: models.DefaultProfile(),
	}
}

// SaveResult reports the outcome of one bucket write.
type SaveResult struct {
	Bucket    models.Bucket
	LocalErr  error
	RemoteErr error
	// Remote is true when a household was active and a remote write was attempted.
	Remote   bool
	Revision int64
}

func (r SaveResult) Err() error {
	return errors.Join(r.LocalErr, r.RemoteErr)
}

// Adapter reads and writes the three buckets: always to the local store, and to
// the household store while a household is active.
type Adapter struct {
	store      Store
	remote     Remote
	households HouseholdSource
	retry      RetryPolicy
	logger     *zap.Logger

	// One lock per bucket keeps writes to the same bucket in order.
	locks map[models.Bucket]*sync.Mutex
}

func NewAdapter(store Store, remote Remote, households HouseholdSource, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := make(map[models.Bucket]*sync.Mutex, len(models.Buckets))
	for _, b := range models.Buckets {
		locks[b] = &sync.Mutex{}
	}
	return &Adapter{
		store:      store,
		remote:     remote,
		households: households,
		retry:      DefaultRetryPolicy(),
		logger:     logger,
		locks:      locks,
	}
}

// WithRetryPolicy replaces the remote write retry policy.
func (a *Adapter) WithRetryPolicy(p RetryPolicy) *Adapter {
	a.retry = p
	return a
}

// GetHousehold returns the cached membership, or nil in solo mode.
func (a *Adapter) GetHousehold() *models.Household {
	if a.households == nil {
		return nil
	}
	return a.households.Current()
}

// LoadData returns the local buckets in solo mode and the household buckets
// otherwise. It always returns a usable snapshot: failures degrade to empty
// collections and the default profile, or to the local copy when the household
// store cannot be read, and are reported alongside.
func (a *Adapter) LoadData(ctx context.Context) (Snapshot, error) {
	h := a.GetHousehold()
	if h == nil || a.remote == nil {
		return a.loadLocal(ctx, true)
	}

	snap, err := a.loadRemote(ctx, h.ID)
	if err == nil {
		a.mirrorLocal(ctx, snap)
		return snap, nil
	}

	a.logger.Warn("household load failed, using local copy",
		zap.String("household_id", h.ID),
		zap.Error(err))
	local, localErr := a.loadLocal(ctx, false)
	return local, errors.Join(fmt.Errorf("load household %s: %w", h.ID, err), localErr)
}

func (a *Adapter) loadLocal(ctx context.Context, withStarter bool) (Snapshot, error) {
	snap := EmptySnapshot()
	var errs []error

	if data, err := a.readLocal(ctx, models.BucketRecipes); err != nil {
		errs = append(errs, err)
	} else if entries, err := models.UnmarshalEntries(data); err != nil {
		errs = append(errs, err)
	} else {
		snap.Entries = entries
	}
	// A fresh device starts with the sample dishes rather than an empty book.
	if withStarter && len(snap.Entries) == 0 {
		snap.Entries = models.StarterDishes()
	}

	if data, err := a.readLocal(ctx, models.BucketPlan); err != nil {
		errs = append(errs, err)
	} else if plan, err := models.UnmarshalPlan(data); err != nil {
		errs = append(errs, err)
	} else {
		snap.Plan = plan
	}

	if data, err := a.readLocal(ctx, models.BucketProfile); err != nil {
		errs = append(errs, err)
	} else {
		profile, err := models.UnmarshalProfile(data)
		if err != nil {
			errs = append(errs, err)
		}
		snap.Profile = profile
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Warn("local load degraded", zap.Error(err))
	}
	return snap, err
}

// readLocal returns nil for a bucket that was never written.
func (a *Adapter) readLocal(ctx context.Context, bucket models.Bucket) ([]byte, error) {
	data, err := a.store.Get(ctx, string(bucket))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local %s: %w", bucket, err)
	}
	return data, nil
}

func (a *Adapter) loadRemote(ctx context.Context, householdID string) (Snapshot, error) {
	var (
		recipes, plan, profile json.RawMessage
		revs                   [3]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recipes, revs[0], err = a.remote.GetBucket(gctx, householdID, models.BucketRecipes)
		return err
	})
	g.Go(func() (err error) {
		plan, revs[1], err = a.remote.GetBucket(gctx, householdID, models.BucketPlan)
		return err
	})
	g.Go(func() (err error) {
		profile, revs[2], err = a.remote.GetBucket(gctx, householdID, models.BucketProfile)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Remote: true}
	var err error
	if snap.Entries, err = models.UnmarshalEntries(recipes); err != nil {
		return Snapshot{}, err
	}
	if snap.Plan, err = models.UnmarshalPlan(plan); err != nil {
		return Snapshot{}, err
	}
	if snap.Profile, err = models.UnmarshalProfile(profile); err != nil {
		return Snapshot{}, err
	}
	for _, rev := range revs {
		snap.Revision = max(snap.Revision, rev)
	}
	return snap, nil
}

// mirrorLocal keeps the last good household data on the device so a later
// offline load has something to fall back to.
func (a *Adapter) mirrorLocal(ctx context.Context, snap Snapshot) {
	for _, b := range models.Buckets {
		data, err := encodeSnapshotBucket(snap, b)
		if err == nil {
			err = a.store.Put(ctx, string(b), data)
		}
		if err != nil {
			a.logger.Warn("failed to mirror household bucket", zap.String("bucket", string(b)), zap.Error(err))
		}
	}
}

func encodeSnapshotBucket(snap Snapshot, bucket models.Bucket) (json.RawMessage, error) {
	switch bucket {
	case models.BucketRecipes:
		return models.MarshalEntries(snap.Entries)
	case models.BucketPlan:
		return models.MarshalPlan(snap.Plan)
	default:
		return models.MarshalProfile(snap.Profile)
	}
}

// EncodeBucket serializes a bucket value in the stored format.
func EncodeBucket(bucket models.Bucket, value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case json.RawMessage:
		return v, nil
	case []models.Entry:
		if bucket == models.BucketRecipes {
			return models.MarshalEntries(v)
		}
	case []models.MealPlanItem:
		if bucket == models.BucketPlan {
			return models.MarshalPlan(v)
		}
	case models.UserProfile:
		if bucket == models.BucketProfile {
			return models.MarshalProfile(v)
		}
	}
	return nil, fmt.Errorf("cannot store %T in bucket %s", value, bucket)
}

// SaveData writes one bucket locally and, with an active household, remotely.
// Remote writes are retried per the retry policy; the result carries both errors.
func (a *Adapter) SaveData(ctx context.Context, bucket models.Bucket, value any) SaveResult {
	result := SaveResult{Bucket: bucket}
	lock, ok := a.locks[bucket]
	if !ok {
		result.LocalErr = fmt.Errorf("unknown bucket %q", bucket)
		return result
	}

	data, err := EncodeBucket(bucket, value)
	if err != nil {
		result.LocalErr = err
		return result
	}

	lock.Lock()
	defer lock.Unlock()

	if err := a.store.Put(ctx, string(bucket), data); err != nil {
		result.LocalErr = fmt.Errorf("write local %s: %w", bucket, err)
		a.logger.Error("local save failed", zap.String("bucket", string(bucket)), zap.Error(err))
	}

	h := a.GetHousehold()
	if h == nil || a.remote == nil {
		return result
	}
	result.Remote = true
	err = a.retry.Do(ctx, func(ctx context.Context) error {
		rev, err := a.remote.PutBucket(ctx, h.ID, bucket, data)
		result.Revision = rev
		return err
	})
	if err != nil {
		result.RemoteErr = err
		a.logger.Error("household save failed",
			zap.String("household_id", h.ID),
			zap.String("bucket", string(bucket)),
			zap.Error(err))
	}
	return result
}

// SyncLocalToCloud copies entries and plan into the household by id upsert.
// Entities already there with the same id are overwritten; nothing is deleted.
// It returns the household revision after the last write.
func (a *Adapter) SyncLocalToCloud(ctx context.Context, householdID string, entries []models.Entry, plan []models.MealPlanItem) (int64, error) {
	if a.remote == nil {
		return 0, errors.New("no household store configured")
	}
	recipes, err := models.MarshalEntries(entries)
	if err != nil {
		return 0, err
	}
	planData, err := models.MarshalPlan(plan)
	if err != nil {
		return 0, err
	}

	var rev int64
	for _, w := range []struct {
		bucket models.Bucket
		data   json.RawMessage
	}{
		{models.BucketRecipes, recipes},
		{models.BucketPlan, planData},
	} {
		err := a.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			rev, err = a.remote.MergeBucket(ctx, householdID, w.bucket, w.data)
			return err
		})
		if err != nil {
			return rev, fmt.Errorf("merge %s into household %s: %w", w.bucket, householdID, err)
		}
	}
	a.logger.Info("local data merged into household",
		zap.String("household_id", householdID),
		zap.Int("recipes", len(entries)),
		zap.Int("plan_items", len(plan)))
	return rev, nil
}

// ClearLocal deletes the three local buckets.
func (a *Adapter) ClearLocal(ctx context.Context) error {
	var errs []error
	for _, b := range models.Buckets {
		if err := a.store.Delete(ctx, string(b)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("clear local %s: %w", b, err))
		}
	}
	return errors.Join(errs...)
}
