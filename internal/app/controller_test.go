package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/persistence"
	"github.com/AnshRaj112/canteen-backend/internal/remote"
	"github.com/AnshRaj112/canteen-backend/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type syncCall struct {
	householdID string
	entries     []models.Entry
	plan        []models.MealPlanItem
}

type fakeAdapter struct {
	mu          sync.Mutex
	snap        persistence.Snapshot
	loads       int
	inflight    int
	maxInflight int
	gate        chan struct{}
	entered     chan struct{}
	saved       map[models.Bucket]int
	synced      []syncCall
	syncRev     int64
	syncErr     error
	cleared     bool
}

func newFakeAdapter(snap persistence.Snapshot) *fakeAdapter {
	return &fakeAdapter{snap: snap, saved: make(map[models.Bucket]int), entered: make(chan struct{}, 16)}
}

func (a *fakeAdapter) LoadData(ctx context.Context) (persistence.Snapshot, error) {
	a.mu.Lock()
	a.loads++
	a.inflight++
	a.maxInflight = max(a.maxInflight, a.inflight)
	gate := a.gate
	a.mu.Unlock()

	a.entered <- struct{}{}
	var err error
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inflight--
	return a.snap, err
}

func (a *fakeAdapter) SaveData(ctx context.Context, bucket models.Bucket, value any) persistence.SaveResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved[bucket]++
	return persistence.SaveResult{Bucket: bucket}
}

func (a *fakeAdapter) SyncLocalToCloud(ctx context.Context, householdID string, entries []models.Entry, plan []models.MealPlanItem) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.syncErr != nil {
		return 0, a.syncErr
	}
	a.synced = append(a.synced, syncCall{householdID, entries, plan})
	return a.syncRev, nil
}

func (a *fakeAdapter) ClearLocal(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleared = true
	return nil
}

func (a *fakeAdapter) setGate(g chan struct{}) {
	a.mu.Lock()
	a.gate = g
	a.mu.Unlock()
}

func (a *fakeAdapter) savedCount(b models.Bucket) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved[b]
}

func (a *fakeAdapter) loadCount() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loads, a.maxInflight
}

type fakeSession struct {
	mu         sync.Mutex
	current    *models.Household
	households map[string]*models.Household
	refreshes  int
	subscribed []string
	onChange   func(models.ChangeEvent)
}

func newFakeSession() *fakeSession {
	return &fakeSession{households: make(map[string]*models.Household)}
}

func (s *fakeSession) Current() *models.Household {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	h := *s.current
	return &h
}

func (s *fakeSession) Create(ctx context.Context, name string) (*models.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &models.Household{ID: "h-" + name, Name: name, InviteCode: "ABC123"}
	s.households[h.InviteCode] = h
	s.current = h
	return h, nil
}

func (s *fakeSession) Join(ctx context.Context, code string) (*models.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.households[code]
	if !ok {
		return nil, nil
	}
	s.current = h
	return h, nil
}

func (s *fakeSession) Leave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

func (s *fakeSession) Adopt(ctx context.Context, h *models.Household) (*models.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *h
	s.current = &cp
	return h, nil
}

func (s *fakeSession) Rename(ctx context.Context, id, name string) (*models.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return nil, errors.New("not a member")
	}
	s.current.Name = name
	h := *s.current
	return &h, nil
}

func (s *fakeSession) Refresh(ctx context.Context) (*models.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.current, nil
}

func (s *fakeSession) Subscribe(ctx context.Context, householdID string, fn func(models.ChangeEvent)) (*remote.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, householdID)
	s.onChange = fn
	return nil, nil
}

type stubGenerator struct {
	draft *models.RecipeDraft
	err   error
}

func (g stubGenerator) GenerateRecipe(ctx context.Context, idea string) (*models.RecipeDraft, error) {
	return g.draft, g.err
}

// clock returns a time source that advances one millisecond per call so
// generated ids stay unique.
func clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func dish(id, title string, created int64) models.Dish {
	return models.Dish{ID: id, Title: title, Category: models.CategoryMainMeal, CreatedAt: created, Tags: []string{}}
}

func sampleSnapshot() persistence.Snapshot {
	snap := persistence.EmptySnapshot()
	snap.Entries = []models.Entry{dish("1", "番茄炒蛋", 100), dish("2", "可乐鸡翅", 200)}
	return snap
}

func newController(t *testing.T, a Adapter, s Session, opts Options) *Controller {
	t.Helper()
	if opts.Now == nil {
		opts.Now = clock()
	}
	if opts.ClientID == "" {
		opts.ClientID = "device-a"
	}
	c := New(a, s, stubGenerator{}, opts)
	t.Cleanup(c.Close)
	return c
}

func startedController(t *testing.T, a *fakeAdapter, s *fakeSession, opts Options) *Controller {
	t.Helper()
	c := newController(t, a, s, opts)
	require.NoError(t, c.Start(context.Background()))
	<-a.entered
	return c
}

func TestStart_LoadsStarterSetOnFreshStore(t *testing.T) {
	store, err := storage.OpenLocalStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	session := newFakeSession()
	adapter := persistence.NewAdapter(store, nil, session, nil)
	c := newController(t, adapter, session, Options{})

	require.NoError(t, c.Start(context.Background()))
	s := c.State()
	assert.NotEmpty(t, s.Entries)
	assert.False(t, s.Loading)
	assert.False(t, s.Syncing)
	assert.Equal(t, models.DefaultProfile(), s.Profile)
	assert.Empty(t, session.subscribed)
}

func TestStart_SubscribesWithHousehold(t *testing.T) {
	session := newFakeSession()
	session.current = &models.Household{ID: "h1", Name: "家"}
	a := newFakeAdapter(sampleSnapshot())
	c := startedController(t, a, session, Options{})

	assert.Equal(t, []string{"h1"}, session.subscribed)
	assert.Equal(t, "h1", c.State().Household.ID)
}

func TestNotificationDuringLoad_NoConcurrentReload(t *testing.T) {
	a := newFakeAdapter(sampleSnapshot())
	gate := make(chan struct{})
	a.setGate(gate)
	c := newController(t, a, newFakeSession(), Options{})

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background()) }()
	<-a.entered
	assert.True(t, c.State().Loading)

	evt := models.ChangeEvent{HouseholdID: "h1", Bucket: "recipes", Revision: 5, Origin: "device-b"}
	c.handleChange(context.Background(), evt)
	c.handleChange(context.Background(), evt)

	loads, _ := a.loadCount()
	assert.Equal(t, 1, loads)

	close(gate)
	require.NoError(t, <-done)
	<-a.entered

	loads, maxInflight := a.loadCount()
	assert.Equal(t, 2, loads, "notifications coalesce into one follow-up reload")
	assert.Equal(t, 1, maxInflight)
	assert.False(t, c.State().Loading)
}

func TestHandleChange_IgnoresOwnAndStaleEvents(t *testing.T) {
	snap := sampleSnapshot()
	snap.Revision = 7
	a := newFakeAdapter(snap)
	session := newFakeSession()
	c := startedController(t, a, session, Options{})

	c.handleChange(context.Background(), models.ChangeEvent{Bucket: "plan", Revision: 9, Origin: "device-a"})
	c.handleChange(context.Background(), models.ChangeEvent{Bucket: "plan", Revision: 7, Origin: "device-b"})
	c.handleChange(context.Background(), models.ChangeEvent{Bucket: "plan", Revision: 3, Origin: "device-b"})
	loads, _ := a.loadCount()
	assert.Equal(t, 1, loads)

	c.handleChange(context.Background(), models.ChangeEvent{Bucket: "plan", Revision: 8, Origin: "device-b"})
	<-a.entered
	loads, _ = a.loadCount()
	assert.Equal(t, 2, loads)
	assert.Zero(t, session.refreshes)
}

func TestHandleChange_HouseholdEventRefreshesMembership(t *testing.T) {
	a := newFakeAdapter(sampleSnapshot())
	session := newFakeSession()
	session.current = &models.Household{ID: "h1", Name: "旧名字"}
	c := startedController(t, a, session, Options{})

	session.mu.Lock()
	session.current.Name = "新名字"
	fn := session.onChange
	session.mu.Unlock()
	require.NotNil(t, fn)

	fn(models.ChangeEvent{HouseholdID: "h1", Bucket: models.ChangeKindHousehold, Revision: 1, Origin: "device-b"})
	<-a.entered

	assert.Equal(t, 1, session.refreshes)
	assert.Equal(t, "新名字", c.State().Household.Name)
}

func TestPersist_SuppressedWhileSyncing(t *testing.T) {
	a := newFakeAdapter(sampleSnapshot())
	c := startedController(t, a, newFakeSession(), Options{})

	gate := make(chan struct{})
	a.setGate(gate)
	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-a.entered
	assert.True(t, c.State().Syncing)

	require.NoError(t, c.ToggleFavorite(context.Background(), "1"))
	require.NoError(t, c.SetTitle(context.Background(), models.TitleHome, "小食堂"))
	assert.Zero(t, a.savedCount(models.BucketRecipes))
	assert.Equal(t, 1, a.savedCount(models.BucketProfile))

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, c.State().Syncing)

	require.NoError(t, c.ToggleFavorite(context.Background(), "1"))
	assert.Equal(t, 1, a.savedCount(models.BucketRecipes))
}

func TestPersist_ProfileSuppressedWhileLoading(t *testing.T) {
	a := newFakeAdapter(sampleSnapshot())
	gate := make(chan struct{})
	a.setGate(gate)
	c := newController(t, a, newFakeSession(), Options{})

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background()) }()
	<-a.entered

	require.NoError(t, c.SetTitle(context.Background(), models.TitleHome, "小食堂"))
	assert.Zero(t, a.savedCount(models.BucketProfile))

	close(gate)
	require.NoError(t, <-done)
}

func TestOnChange_ReceivesState(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	a := newFakeAdapter(sampleSnapshot())
	startedController(t, a, newFakeSession(), Options{OnChange: func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Len(t, seen[1].Entries, 2)
}

func TestClose_CancelsReloadFromChangeEvent(t *testing.T) {
	a := newFakeAdapter(sampleSnapshot())
	session := newFakeSession()
	session.current = &models.Household{ID: "h1", Name: "家"}
	c := startedController(t, a, session, Options{})

	session.mu.Lock()
	fn := session.onChange
	session.mu.Unlock()
	require.NotNil(t, fn)

	a.setGate(make(chan struct{}))
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(models.ChangeEvent{HouseholdID: "h1", Bucket: "recipes", Revision: 4, Origin: "device-b"})
	}()
	<-a.entered

	c.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event handler still reloading after Close")
	}
	assert.ErrorIs(t, c.State().LastError, context.Canceled)
	assert.False(t, c.State().Syncing)
}
