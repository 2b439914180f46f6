package app

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/persistence"
	"github.com/AnshRaj112/canteen-backend/internal/remote"
)

var (
	// ErrCancelled is returned when the user declines a destructive action.
	ErrCancelled = errors.New("cancelled")
	// ErrNotFound is returned for an entry or plan item that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoHousehold is returned by household actions in solo mode.
	ErrNoHousehold = errors.New("no active household")
)

// Adapter is the persistence layer the controller drives.
type Adapter interface {
	LoadData(ctx context.Context) (persistence.Snapshot, error)
	SaveData(ctx context.Context, bucket models.Bucket, value any) persistence.SaveResult
	SyncLocalToCloud(ctx context.Context, householdID string, entries []models.Entry, plan []models.MealPlanItem) (int64, error)
	ClearLocal(ctx context.Context) error
}

// Session is the household membership the controller drives.
type Session interface {
	Current() *models.Household
	Create(ctx context.Context, name string) (*models.Household, error)
	Join(ctx context.Context, code string) (*models.Household, error)
	Leave(ctx context.Context) error
	Adopt(ctx context.Context, h *models.Household) (*models.Household, error)
	Rename(ctx context.Context, id, name string) (*models.Household, error)
	Refresh(ctx context.Context) (*models.Household, error)
	Subscribe(ctx context.Context, householdID string, fn func(models.ChangeEvent)) (*remote.Subscription, error)
}

// Generator produces recipe drafts from a free-text idea.
type Generator interface {
	GenerateRecipe(ctx context.Context, idea string) (*models.RecipeDraft, error)
}

// State is a copy of the application data and its load flags.
type State struct {
	Entries   []models.Entry
	Plan      []models.MealPlanItem
	Profile   models.UserProfile
	Household *models.Household
	// Loading is set during the first load after start and while switching households.
	Loading bool
	// Syncing is set during any later reload.
	Syncing bool
	// Revision is the household revision of the loaded data.
	Revision  int64
	LastError error
}

type Options struct {
	// ClientID identifies this device in change events.
	ClientID string
	// Confirm gates destructive actions. Nil confirms everything.
	Confirm func(prompt string) bool
	// OnChange is called after every state change, outside the lock.
	OnChange func(State)
	Now      func() time.Time
	Logger   *zap.Logger
}

// Controller owns the application state. Every mutation updates memory and
// then persists the affected bucket explicitly.
type Controller struct {
	adapter   Adapter
	session   Session
	generator Generator
	clientID  string
	confirm   func(string) bool
	onChange  func(State)
	now       func() time.Time
	logger    *zap.Logger

	// writeMu orders mutate-then-persist pairs so saves land in mutation order.
	writeMu sync.Mutex

	mu        sync.Mutex
	state     State
	reloading bool
	pending   bool

	subMu     sync.Mutex
	sub       *remote.Subscription
	subCtx    context.Context
	subCancel context.CancelFunc
}

func New(adapter Adapter, session Session, generator Generator, opts Options) *Controller {
	c := &Controller{
		adapter:   adapter,
		session:   session,
		generator: generator,
		clientID:  opts.ClientID,
		confirm:   opts.Confirm,
		onChange:  opts.OnChange,
		now:       opts.Now,
		logger:    opts.Logger,
		subCtx:    context.Background(),
	}
	if c.confirm == nil {
		c.confirm = func(string) bool { return true }
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.state = State{
		Entries: []models.Entry{},
		Plan:    []models.MealPlanItem{},
		Profile: models.DefaultProfile(),
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Entries = slices.Clone(c.state.Entries)
	s.Plan = slices.Clone(c.state.Plan)
	if c.state.Household != nil {
		h := *c.state.Household
		s.Household = &h
	}
	return s
}

// OnChange replaces the state change callback.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	s := c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Start performs the first load and, with an active household, opens the
// change subscription. ctx bounds the subscription too.
func (c *Controller) Start(ctx context.Context) error {
	c.subMu.Lock()
	c.subCtx = ctx
	c.subMu.Unlock()

	err := c.reload(ctx, true)
	c.resubscribe()
	return err
}

// Close stops the change subscription.
func (c *Controller) Close() {
	c.unsubscribe()
}

// Refresh reloads everything. A refresh requested while a load is in flight is
// folded into a single follow-up reload and returns immediately.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.reload(ctx, false)
}

func (c *Controller) reload(ctx context.Context, initial bool) error {
	c.mu.Lock()
	if c.reloading {
		c.pending = true
		c.mu.Unlock()
		return nil
	}
	c.reloading = true
	if initial {
		c.state.Loading = true
	} else {
		c.state.Syncing = true
	}
	c.mu.Unlock()
	c.notify()

	for {
		snap, err := c.adapter.LoadData(ctx)
		if err != nil {
			c.logger.Warn("load degraded", zap.Error(err))
		}

		c.mu.Lock()
		c.state.Entries = snap.Entries
		c.state.Plan = snap.Plan
		c.state.Profile = snap.Profile
		c.state.Revision = snap.Revision
		c.state.Household = c.session.Current()
		c.state.LastError = err
		if c.pending && ctx.Err() == nil {
			c.pending = false
			c.mu.Unlock()
			continue
		}
		c.pending = false
		c.reloading = false
		c.state.Loading = false
		c.state.Syncing = false
		c.mu.Unlock()
		c.notify()
		return err
	}
}

// handleChange reacts to a household change event. Events from this device and
// events already covered by the loaded data are ignored.
func (c *Controller) handleChange(ctx context.Context, evt models.ChangeEvent) {
	if c.clientID != "" && evt.Origin == c.clientID {
		return
	}
	c.mu.Lock()
	stale := evt.Revision <= c.state.Revision
	c.mu.Unlock()
	if stale {
		return
	}

	if evt.Bucket == models.ChangeKindHousehold {
		if _, err := c.session.Refresh(ctx); err != nil {
			c.logger.Warn("household refresh failed", zap.Error(err))
		}
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("reload after change failed", zap.String("bucket", evt.Bucket), zap.Error(err))
	}
}

// resubscribe points the change subscription at the current household.
func (c *Controller) resubscribe() {
	c.unsubscribe()

	h := c.session.Current()
	if h == nil {
		return
	}
	c.subMu.Lock()
	defer c.subMu.Unlock()
	// Reloads triggered by events end with the subscription.
	ctx, cancel := context.WithCancel(c.subCtx)
	sub, err := c.session.Subscribe(ctx, h.ID, func(evt models.ChangeEvent) {
		c.handleChange(ctx, evt)
	})
	if err != nil {
		cancel()
		c.logger.Warn("change subscription failed", zap.String("household_id", h.ID), zap.Error(err))
		return
	}
	c.sub = sub
	c.subCancel = cancel
}

func (c *Controller) unsubscribe() {
	c.subMu.Lock()
	sub, cancel := c.sub, c.subCancel
	c.sub, c.subCancel = nil, nil
	c.subMu.Unlock()
	if cancel != nil {
		cancel()
	}
	if sub != nil {
		sub.Unsubscribe()
	}
}

// persist saves one bucket from the current state. Recipe and plan writes are
// skipped while any load is in flight and profile writes during the first
// load, so a reload never gets overwritten by the state it is replacing.
func (c *Controller) persist(ctx context.Context, bucket models.Bucket) error {
	c.mu.Lock()
	if c.state.Loading || (bucket != models.BucketProfile && c.state.Syncing) {
		c.mu.Unlock()
		c.logger.Debug("persist skipped during load", zap.String("bucket", string(bucket)))
		return nil
	}
	var value any
	switch bucket {
	case models.BucketRecipes:
		value = slices.Clone(c.state.Entries)
	case models.BucketPlan:
		value = slices.Clone(c.state.Plan)
	default:
		value = c.state.Profile
	}
	c.mu.Unlock()

	res := c.adapter.SaveData(ctx, bucket, value)
	if err := res.Err(); err != nil {
		c.mu.Lock()
		c.state.LastError = err
		c.mu.Unlock()
		return err
	}
	return nil
}

// mutate applies fn to the state under the lock, then persists bucket.
func (c *Controller) mutate(ctx context.Context, bucket models.Bucket, fn func(s *State) error) error {
	return c.mutateBuckets(ctx, func(s *State) ([]models.Bucket, error) {
		if err := fn(s); err != nil {
			return nil, err
		}
		return []models.Bucket{bucket}, nil
	})
}

// mutateBuckets applies fn and persists every bucket it reports as changed.
func (c *Controller) mutateBuckets(ctx context.Context, fn func(s *State) ([]models.Bucket, error)) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	buckets, err := fn(&c.state)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.notify()

	var errs []error
	for _, b := range buckets {
		if err := c.persist(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
