package household

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/remote"
	"github.com/AnshRaj112/canteen-backend/internal/storage"
)

// Store persists the household reference on the device.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Remote is the part of the household store client the session drives.
type Remote interface {
	Authorize(token string)
	CreateHousehold(ctx context.Context, name string) (*models.Household, error)
	FindHouseholdByCode(ctx context.Context, code string) (*models.Household, error)
	GetHousehold(ctx context.Context, id string) (*models.Household, error)
	RenameHousehold(ctx context.Context, id, name string) (*models.Household, error)
	Subscribe(ctx context.Context, householdID string, fn func(models.ChangeEvent)) (*remote.Subscription, error)
}

// Session tracks this device's membership. A device holds at most one household;
// none means solo mode.
type Session struct {
	store  Store
	remote Remote
	logger *zap.Logger

	mu      sync.RWMutex
	current *models.Household
}

func NewSession(store Store, r Remote, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, remote: r, logger: logger}
}

// Current returns a copy of the active household, or nil.
func (s *Session) Current() *models.Household {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Restore loads the persisted reference at startup.
func (s *Session) Restore(ctx context.Context) (*models.Household, error) {
	data, err := s.store.Get(ctx, storage.KeyHousehold)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read household reference: %w", err)
	}
	var h models.Household
	if err := json.Unmarshal(data, &h); err != nil || h.ID == "" {
		// An unreadable reference is treated as solo mode.
		s.logger.Warn("discarding unreadable household reference", zap.Error(err))
		return nil, nil
	}
	s.set(&h)
	return s.Current(), nil
}

func (s *Session) set(h *models.Household) {
	s.mu.Lock()
	s.current = h
	s.mu.Unlock()
	token := ""
	if h != nil {
		token = h.Token
	}
	s.remote.Authorize(token)
}

func (s *Session) persist(ctx context.Context, h *models.Household) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal household reference: %w", err)
	}
	if err := s.store.Put(ctx, storage.KeyHousehold, data); err != nil {
		return fmt.Errorf("write household reference: %w", err)
	}
	return nil
}

// Adopt makes h the active household and persists the reference. It is how a
// failed switch restores the previous membership.
func (s *Session) Adopt(ctx context.Context, h *models.Household) (*models.Household, error) {
	return s.adopt(ctx, h)
}

func (s *Session) adopt(ctx context.Context, h *models.Household) (*models.Household, error) {
	if err := s.persist(ctx, h); err != nil {
		return nil, err
	}
	s.set(h)
	s.logger.Info("household active", zap.String("household_id", h.ID), zap.String("name", h.Name))
	return s.Current(), nil
}

// Create allocates a new household and makes it active. The caller merges its
// local data into it next.
func (s *Session) Create(ctx context.Context, name string) (*models.Household, error) {
	h, err := s.remote.CreateHousehold(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, h)
}

// Join looks up an invite code. An unknown code returns (nil, nil) and leaves
// the current membership untouched.
func (s *Session) Join(ctx context.Context, code string) (*models.Household, error) {
	h, err := s.remote.FindHouseholdByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return s.adopt(ctx, h)
}

// Leave forgets the household on this device only. The group and the other
// members are not touched.
func (s *Session) Leave(ctx context.Context) error {
	if err := s.store.Delete(ctx, storage.KeyHousehold); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("clear household reference: %w", err)
	}
	s.set(nil)
	return nil
}

// Rename renames the household for every member.
func (s *Session) Rename(ctx context.Context, id, name string) (*models.Household, error) {
	h, err := s.remote.RenameHousehold(ctx, id, name)
	if err != nil {
		return nil, err
	}
	cur := s.Current()
	if cur == nil || cur.ID != id {
		return h, nil
	}
	cur.Name = h.Name
	cur.Revision = h.Revision
	cur.UpdatedAt = h.UpdatedAt
	return s.adopt(ctx, cur)
}

// Refresh re-reads the active household record, picking up renames made by
// other members.
func (s *Session) Refresh(ctx context.Context) (*models.Household, error) {
	cur := s.Current()
	if cur == nil {
		return nil, nil
	}
	h, err := s.remote.GetHousehold(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	if h.Name == cur.Name && h.Revision == cur.Revision {
		return cur, nil
	}
	cur.Name = h.Name
	cur.Revision = h.Revision
	cur.UpdatedAt = h.UpdatedAt
	return s.adopt(ctx, cur)
}

// Subscribe opens the household change stream. Events caused by this device
// are delivered too; the consumer filters them.
func (s *Session) Subscribe(ctx context.Context, householdID string, fn func(models.ChangeEvent)) (*remote.Subscription, error) {
	return s.remote.Subscribe(ctx, householdID, fn)
}
