package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/pkg/utils"
)

// HouseholdService implements the household store: membership, buckets and
// change notification. Every successful write bumps the household revision and
// publishes one change event carrying it.
type HouseholdService struct {
	repo   HouseholdRepository
	store  BucketStore
	bus    ChangeBus
	tokens *TokenService
	logger *zap.Logger
}

func NewHouseholdService(repo HouseholdRepository, store BucketStore, bus ChangeBus, tokens *TokenService, logger *zap.Logger) *HouseholdService {
	return &HouseholdService{repo: repo, store: store, bus: bus, tokens: tokens, logger: logger}
}

// Tokens exposes the token verifier for the auth middleware.
func (s *HouseholdService) Tokens() *TokenService {
	return s.tokens
}

// Bus exposes the change bus for the WebSocket stream.
func (s *HouseholdService) Bus() ChangeBus {
	return s.bus
}

// Create allocates a household with a fresh invite code and returns it with a
// membership token.
func (s *HouseholdService) Create(ctx context.Context, name string) (*models.Household, string, error) {
	name, err := utils.ValidateHouseholdName(name)
	if err != nil {
		return nil, "", err
	}
	code, err := GenerateUniqueInviteCode(ctx, s.repo.CodeExists)
	if err != nil {
		return nil, "", err
	}
	h, err := s.repo.Create(ctx, name, code)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(h.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("household created", zap.String("household_id", h.ID))
	return h, token, nil
}

// Join resolves an invite code. An unknown code is ErrHouseholdNotFound.
func (s *HouseholdService) Join(ctx context.Context, code string) (*models.Household, string, error) {
	code = NormalizeInviteCode(code)
	if code == "" {
		return nil, "", ErrHouseholdNotFound
	}
	h, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(h.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("household joined", zap.String("household_id", h.ID))
	return h, token, nil
}

func (s *HouseholdService) Get(ctx context.Context, id string) (*models.Household, error) {
	return s.repo.Get(ctx, id)
}

// Rename changes the household name and notifies every member.
func (s *HouseholdService) Rename(ctx context.Context, id, name, origin string) (*models.Household, error) {
	name, err := utils.ValidateHouseholdName(name)
	if err != nil {
		return nil, err
	}
	h, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, h.ID, models.ChangeKindHousehold, h.Revision, origin)
	return h, nil
}

// LoadBucket returns the bucket and the household revision it is at least as new as.
func (s *HouseholdService) LoadBucket(ctx context.Context, id string, bucket models.Bucket) (json.RawMessage, int64, error) {
	h, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	data, err := s.store.Load(ctx, id, bucket)
	if err != nil {
		return nil, 0, err
	}
	return data, h.Revision, nil
}

// ReplaceBucket overwrites a bucket (last writer wins).
func (s *HouseholdService) ReplaceBucket(ctx context.Context, id string, bucket models.Bucket, data json.RawMessage, origin string) (int64, error) {
	return s.write(ctx, id, bucket, origin, func() error {
		return s.store.Replace(ctx, id, bucket, data)
	})
}

// MergeBucket upserts the entities of data by id.
func (s *HouseholdService) MergeBucket(ctx context.Context, id string, bucket models.Bucket, data json.RawMessage, origin string) (int64, error) {
	return s.write(ctx, id, bucket, origin, func() error {
		return s.store.Merge(ctx, id, bucket, data)
	})
}

func (s *HouseholdService) write(ctx context.Context, id string, bucket models.Bucket, origin string, apply func() error) (int64, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return 0, err
	}
	if err := apply(); err != nil {
		return 0, err
	}
	rev, err := s.repo.BumpRevision(ctx, id)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, id, string(bucket), rev, origin)
	return rev, nil
}

// publish is best effort: the write already landed and clients recover on their next load.
func (s *HouseholdService) publish(ctx context.Context, id, bucket string, rev int64, origin string) {
	event := models.ChangeEvent{
		HouseholdID: id,
		Bucket:      bucket,
		Revision:    rev,
		Origin:      origin,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish change event",
			zap.String("household_id", id),
			zap.String("bucket", bucket),
			zap.Error(err))
	}
}

// IsClientError reports whether err is caused by the request rather than the server.
func IsClientError(err error) bool {
	var verr *utils.ValidationError
	return errors.As(err, &verr) || errors.Is(err, ErrInvalidBucket)
}

// PublicMessage is the message returned to clients for err.
func PublicMessage(err error) string {
	var verr *utils.ValidationError
	switch {
	case errors.Is(err, ErrHouseholdNotFound):
		return "household not found"
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrInvalidBucket):
		return err.Error()
	default:
		return "internal server error"
	}
}
