package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

const (
	changeChannelPrefix  = "household:"
	changeChannelPattern = "household:*"

	// subscriberBuffer is how many events a slow subscriber may lag before events are dropped.
	subscriberBuffer = 16
)

// ChangeBus carries change events between the writer and every subscriber of a household.
type ChangeBus interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
	Subscribe(householdID string) *ChangeSubscription
}

// ChangeSubscription receives the events of one household until closed.
type ChangeSubscription struct {
	HouseholdID string
	C           <-chan models.ChangeEvent

	ch   chan models.ChangeEvent
	hub  *ChangeHub
	once sync.Once
}

// Close detaches the subscription and closes C.
func (s *ChangeSubscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

// ChangeHub is the in-process registry of subscriptions.
type ChangeHub struct {
	mu     sync.RWMutex
	subs   map[string]map[*ChangeSubscription]struct{}
	logger *zap.Logger
}

func NewChangeHub(logger *zap.Logger) *ChangeHub {
	return &ChangeHub{
		subs:   make(map[string]map[*ChangeSubscription]struct{}),
		logger: logger,
	}
}

func (h *ChangeHub) Subscribe(householdID string) *ChangeSubscription {
	ch := make(chan models.ChangeEvent, subscriberBuffer)
	sub := &ChangeSubscription{HouseholdID: householdID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	set, ok := h.subs[householdID]
	if !ok {
		set = make(map[*ChangeSubscription]struct{})
		h.subs[householdID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *ChangeHub) remove(sub *ChangeSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.HouseholdID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.HouseholdID)
	}
}

// Count returns the number of live subscriptions for a household.
func (h *ChangeHub) Count(householdID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[householdID])
}

// FanOut delivers event to every local subscriber of its household. Sends never
// block; a subscriber with a full buffer misses the event.
func (h *ChangeHub) FanOut(event models.ChangeEvent) {
	if event.HouseholdID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[event.HouseholdID] {
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn("dropping change event for slow subscriber",
				zap.String("household_id", event.HouseholdID),
				zap.Int64("revision", event.Revision))
		}
	}
}

// MemoryChangeBus delivers published events straight to the local hub.
type MemoryChangeBus struct {
	hub *ChangeHub
}

func NewMemoryChangeBus(hub *ChangeHub) *MemoryChangeBus {
	return &MemoryChangeBus{hub: hub}
}

func (b *MemoryChangeBus) Publish(ctx context.Context, event models.ChangeEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	b.hub.FanOut(event)
	return nil
}

func (b *MemoryChangeBus) Subscribe(householdID string) *ChangeSubscription {
	return b.hub.Subscribe(householdID)
}

// RedisChangeBus publishes events over Redis Pub/Sub so every server instance
// fans them out to its own subscribers.
type RedisChangeBus struct {
	rdb     *redis.Client
	hub     *ChangeHub
	logger  *zap.Logger
	started sync.Once
	ready   chan struct{}
}

func NewRedisChangeBus(rdb *redis.Client, hub *ChangeHub, logger *zap.Logger) *RedisChangeBus {
	return &RedisChangeBus{rdb: rdb, hub: hub, logger: logger, ready: make(chan struct{})}
}

// Start runs the single shared pattern subscriber until ctx is done.
func (b *RedisChangeBus) Start(ctx context.Context) {
	b.started.Do(func() {
		go b.run(ctx)
	})
}

// Ready is closed once the first Redis subscription is confirmed.
func (b *RedisChangeBus) Ready() <-chan struct{} {
	return b.ready
}

func (b *RedisChangeBus) run(ctx context.Context) {
	backoff := time.Second
	var readyOnce sync.Once

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := b.rdb.PSubscribe(ctx, changeChannelPattern)
			defer pubsub.Close()

			if _, err := pubsub.Receive(ctx); err != nil {
				b.logger.Warn("change subscriber failed to subscribe", zap.Error(err))
				backoff = b.sleep(ctx, backoff)
				return
			}
			readyOnce.Do(func() { close(b.ready) })
			b.logger.Info("change subscriber started", zap.String("pattern", changeChannelPattern))

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					b.logger.Warn("change subscriber error", zap.Error(err))
					backoff = b.sleep(ctx, backoff)
					return
				}

				backoff = time.Second

				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("failed to unmarshal change event", zap.Error(err))
					continue
				}
				b.hub.FanOut(event)
			}
		}()
	}
}

// sleep waits out backoff and returns the next, capped at 30s.
func (b *RedisChangeBus) sleep(ctx context.Context, backoff time.Duration) time.Duration {
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	backoff *= 2
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func (b *RedisChangeBus) Publish(ctx context.Context, event models.ChangeEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, changeChannelPrefix+event.HouseholdID, data).Err()
}

func (b *RedisChangeBus) Subscribe(householdID string) *ChangeSubscription {
	return b.hub.Subscribe(householdID)
}
