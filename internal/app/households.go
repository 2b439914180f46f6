package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

const (
	leavePrompt = "确定要退出当前共享组吗？退出后将无法查看共享数据。"
	resetPrompt = "确定要清除所有菜谱和计划吗？"
)

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	c.state.Loading = v
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) localData() ([]models.Entry, []models.MealPlanItem, models.UserProfile) {
	s := c.State()
	return s.Entries, s.Plan, s.Profile
}

// restoreMembership reverts the session to prev after a failed switch. The
// local buckets have not been touched at that point.
func (c *Controller) restoreMembership(ctx context.Context, prev *models.Household) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if prev == nil {
		err = c.session.Leave(ctx)
	} else {
		_, err = c.session.Adopt(ctx, prev)
	}
	if err != nil {
		c.logger.Error("failed to restore household membership", zap.Error(err))
	}
}

// CreateHousehold creates a household named after the profile when name is
// empty and copies the local recipes and plan into it. If the copy fails the
// previous membership is restored and nothing changes locally.
func (c *Controller) CreateHousehold(ctx context.Context, name string) (*models.Household, error) {
	entries, plan, profile := c.localData()
	prev := c.session.Current()
	if name = strings.TrimSpace(name); name == "" {
		name = profile.Name + "的家"
	}

	h, err := c.session.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}
	rev, err := c.adapter.SyncLocalToCloud(ctx, h.ID, entries, plan)
	if err != nil {
		c.restoreMembership(ctx, prev)
		return nil, fmt.Errorf("failed to copy local data: %w", err)
	}

	c.mu.Lock()
	c.state.Household = c.session.Current()
	if rev > c.state.Revision {
		c.state.Revision = rev
	}
	c.mu.Unlock()
	c.notify()
	c.resubscribe()
	return h, nil
}

// JoinHousehold joins by invite code, merges the local data into the household
// and reloads from it. An unknown code returns nil, nil and changes nothing.
// A failed merge restores the previous membership before anything is reloaded,
// so local data that never reached the household is kept.
func (c *Controller) JoinHousehold(ctx context.Context, code string) (*models.Household, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	entries, plan, _ := c.localData()
	prev := c.session.Current()

	c.setLoading(true)
	h, err := c.session.Join(ctx, code)
	if err != nil || h == nil {
		c.setLoading(false)
		if err != nil {
			return nil, fmt.Errorf("failed to join household: %w", err)
		}
		return nil, nil
	}

	if _, err := c.adapter.SyncLocalToCloud(ctx, h.ID, entries, plan); err != nil {
		c.restoreMembership(ctx, prev)
		c.setLoading(false)
		return nil, fmt.Errorf("failed to merge local data into household: %w", err)
	}
	if err := c.reload(ctx, true); err != nil {
		c.logger.Warn("load after join degraded", zap.Error(err))
	}
	c.resubscribe()
	return h, nil
}

// LeaveHousehold drops the household reference after confirmation and reloads
// the local data.
func (c *Controller) LeaveHousehold(ctx context.Context) error {
	if c.session.Current() == nil {
		return ErrNoHousehold
	}
	if !c.confirm(leavePrompt) {
		return ErrCancelled
	}

	c.setLoading(true)
	c.unsubscribe()
	if err := c.session.Leave(ctx); err != nil {
		c.setLoading(false)
		return fmt.Errorf("failed to leave household: %w", err)
	}
	if err := c.reload(ctx, true); err != nil {
		c.logger.Warn("load after leave degraded", zap.Error(err))
	}
	return nil
}

// RenameHousehold renames the active household for every member.
func (c *Controller) RenameHousehold(ctx context.Context, name string) error {
	h := c.session.Current()
	if h == nil {
		return ErrNoHousehold
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("household name is required")
	}
	if _, err := c.session.Rename(ctx, h.ID, name); err != nil {
		return fmt.Errorf("failed to rename household: %w", err)
	}
	c.mu.Lock()
	c.state.Household = c.session.Current()
	c.mu.Unlock()
	c.notify()
	return nil
}

// ResetAll clears every local bucket and the household reference after
// confirmation, then reloads, which brings back the starter recipes.
func (c *Controller) ResetAll(ctx context.Context) error {
	if !c.confirm(resetPrompt) {
		return ErrCancelled
	}

	c.setLoading(true)
	c.unsubscribe()
	if err := c.adapter.ClearLocal(ctx); err != nil {
		c.setLoading(false)
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	if c.session.Current() != nil {
		if err := c.session.Leave(ctx); err != nil {
			c.setLoading(false)
			return fmt.Errorf("failed to leave household: %w", err)
		}
	}
	return c.reload(ctx, true)
}
