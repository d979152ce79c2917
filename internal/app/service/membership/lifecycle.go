package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/logctx"
	"github.com/fatflowers/membership/pkg/tool"
	types "github.com/fatflowers/membership/pkg/types"
)

type GrantRequest struct {
	UserID         string                 `json:"user_id"`
	PlanID         string                 `json:"plan_id"`
	Source         types.MembershipSource `json:"source"`
	OrderID        *string                `json:"order_id"`
	SubscriptionID *string                `json:"subscription_id"`
}

// Grant creates an active membership for (user, plan), or, when one already
// exists and is active, stacks another duration period onto it and returns
// the existing id. That makes re-delivered commerce events idempotent.
func (s *Service) Grant(ctx context.Context, req *GrantRequest) (string, error) {
	if req == nil || req.UserID == "" || req.PlanID == "" {
		return "", fmt.Errorf("grant: user id and plan id are required")
	}

	p, err := s.planSvc.GetByID(ctx, req.PlanID)
	if err != nil {
		return "", err
	}
	if !p.IsActive() {
		return "", fmt.Errorf("%w: %s", ErrPlanInactive, p.Slug)
	}

	unlock := s.grantLock.lock(req.UserID + "/" + req.PlanID)
	defer unlock()

	existing, err := s.ByUserAndPlan(ctx, req.UserID, req.PlanID)
	if err != nil && !errors.Is(err, ErrMembershipNotFound) {
		return "", err
	}
	if existing != nil && existing.IsActive() {
		if err := s.extendRecord(ctx, existing, p); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	source := req.Source
	if source == "" {
		source = types.MembershipSourceManual
	}

	now := time.Now()
	m := &models.Membership{
		ID:             tool.GenerateUUIDV7(),
		UserID:         req.UserID,
		PlanID:         req.PlanID,
		OrderID:        req.OrderID,
		SubscriptionID: req.SubscriptionID,
		Source:         source,
		Status:         types.MembershipStatusActive,
		StartDate:      now,
		EndDate:        p.ExpirationFrom(now),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return "", fmt.Errorf("failed to create membership: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("membership_granted",
		"membership_id", m.ID, "user_id", m.UserID, "plan_id", m.PlanID, "source", source)
	s.events.Publish(Event{Kind: EventGranted, MembershipID: m.ID, UserID: m.UserID, PlanID: m.PlanID})
	return m.ID, nil
}

// Extend stacks one plan duration onto the membership's current end date (or
// onto now when it has none) and forces the status back to active. Renewals
// go through here so periods accumulate instead of resetting.
func (s *Service) Extend(ctx context.Context, membershipID string) (string, error) {
	m, err := s.ByID(ctx, membershipID)
	if err != nil {
		return "", err
	}
	p, err := s.planSvc.GetByID(ctx, m.PlanID)
	if err != nil {
		return "", err
	}
	if err := s.extendRecord(ctx, m, p); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *Service) extendRecord(ctx context.Context, m *models.Membership, p *models.Plan) error {
	startFrom := time.Now()
	if m.EndDate != nil {
		startFrom = *m.EndDate
	}
	newEnd := p.ExpirationFrom(startFrom)

	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"end_date": newEnd,
			"status":   types.MembershipStatusActive,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to extend membership: %w", err)
	}
	m.EndDate = newEnd
	m.Status = types.MembershipStatusActive

	logctx.FromCtx(ctx, s.log).Infow("membership_extended",
		"membership_id", m.ID, "user_id", m.UserID, "plan_id", m.PlanID, "end_date", newEnd)
	return nil
}

// Revoke cancels the most recent membership for (user, plan) regardless of
// its status. Returns false when the user never held the plan.
func (s *Service) Revoke(ctx context.Context, userID, planID string) (bool, error) {
	m, err := s.ByUserAndPlan(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"status":       types.MembershipStatusCancelled,
			"cancelled_at": now,
		}).Error
	if err != nil {
		return false, fmt.Errorf("failed to revoke membership: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("membership_revoked",
		"membership_id", m.ID, "user_id", userID, "plan_id", planID)
	s.events.Publish(Event{Kind: EventRevoked, MembershipID: m.ID, UserID: userID, PlanID: planID})
	return true, nil
}

// Pause holds an active membership. No date recalculation; the clock keeps
// running against the end date.
func (s *Service) Pause(ctx context.Context, membershipID string) (bool, error) {
	return s.flipStatus(ctx, membershipID,
		[]types.MembershipStatus{types.MembershipStatusActive, types.MembershipStatusPaused},
		types.MembershipStatusPaused)
}

// Resume reactivates a paused membership.
func (s *Service) Resume(ctx context.Context, membershipID string) (bool, error) {
	return s.flipStatus(ctx, membershipID,
		[]types.MembershipStatus{types.MembershipStatusPaused, types.MembershipStatusActive},
		types.MembershipStatusActive)
}

// Expire marks a membership expired and notifies subscribers. Terminal
// states stay terminal: an already cancelled or expired row returns false,
// which also makes back-to-back sweeps emit each expiry exactly once.
func (s *Service) Expire(ctx context.Context, membershipID string) (bool, error) {
	m, err := s.ByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}
	switch m.Status {
	case types.MembershipStatusExpired, types.MembershipStatusCancelled:
		return false, nil
	}

	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", m.ID).
		Update("status", types.MembershipStatusExpired).Error
	if err != nil {
		return false, fmt.Errorf("failed to expire membership: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("membership_expired",
		"membership_id", m.ID, "user_id", m.UserID, "plan_id", m.PlanID)
	s.events.Publish(Event{Kind: EventExpired, MembershipID: m.ID, UserID: m.UserID, PlanID: m.PlanID})
	return true, nil
}

func (s *Service) flipStatus(ctx context.Context, membershipID string, from []types.MembershipStatus, to types.MembershipStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ? AND status IN ?", membershipID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set membership status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}
