package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	plansvc "github.com/fatflowers/membership/internal/app/service/plan"
	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/config"
	types "github.com/fatflowers/membership/pkg/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrPlanInactive       = errors.New("plan is inactive")
)

// Service is the membership ledger and its lifecycle engine.
type Service struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *zap.SugaredLogger
	planSvc *plansvc.Service
	events  *Bus

	// serializes grant/extend per (user, plan) so a duplicate webhook racing
	// a manual grant cannot both take the create branch
	grantLock keyedMutex
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, planSvc *plansvc.Service, events *Bus) *Service {
	return &Service{cfg: cfg, db: db, log: log, planSvc: planSvc, events: events}
}

func (s *Service) ByID(ctx context.Context, id string) (*models.Membership, error) {
	var m models.Membership
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return &m, nil
}

// ByUserAndPlan returns the most recent membership for (user, plan)
// regardless of status, or ErrMembershipNotFound.
func (s *Service) ByUserAndPlan(ctx context.Context, userID, planID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return &m, nil
}

func (s *Service) BySubscription(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to load membership by subscription: %w", err)
	}
	return &m, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*models.Membership, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("status = ?", types.MembershipStatusActive)
	}
	var rows []*models.Membership
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return rows, nil
}

// ListLapsed returns memberships still marked active whose end date has
// passed. This is the sweeper's work queue.
func (s *Service) ListLapsed(ctx context.Context, now time.Time) ([]*models.Membership, error) {
	var rows []*models.Membership
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", types.MembershipStatusActive, now).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed memberships: %w", err)
	}
	return rows, nil
}

// HasActivePlan reports whether the user currently holds the plan: status
// active and end date either absent or in the future. The date compare makes
// the check correct between sweeper runs.
func (s *Service) HasActivePlan(ctx context.Context, userID, planID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND plan_id = ? AND status = ? AND (end_date IS NULL OR end_date > ?)",
			userID, planID, types.MembershipStatusActive, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check active plan: %w", err)
	}
	return count > 0, nil
}

// IsExpiringSoon reports whether the membership lapses within the given
// number of days. Lifetime memberships never do.
func (s *Service) IsExpiringSoon(ctx context.Context, id string, days int) (bool, error) {
	m, err := s.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}
	remaining := m.RemainingDays()
	if remaining == nil {
		return false, nil
	}
	return *remaining > 0 && *remaining <= days, nil
}

// Remove physically deletes a membership row. Only cleanup paths call this;
// lifecycle transitions never do.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Membership{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete membership: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
