package contentrule

import (
	"context"
	"fmt"

	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/logctx"
	"github.com/fatflowers/membership/pkg/tool"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the content rule index: the many-to-many association between
// content items and the plans that restrict them.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) ByContent(ctx context.Context, contentID string) ([]*models.ContentRule, error) {
	var rows []*models.ContentRule
	if err := s.db.WithContext(ctx).Where("content_id = ?", contentID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list content rules: %w", err)
	}
	return rows, nil
}

func (s *Service) ByPlan(ctx context.Context, planID string) ([]*models.ContentRule, error) {
	var rows []*models.ContentRule
	if err := s.db.WithContext(ctx).Where("plan_id = ?", planID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list content rules: %w", err)
	}
	return rows, nil
}

// PlanIDsByContent returns the plans restricting a content item, in rule
// creation order. An unknown content id yields an empty set (open access).
func (s *Service) PlanIDsByContent(ctx context.Context, contentID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.ContentRule{}).
		Where("content_id = ?", contentID).
		Order("created_at ASC").
		Pluck("plan_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve restricting plans: %w", err)
	}
	return ids, nil
}

func (s *Service) IsRestricted(ctx context.Context, contentID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ContentRule{}).
		Where("content_id = ?", contentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check restriction: %w", err)
	}
	return count > 0, nil
}

// SyncByContent replaces a content item's rule set with the given plans, in
// one transaction so the item is never momentarily unrestricted mid-save.
func (s *Service) SyncByContent(ctx context.Context, contentID, contentType string, planIDs []string) error {
	planIDs = lo.Uniq(lo.Filter(planIDs, func(id string, _ int) bool { return id != "" }))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", contentID).Delete(&models.ContentRule{}).Error; err != nil {
			return fmt.Errorf("failed to clear content rules: %w", err)
		}
		if len(planIDs) == 0 {
			return nil
		}
		rows := make([]*models.ContentRule, 0, len(planIDs))
		for _, planID := range planIDs {
			rows = append(rows, &models.ContentRule{
				ID:          tool.GenerateUUIDV7(),
				ContentID:   contentID,
				ContentType: contentType,
				PlanID:      planID,
			})
		}
		if err := tx.Create(rows).Error; err != nil {
			return fmt.Errorf("failed to create content rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("content_rules_synced", "content_id", contentID, "plan_count", len(planIDs))
	return nil
}

// SyncByPlan is the mirror operation used when the plan's content list is
// saved: replace all rules owned by the plan with the given content items.
func (s *Service) SyncByPlan(ctx context.Context, planID, contentType string, contentIDs []string) error {
	contentIDs = lo.Uniq(lo.Filter(contentIDs, func(id string, _ int) bool { return id != "" }))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", planID).Delete(&models.ContentRule{}).Error; err != nil {
			return fmt.Errorf("failed to clear plan rules: %w", err)
		}
		if len(contentIDs) == 0 {
			return nil
		}
		rows := make([]*models.ContentRule, 0, len(contentIDs))
		for _, contentID := range contentIDs {
			rows = append(rows, &models.ContentRule{
				ID:          tool.GenerateUUIDV7(),
				ContentID:   contentID,
				ContentType: contentType,
				PlanID:      planID,
			})
		}
		if err := tx.Create(rows).Error; err != nil {
			return fmt.Errorf("failed to create plan rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_rules_synced", "plan_id", planID, "content_count", len(contentIDs))
	return nil
}

// RemoveByContent deletes all rules for a content item (content deleted in
// the host).
func (s *Service) RemoveByContent(ctx context.Context, contentID string) error {
	if err := s.db.WithContext(ctx).Where("content_id = ?", contentID).Delete(&models.ContentRule{}).Error; err != nil {
		return fmt.Errorf("failed to remove content rules: %w", err)
	}
	return nil
}

// RemoveByPlan deletes all rules owned by a plan.
func (s *Service) RemoveByPlan(ctx context.Context, planID string) error {
	if err := s.db.WithContext(ctx).Where("plan_id = ?", planID).Delete(&models.ContentRule{}).Error; err != nil {
		return fmt.Errorf("failed to remove plan rules: %w", err)
	}
	return nil
}
