package plan

import (
	"context"
	"errors"
	"fmt"

	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/config"
	"github.com/fatflowers/membership/pkg/logctx"
	"github.com/fatflowers/membership/pkg/tool"
	types "github.com/fatflowers/membership/pkg/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrDuplicateSlug = errors.New("duplicate plan slug")
	ErrValidation    = errors.New("invalid plan input")
)

// Service is the plan catalog plus the plan-product index.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

type CreatePlanRequest struct {
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Description   string             `json:"description"`
	DurationType  types.DurationType `json:"duration_type"`
	DurationValue *int               `json:"duration_value"`
	Priority      int                `json:"priority"`
	Status        types.PlanStatus   `json:"status"`
}

type UpdatePlanRequest struct {
	Name          *string             `json:"name"`
	Slug          *string             `json:"slug"`
	Description   *string             `json:"description"`
	DurationType  *types.DurationType `json:"duration_type"`
	DurationValue *int                `json:"duration_value"`
	Priority      *int                `json:"priority"`
	Status        *types.PlanStatus   `json:"status"`
}

func validateDuration(durationType types.DurationType, value *int) error {
	if !durationType.Valid() {
		return fmt.Errorf("%w: unknown duration type %q", ErrValidation, durationType)
	}
	if durationType == types.DurationForever {
		if value != nil {
			return fmt.Errorf("%w: duration value must be absent for forever plans", ErrValidation)
		}
		return nil
	}
	if value == nil || *value < 1 {
		return fmt.Errorf("%w: duration value must be a positive integer", ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req *CreatePlanRequest) (*models.Plan, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	durationType := req.DurationType
	if durationType == "" {
		durationType = types.DurationForever
	}
	if err := validateDuration(durationType, req.DurationValue); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: cannot derive slug from name", ErrValidation)
	}

	taken, err := s.slugExists(ctx, slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, slug)
	}

	status := req.Status
	if status == "" {
		status = types.PlanStatusActive
	}

	p := &models.Plan{
		ID:            tool.GenerateUUIDV7(),
		Name:          req.Name,
		Slug:          slug,
		Description:   req.Description,
		DurationType:  durationType,
		DurationValue: req.DurationValue,
		Priority:      req.Priority,
		Status:        status,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		// the unique index backs up the pre-check under concurrent creates
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, slug)
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_created", "plan_id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	var p models.Plan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &p, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	var p models.Plan
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &p, nil
}

// List returns plans ordered by priority descending, then name ascending.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	q := s.db.WithContext(ctx).Model(&models.Plan{})
	if activeOnly {
		q = q.Where("status = ?", types.PlanStatusActive)
	}
	var plans []*models.Plan
	if err := q.Order("priority DESC, name ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *Service) Update(ctx context.Context, id string, req *UpdatePlanRequest) (*models.Plan, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrValidation)
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		p.Name = *req.Name
	}
	if req.Slug != nil {
		slug := *req.Slug
		if slug == "" {
			slug = Slugify(p.Name)
		}
		p.Slug = slug
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.DurationType != nil {
		p.DurationType = *req.DurationType
		if p.DurationType == types.DurationForever {
			p.DurationValue = nil
		}
	}
	if req.DurationValue != nil {
		p.DurationValue = req.DurationValue
	}
	if err := validateDuration(p.DurationType, p.DurationValue); err != nil {
		return nil, err
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if req.Status != nil {
		p.Status = *req.Status
	}

	taken, err := s.slugExists(ctx, p.Slug, p.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug)
	}

	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug)
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return p, nil
}

// Delete removes the plan together with its product associations and content
// rules. Membership rows are left in place for history; lookups treat their
// dangling plan_id as a normal miss.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Plan{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete plan: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPlanNotFound
		}
		if err := tx.Where("plan_id = ?", id).Delete(&models.PlanProduct{}).Error; err != nil {
			return fmt.Errorf("failed to delete plan products: %w", err)
		}
		if err := tx.Where("plan_id = ?", id).Delete(&models.ContentRule{}).Error; err != nil {
			return fmt.Errorf("failed to delete content rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_deleted", "plan_id", id)
	return nil
}

func (s *Service) slugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Plan{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}
