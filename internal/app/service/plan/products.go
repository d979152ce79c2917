package plan

import (
	"context"
	"fmt"

	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/tool"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ProductRef identifies one external commerce product tied to a plan.
type ProductRef struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
}

// SyncProducts replaces the plan's product associations with the given set.
// Delete and re-insert happen in one transaction so a crash mid-sync never
// leaves the plan with no associations.
func (s *Service) SyncProducts(ctx context.Context, planID string, products []ProductRef) error {
	if _, err := s.GetByID(ctx, planID); err != nil {
		return err
	}

	products = lo.UniqBy(products, func(p ProductRef) string { return p.ProductID })

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanProduct{}).Error; err != nil {
			return fmt.Errorf("failed to clear plan products: %w", err)
		}
		if len(products) == 0 {
			return nil
		}
		rows := make([]*models.PlanProduct, 0, len(products))
		for _, p := range products {
			productType := p.ProductType
			if productType == "" {
				productType = "simple"
			}
			rows = append(rows, &models.PlanProduct{
				ID:          tool.GenerateUUIDV7(),
				PlanID:      planID,
				ProductID:   p.ProductID,
				ProductType: productType,
			})
		}
		if err := tx.Create(rows).Error; err != nil {
			return fmt.Errorf("failed to create plan products: %w", err)
		}
		return nil
	})
}

func (s *Service) ProductsByPlan(ctx context.Context, planID string) ([]*models.PlanProduct, error) {
	var rows []*models.PlanProduct
	if err := s.db.WithContext(ctx).Where("plan_id = ?", planID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list plan products: %w", err)
	}
	return rows, nil
}

// PlanIDsByProduct resolves which plans a purchased product grants. An
// unmapped product resolves to an empty set, never an error.
func (s *Service) PlanIDsByProduct(ctx context.Context, productID string) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.PlanProduct{}).
		Where("product_id = ?", productID).
		Pluck("plan_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve plans for product: %w", err)
	}
	return ids, nil
}
