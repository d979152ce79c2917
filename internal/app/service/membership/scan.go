package membership

import (
	"context"
	"fmt"

	models "github.com/fatflowers/membership/internal/models"
	types "github.com/fatflowers/membership/pkg/types"

	"gorm.io/gorm/clause"
)

type ScanMembershipsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanMembershipsResponse struct {
	Items []*models.Membership `json:"items"`
	Total int64                `json:"total"`
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// ScanMemberships implements paginated admin listing with filters.
func (s *Service) ScanMemberships(ctx context.Context, req *ScanMembershipsRequest) (*ScanMembershipsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Membership{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count memberships: %w", err)
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := req.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	var rows []*models.Membership
	q := tx.Order(clause.OrderByColumn{
		Column: clause.Column{Name: sortBy},
		Desc:   sortOrder == "desc",
	}).Offset(req.From).Limit(req.Size)
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	return &ScanMembershipsResponse{Items: rows, Total: total}, nil
}
