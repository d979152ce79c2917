package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/tool"
	types "github.com/fatflowers/membership/pkg/types"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service computes membership statistics for admin dashboards and writes
// the daily per-plan snapshots.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type PlanCount struct {
	PlanID string `json:"plan_id"`
	Count  int64  `json:"count"`
}

type Overview struct {
	Total        int64                            `json:"total"`
	ByStatus     map[types.MembershipStatus]int64 `json:"by_status"`
	ActiveByPlan []PlanCount                      `json:"active_by_plan"`
}

// Overview returns ledger-wide counts: total rows, rows per status, and
// currently active members per plan.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	o := &Overview{ByStatus: make(map[types.MembershipStatus]int64)}

	if err := s.db.WithContext(ctx).Model(&models.Membership{}).Count(&o.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count memberships: %w", err)
	}

	type statusRow struct {
		Status types.MembershipStatus
		Count  int64
	}
	var statusRows []statusRow
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	for _, r := range statusRows {
		o.ByStatus[r.Status] = r.Count
	}

	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Select("plan_id, COUNT(*) AS count").
		Where("status = ? AND (end_date IS NULL OR end_date > ?)", types.MembershipStatusActive, time.Now()).
		Group("plan_id").
		Order("count DESC").
		Scan(&o.ActiveByPlan).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active by plan: %w", err)
	}

	return o, nil
}

type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// DailyNew returns per-day new membership counts over [from, to]. Bucketing
// happens in Go so day boundaries follow the timestamps' own locations.
func (s *Service) DailyNew(ctx context.Context, from, to time.Time) ([]DailyCount, error) {
	var createdAts []time.Time
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("created_at BETWEEN ? AND ?", from, to).
		Pluck("created_at", &createdAts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count daily new memberships: %w", err)
	}

	counts := lo.CountValuesBy(createdAts, func(ts time.Time) time.Time {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	})
	rows := make([]DailyCount, 0, len(counts))
	for day, count := range counts {
		rows = append(rows, DailyCount{Day: day, Count: int64(count)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })
	return rows, nil
}

// SnapshotDaily upserts one row per plan for the given day with its active
// and newly created membership counts.
func (s *Service) SnapshotDaily(ctx context.Context, day time.Time) error {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var active []PlanCount
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Select("plan_id, COUNT(*) AS count").
		Where("status = ? AND (end_date IS NULL OR end_date > ?)", types.MembershipStatusActive, dayEnd).
		Group("plan_id").
		Scan(&active).Error
	if err != nil {
		return fmt.Errorf("failed to compute active counts: %w", err)
	}

	var created []PlanCount
	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Select("plan_id, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Group("plan_id").
		Scan(&created).Error
	if err != nil {
		return fmt.Errorf("failed to compute new counts: %w", err)
	}
	newByPlan := make(map[string]int64, len(created))
	for _, c := range created {
		newByPlan[c.PlanID] = c.Count
	}

	for _, a := range active {
		snapshot := &models.MembershipDailySnapshot{
			ID:          tool.GenerateUUIDV7(),
			Day:         dayStart,
			PlanID:      a.PlanID,
			ActiveCount: a.Count,
			NewCount:    newByPlan[a.PlanID],
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}, {Name: "plan_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"active_count", "new_count", "updated_at"}),
		}).Create(snapshot).Error
		if err != nil {
			return fmt.Errorf("failed to upsert snapshot: %w", err)
		}
	}

	s.log.Infow("membership_snapshot_written", "day", dayStart.Format("2006-01-02"), "plans", len(active))
	return nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
