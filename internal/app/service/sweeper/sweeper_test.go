package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	plansvc "github.com/fatflowers/membership/internal/app/service/plan"
	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/config"
	types "github.com/fatflowers/membership/pkg/types"
)

func setupSweeper(t *testing.T) (*Sweeper, *gorm.DB, *membershipsvc.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Plan{}, &models.Membership{}))

	log := zap.NewNop().Sugar()
	cfg := &config.Config{}
	plans := plansvc.NewService(cfg, db, log)
	ledger := membershipsvc.NewService(cfg, db, log, plans, membershipsvc.NewBus())
	return New(cfg, ledger, log), db, ledger
}

func TestRunOnce_ExpiresLapsedMemberships(t *testing.T) {
	s, db, ledger := setupSweeper(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	rows := []*models.Membership{
		{ID: "lapsed-1", UserID: "u1", PlanID: "p1", Status: types.MembershipStatusActive, StartDate: time.Now(), EndDate: &past},
		{ID: "lapsed-2", UserID: "u2", PlanID: "p1", Status: types.MembershipStatusActive, StartDate: time.Now(), EndDate: &past},
		{ID: "current", UserID: "u3", PlanID: "p1", Status: types.MembershipStatusActive, StartDate: time.Now(), EndDate: &future},
		{ID: "lifetime", UserID: "u4", PlanID: "p1", Status: types.MembershipStatusActive, StartDate: time.Now()},
	}
	require.NoError(t, db.Create(rows).Error)

	expired, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	for _, id := range []string{"lapsed-1", "lapsed-2"} {
		m, err := ledger.ByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.MembershipStatusExpired, m.Status)
	}
	for _, id := range []string{"current", "lifetime"} {
		m, err := ledger.ByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.MembershipStatusActive, m.Status)
	}

	// nothing left for the next sweep
	expired, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestRunOnce_EmptyLedger(t *testing.T) {
	s, _, _ := setupSweeper(t)
	expired, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}
