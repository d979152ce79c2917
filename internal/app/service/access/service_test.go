package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	contentrulesvc "github.com/fatflowers/membership/internal/app/service/contentrule"
	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	plansvc "github.com/fatflowers/membership/internal/app/service/plan"
	models "github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/config"
	types "github.com/fatflowers/membership/pkg/types"
)

type allowlistAdmins map[string]bool

func (a allowlistAdmins) IsAdmin(_ context.Context, userID string) bool { return a[userID] }

type accessFixture struct {
	db  *gorm.DB
	svc *Service
}

func setupAccess(t *testing.T, admins AdminChecker) *accessFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Plan{}, &models.PlanProduct{}, &models.ContentRule{}, &models.Membership{}))

	log := zap.NewNop().Sugar()
	cfg := &config.Config{}
	plans := plansvc.NewService(cfg, db, log)
	rules := contentrulesvc.NewService(db, log)
	ledger := membershipsvc.NewService(cfg, db, log, plans, membershipsvc.NewBus())
	if admins == nil {
		admins = NewNoAdmins()
	}
	return &accessFixture{db: db, svc: NewService(rules, ledger, admins, log)}
}

func (f *accessFixture) restrict(t *testing.T, contentID string, planIDs ...string) {
	// rule order matters for reason evaluation, so space the timestamps out
	base := time.Now().Add(-time.Hour)
	for i, planID := range planIDs {
		require.NoError(t, f.db.Create(&models.ContentRule{
			ID:          contentID + "/" + planID,
			ContentID:   contentID,
			ContentType: "post",
			PlanID:      planID,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
}

func (f *accessFixture) addMembership(t *testing.T, id, userID, planID string, status types.MembershipStatus, endDate *time.Time) {
	require.NoError(t, f.db.Create(&models.Membership{
		ID:        id,
		UserID:    userID,
		PlanID:    planID,
		Status:    status,
		StartDate: time.Now().AddDate(0, -1, 0),
		EndDate:   endDate,
	}).Error)
}

func TestCanAccess(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	ctx := context.Background()

	t.Run("unrestricted content is open to everyone", func(t *testing.T) {
		f := setupAccess(t, nil)
		ok, err := f.svc.CanAccess(ctx, "post-1", "")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = f.svc.CanAccess(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("anonymous user denied on restricted content", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		ok, err := f.svc.CanAccess(ctx, "post-1", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("any one restricting plan grants access", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a", "plan-b")
		f.addMembership(t, "m1", "u1", "plan-b", types.MembershipStatusActive, &future)
		ok, err := f.svc.CanAccess(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("active status past end date does not grant", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusActive, &past)
		ok, err := f.svc.CanAccess(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("paused membership does not grant", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusPaused, &future)
		ok, err := f.svc.CanAccess(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin bypasses restrictions", func(t *testing.T) {
		f := setupAccess(t, allowlistAdmins{"root": true})
		f.restrict(t, "post-1", "plan-a")
		ok, err := f.svc.CanAccess(ctx, "post-1", "root")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRestrictionReason(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	ctx := context.Background()

	t.Run("open content", func(t *testing.T) {
		f := setupAccess(t, nil)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNone, reason)
	})

	t.Run("anonymous", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNotLoggedIn, reason)
	})

	t.Run("active membership allows", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusActive, &future)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNone, reason)
	})

	t.Run("never held any plan", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a", "plan-b")
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNoAccess, reason)
	})

	t.Run("expired by status", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusExpired, &past)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonExpired, reason)
	})

	t.Run("expired by date before the sweeper ran", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusActive, &past)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonExpired, reason)
	})

	t.Run("paused", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusPaused, &future)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonPaused, reason)
	})

	t.Run("paused wins over expired regardless of rule order", func(t *testing.T) {
		f := setupAccess(t, nil)
		// expired plan comes first in rule order, paused plan second
		f.restrict(t, "post-1", "plan-expired", "plan-paused")
		f.addMembership(t, "m1", "u1", "plan-expired", types.MembershipStatusExpired, &past)
		f.addMembership(t, "m2", "u1", "plan-paused", types.MembershipStatusPaused, &future)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonPaused, reason)
	})

	t.Run("active on a later-ordered plan overrides paused on an earlier one", func(t *testing.T) {
		f := setupAccess(t, nil)
		// paused plan comes first in rule order, but any active membership
		// across the restricting plans means access, so the reason is none
		f.restrict(t, "post-1", "plan-paused", "plan-active")
		f.addMembership(t, "m1", "u1", "plan-paused", types.MembershipStatusPaused, &future)
		f.addMembership(t, "m2", "u1", "plan-active", types.MembershipStatusActive, &future)

		ok, err := f.svc.CanAccess(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNone, reason)
	})

	t.Run("cancelled reads as no access", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusCancelled, &future)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNoAccess, reason)
	})

	t.Run("rule pointing at a deleted plan is skipped", func(t *testing.T) {
		f := setupAccess(t, nil)
		f.restrict(t, "post-1", "plan-gone", "plan-a")
		f.addMembership(t, "m1", "u1", "plan-a", types.MembershipStatusActive, &future)
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNone, reason)
	})

	t.Run("admin bypass", func(t *testing.T) {
		f := setupAccess(t, allowlistAdmins{"root": true})
		f.restrict(t, "post-1", "plan-a")
		reason, err := f.svc.RestrictionReason(ctx, "post-1", "root")
		require.NoError(t, err)
		assert.Equal(t, types.ReasonNone, reason)
	})
}

func TestRequiredPlansAndIsRestricted(t *testing.T) {
	f := setupAccess(t, nil)
	ctx := context.Background()
	f.restrict(t, "post-1", "plan-a", "plan-b")

	plans, err := f.svc.RequiredPlans(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-a", "plan-b"}, plans)

	restricted, err := f.svc.IsRestricted(ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, restricted)

	restricted, err = f.svc.IsRestricted(ctx, "post-2")
	require.NoError(t, err)
	assert.False(t, restricted)
}
