package contentrule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	models "github.com/fatflowers/membership/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ContentRule{}))
	return db
}

func newTestService(t *testing.T) *Service {
	return NewService(setupTestDB(t), zap.NewNop().Sugar())
}

func TestSyncByContent_ReplacesRuleSet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SyncByContent(ctx, "post-1", "post", []string{"plan-a", "plan-b", "plan-a", ""}))

	ids, err := svc.PlanIDsByContent(ctx, "post-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"plan-a", "plan-b"}, ids)

	require.NoError(t, svc.SyncByContent(ctx, "post-1", "post", []string{"plan-c"}))
	ids, err = svc.PlanIDsByContent(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-c"}, ids)

	// empty set lifts the restriction entirely
	require.NoError(t, svc.SyncByContent(ctx, "post-1", "post", nil))
	restricted, err := svc.IsRestricted(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, restricted)
}

func TestSyncByPlan_ReplacesPlanRules(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SyncByPlan(ctx, "plan-a", "post", []string{"post-1", "post-2"}))
	require.NoError(t, svc.SyncByContent(ctx, "post-3", "post", []string{"plan-b"}))

	rules, err := svc.ByPlan(ctx, "plan-a")
	require.NoError(t, err)
	require.Len(t, rules, 2)

	require.NoError(t, svc.SyncByPlan(ctx, "plan-a", "post", []string{"post-9"}))
	rules, err = svc.ByPlan(ctx, "plan-a")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "post-9", rules[0].ContentID)

	// other plans' rules untouched
	restricted, err := svc.IsRestricted(ctx, "post-3")
	require.NoError(t, err)
	assert.True(t, restricted)
}

func TestPlanIDsByContent_RuleCreationOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	rows := []*models.ContentRule{
		{ID: "r2", ContentID: "post-1", ContentType: "post", PlanID: "plan-b", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "r1", ContentID: "post-1", ContentType: "post", PlanID: "plan-a", CreatedAt: base.Add(time.Minute)},
		{ID: "r3", ContentID: "post-1", ContentType: "post", PlanID: "plan-c", CreatedAt: base.Add(3 * time.Minute)},
	}
	require.NoError(t, svc.db.Create(rows).Error)

	ids, err := svc.PlanIDsByContent(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-a", "plan-b", "plan-c"}, ids)
}

func TestPlanIDsByContent_UnknownContentIsOpen(t *testing.T) {
	svc := newTestService(t)
	ids, err := svc.PlanIDsByContent(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRemoveByContentAndPlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SyncByContent(ctx, "post-1", "post", []string{"plan-a", "plan-b"}))
	require.NoError(t, svc.SyncByContent(ctx, "post-2", "post", []string{"plan-a"}))

	require.NoError(t, svc.RemoveByContent(ctx, "post-1"))
	restricted, err := svc.IsRestricted(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, restricted)

	require.NoError(t, svc.RemoveByPlan(ctx, "plan-a"))
	restricted, err = svc.IsRestricted(ctx, "post-2")
	require.NoError(t, err)
	assert.False(t, restricted)
}
