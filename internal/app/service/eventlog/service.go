package eventlog

import (
	"context"

	"github.com/fatflowers/membership/internal/models"
	"github.com/fatflowers/membership/pkg/logctx"
	"github.com/fatflowers/membership/pkg/tool"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a commerce event log entry. Nil input is
// ignored; persistence failures are logged, never surfaced to the caller.
// The entry is copied before the write goroutine starts, so callers may keep
// mutating it for a later Save.
func (s *Service) Save(ctx context.Context, entry *models.CommerceEventLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	snapshot := *entry
	go func() {
		if err := s.db.Save(&snapshot).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save commerce event log: %v", err)
		}
	}()
}

var Module = fx.Options(
	fx.Provide(New),
)
