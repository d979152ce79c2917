package sweeper

import (
	"context"
	"time"

	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	"github.com/fatflowers/membership/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sweeper periodically finds lapsed memberships and expires them through the
// lifecycle engine.
type Sweeper struct {
	cfg    *config.Config
	ledger *membershipsvc.Service
	log    *zap.SugaredLogger
	stop   chan struct{}
}

func New(cfg *config.Config, ledger *membershipsvc.Service, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{cfg: cfg, ledger: ledger, log: log, stop: make(chan struct{})}
}

// RunOnce performs a single sweep. A failure on one membership is logged and
// the rest of the batch continues; failed items wait for the next run.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	lapsed, err := s.ledger.ListLapsed(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, m := range lapsed {
		ok, err := s.ledger.Expire(ctx, m.ID)
		if err != nil {
			s.log.Errorw("sweep_expire_failed", "membership_id", m.ID, "err", err)
			continue
		}
		if ok {
			expired++
		}
	}

	if len(lapsed) > 0 {
		s.log.Infow("sweep_completed", "lapsed", len(lapsed), "expired", expired)
	}
	return expired, nil
}

func (s *Sweeper) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(context.Background()); err != nil {
				s.log.Errorw("sweep_failed", "err", err)
			}
		case <-s.stop:
			return
		}
	}
}

func run(lc fx.Lifecycle, s *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !s.cfg.Features.ExpirationCheckEnabled {
				s.log.Infow("expiration sweeper disabled")
				return nil
			}
			interval := s.cfg.SweepInterval
			if interval <= 0 {
				interval = 24 * time.Hour
			}
			s.log.Infow("expiration sweeper started", "interval", interval)
			go s.loop(interval)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(s.stop)
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(run),
)
