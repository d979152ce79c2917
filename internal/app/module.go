package app

import (
	"time"

	"github.com/fatflowers/membership/internal/app/api/server"
	"github.com/fatflowers/membership/internal/app/service/access"
	"github.com/fatflowers/membership/internal/app/service/commerce"
	"github.com/fatflowers/membership/internal/app/service/contentrule"
	"github.com/fatflowers/membership/internal/app/service/eventlog"
	membershipsvc "github.com/fatflowers/membership/internal/app/service/membership"
	"github.com/fatflowers/membership/internal/app/service/plan"
	"github.com/fatflowers/membership/internal/app/service/stats"
	"github.com/fatflowers/membership/internal/app/service/sweeper"
	"github.com/fatflowers/membership/internal/platform/db"
	"github.com/fatflowers/membership/pkg/config"
	"github.com/fatflowers/membership/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	plan.Module,
	contentrule.Module,
	membershipsvc.Module,
	access.Module,
	eventlog.Module,
	commerce.Module,
	sweeper.Module,
	stats.Module,
)
