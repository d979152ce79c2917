package membership

import "go.uber.org/fx"

// Module exposes the membership lifecycle engine and its event bus via Fx.
var Module = fx.Options(
	fx.Provide(NewBus),
	fx.Provide(NewService),
)
