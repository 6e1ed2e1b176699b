package plugins

import "go.uber.org/fx"

var Module = fx.Module("plugins.runner",
	fx.Provide(NewRegistry),
	fx.Provide(NewRunner),
)
