package collect

import (
	"github.com/smallbiznis/scrooge/internal/plugins"
	"go.uber.org/fx"
)

// Plugin names on the collect chain.
const (
	PluginServices  = "services"
	PluginUsages    = "usages"
	PluginSupport   = "support"
	PluginExtraCost = "extra_cost"
)

var Module = fx.Module("plugins.collect",
	fx.Provide(
		NewServicesPlugin,
		NewUsagesPlugin,
		NewSupportPlugin,
		NewExtraCostImprintPlugin,
	),
	fx.Invoke(registerPlugins),
)

func registerPlugins(
	registry *plugins.Registry,
	services *ServicesPlugin,
	usages *UsagesPlugin,
	support *SupportPlugin,
	extraCost *ExtraCostImprintPlugin,
) {
	// services first so everything downstream can resolve environments
	registry.Register(plugins.ChainCollect, PluginServices, services,
		plugins.WithPriority(200))
	registry.Register(plugins.ChainCollect, PluginUsages, usages,
		plugins.WithRequires(PluginServices))
	registry.Register(plugins.ChainCollect, PluginSupport, support,
		plugins.WithRequires(PluginServices))
	registry.Register(plugins.ChainCollect, PluginExtraCost, extraCost)
}
