package costplugins

import "go.uber.org/fx"

// Module provides the cost chain plugins, both as concrete types (the
// pricing service plugin totals through its peers) and as a value group the
// collector iterates.
var Module = fx.Module("plugins.cost",
	fx.Provide(
		NewUsageTypePlugin,
		NewExtraCostPlugin,
		NewDynamicExtraCostPlugin,
		NewTeamPlugin,
		NewSupportPlugin,
		NewPricingServicePlugin,
	),
	fx.Provide(
		asCostPlugin(func(p *UsageTypePlugin) CostPlugin { return p }),
		asCostPlugin(func(p *ExtraCostPlugin) CostPlugin { return p }),
		asCostPlugin(func(p *DynamicExtraCostPlugin) CostPlugin { return p }),
		asCostPlugin(func(p *TeamPlugin) CostPlugin { return p }),
		asCostPlugin(func(p *SupportPlugin) CostPlugin { return p }),
		asCostPlugin(func(p *PricingServicePlugin) CostPlugin { return p }),
	),
)

func asCostPlugin(constructor any) any {
	return fx.Annotate(constructor, fx.ResultTags(`group:"costplugins"`))
}
