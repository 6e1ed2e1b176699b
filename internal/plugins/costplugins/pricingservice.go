package costplugins

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/costengine"
	psdomain "github.com/smallbiznis/scrooge/internal/pricingservice/domain"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PricingServiceParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    *config.Config
	Repo      psdomain.Repository
	Catalog   catalogdomain.CatalogService
	Usage     usagedomain.Service
	UsageRepo usagedomain.Repository

	UsageTypePlugin        *UsageTypePlugin
	TeamPlugin             *TeamPlugin
	ExtraCostPlugin        *ExtraCostPlugin
	DynamicExtraCostPlugin *DynamicExtraCostPlugin
	SupportPlugin          *SupportPlugin
}

// PricingServicePlugin resells the total cost of a pricing service to its
// consumers. The total is the sum of base usages, teams, extra costs and
// dependent pricing services accumulated on the service's own environments;
// it is distributed to consuming environments proportionally to their daily
// usage of the service's usage types and the declared percentage split.
// Fixed-price services skip the totalling and charge a flat unit price
// instead.
type PricingServicePlugin struct {
	db                *gorm.DB
	log               *zap.Logger
	epsilon           float64
	firstDepthOnly    bool
	repo              psdomain.Repository
	catalog           catalogdomain.CatalogService
	usage             usagedomain.Service
	usageRepo         usagedomain.Repository
	usageTypePlugin   *UsageTypePlugin
	teamPlugin        *TeamPlugin
	extraCostPlugin   *ExtraCostPlugin
	dynamicCostPlugin *DynamicExtraCostPlugin
	supportPlugin     *SupportPlugin
}

func NewPricingServicePlugin(p PricingServiceParams) *PricingServicePlugin {
	return &PricingServicePlugin{
		db:                p.DB,
		log:               p.Log.Named("costplugins.pricingservice"),
		epsilon:           p.Config.PercentEpsilon,
		firstDepthOnly:    p.Config.SaveOnlyFirstDepthCosts,
		repo:              p.Repo,
		catalog:           p.Catalog,
		usage:             p.Usage,
		usageRepo:         p.UsageRepo,
		usageTypePlugin:   p.UsageTypePlugin,
		teamPlugin:        p.TeamPlugin,
		extraCostPlugin:   p.ExtraCostPlugin,
		dynamicCostPlugin: p.DynamicExtraCostPlugin,
		supportPlugin:     p.SupportPlugin,
	}
}

func (p *PricingServicePlugin) Name() string { return "pricing_service" }

// psRun memoizes per-service results within a single calculation pass so
// shared dependencies are priced once.
type psRun struct {
	date        time.Time
	forecast    bool
	services    map[snowflake.ID]psdomain.PricingService
	distributed map[snowflake.ID]Costs
	visiting    map[snowflake.ID]bool
}

func (p *PricingServicePlugin) Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error) {
	services, err := p.repo.ListActive(ctx, p.db)
	if err != nil {
		return nil, err
	}
	run := &psRun{
		date:        date,
		forecast:    forecast,
		services:    make(map[snowflake.ID]psdomain.PricingService, len(services)),
		distributed: make(map[snowflake.ID]Costs),
		visiting:    make(map[snowflake.ID]bool),
	}
	for _, ps := range services {
		run.services[ps.ID] = ps
	}

	out := make(Costs)
	for _, ps := range services {
		costs, err := p.distribute(ctx, run, ps)
		if err != nil {
			return nil, fmt.Errorf("pricing service %s: %w", ps.Symbol, err)
		}
		out.Merge(costs)
	}
	return out, nil
}

// distribute computes where a pricing service's cost lands, memoized per run.
func (p *PricingServicePlugin) distribute(ctx context.Context, run *psRun, ps psdomain.PricingService) (Costs, error) {
	if costs, ok := run.distributed[ps.ID]; ok {
		return costs, nil
	}
	if run.visiting[ps.ID] {
		return nil, fmt.Errorf("dependency cycle through %s", ps.Symbol)
	}
	run.visiting[ps.ID] = true
	defer delete(run.visiting, ps.ID)

	var costs Costs
	var err error
	if ps.PluginType == psdomain.PluginTypeFixedPrice {
		costs, err = p.fixedPriceCosts(ctx, run, ps)
	} else {
		costs, err = p.universalCosts(ctx, run, ps)
	}
	if err != nil {
		return nil, err
	}
	run.distributed[ps.ID] = costs
	return costs, nil
}

// universalCosts totals the service's own environments and spreads the total
// over its consumers.
func (p *PricingServicePlugin) universalCosts(ctx context.Context, run *psRun, ps psdomain.PricingService) (Costs, error) {
	total, err := p.totalCostItem(ctx, run, ps)
	if err != nil {
		return nil, err
	}

	splits, err := p.repo.UsageTypesCovering(ctx, p.db, ps.ID, run.date)
	if err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return Costs{}, nil
	}
	percents := make([]float64, 0, len(splits))
	for _, split := range splits {
		percents = append(percents, split.Percent)
	}
	if err := costengine.ValidatePercents(ps.Symbol, percents, p.epsilon); err != nil {
		return nil, err
	}

	excluded, err := p.excludedServiceIDs(ctx, ps)
	if err != nil {
		return nil, err
	}

	type usageSlice struct {
		usages  []usagedomain.ServiceEnvironmentUsage
		total   decimal.Decimal
		percent float64
	}
	slices := make([]usageSlice, 0, len(splits))
	for _, split := range splits {
		filter := usagedomain.UsageFilter{
			TypeID:             split.UsageTypeID,
			Date:               &run.date,
			ExcludedServiceIDs: excluded,
		}
		usages, err := p.usageRepo.UsagesPerServiceEnvironment(ctx, p.db, filter)
		if err != nil {
			return nil, err
		}
		totalUsage, err := p.usageRepo.TotalUsage(ctx, p.db, filter)
		if err != nil {
			return nil, err
		}
		slices = append(slices, usageSlice{usages: usages, total: totalUsage, percent: split.Percent})
	}

	singleSplit := len(splits) == 1
	out := make(Costs)
	for _, slice := range slices {
		for _, usage := range slice.usages {
			item := CostItem{
				TypeID:          ps.ID,
				Kind:            costdomain.CostKindPricingService,
				PricingObjectID: usage.PricingObjectID,
			}
			factor := decimal.Zero
			if !slice.total.IsZero() {
				factor = usage.Value.Div(slice.total).Mul(decimal.NewFromFloat(slice.percent / 100))
			}
			item.Cost = total.Cost.Mul(factor)
			if singleSplit {
				item.Value = usage.Value
			}
			if !p.firstDepthOnly {
				item.Children = scaleItems(total.Children, factor)
			}
			out[usage.ServiceEnvironmentID] = append(out[usage.ServiceEnvironmentID], item)
		}
	}
	return out, nil
}

// totalCostItem builds the cost hierarchy of the service's own environments:
// base usages, teams, extra costs, support and dependent services.
func (p *PricingServicePlugin) totalCostItem(ctx context.Context, run *psRun, ps psdomain.PricingService) (CostItem, error) {
	serviceIDs, err := p.repo.ServiceIDs(ctx, p.db, ps.ID)
	if err != nil {
		return CostItem{}, err
	}
	ownSEs, err := p.catalog.ServiceEnvironmentIDs(ctx, serviceIDs)
	if err != nil {
		return CostItem{}, err
	}

	skipBaseTypes, err := p.repo.ExcludedBaseUsageTypeIDs(ctx, p.db, ps.ID)
	if err != nil {
		return CostItem{}, err
	}

	var components []CostItem
	baseItems, err := p.usageTypePlugin.TotalCostsFor(ctx, run.date, run.forecast, ownSEs, skipBaseTypes)
	if err != nil {
		return CostItem{}, err
	}
	components = append(components, baseItems...)

	for _, totaler := range []interface {
		TotalCostsFor(context.Context, time.Time, bool, []snowflake.ID) ([]CostItem, error)
	}{p.teamPlugin, p.extraCostPlugin, p.dynamicCostPlugin, p.supportPlugin} {
		items, err := totaler.TotalCostsFor(ctx, run.date, run.forecast, ownSEs)
		if err != nil {
			return CostItem{}, err
		}
		components = append(components, items...)
	}

	dependentItems, err := p.dependentCosts(ctx, run, ps, ownSEs)
	if err != nil {
		return CostItem{}, err
	}
	components = append(components, dependentItems...)

	return CostItem{
		TypeID:   ps.ID,
		Kind:     costdomain.CostKindPricingService,
		Cost:     SumItems(components),
		Children: components,
	}, nil
}

// dependentCosts sums what other pricing services charged this service's
// environments on the date.
func (p *PricingServicePlugin) dependentCosts(ctx context.Context, run *psRun, ps psdomain.PricingService, ownSEs []snowflake.ID) ([]CostItem, error) {
	exclude := []snowflake.ID{ps.ID}
	for id := range run.visiting {
		if id != ps.ID {
			exclude = append(exclude, id)
		}
	}
	dependentIDs, err := p.repo.DependentPricingServiceIDs(ctx, p.db, ps.ID, run.date, exclude)
	if err != nil {
		return nil, err
	}

	var items []CostItem
	for _, depID := range dependentIDs {
		dep, ok := run.services[depID]
		if !ok {
			continue
		}
		depCosts, err := p.distribute(ctx, run, dep)
		if err != nil {
			return nil, err
		}
		totals := TotalsFor(depCosts, ownSEs)
		if len(totals) == 0 {
			continue
		}
		items = append(items, totals...)
	}
	return items, nil
}

// fixedPriceCosts charges consumers of the service's usage types a flat unit
// price, like a plain usage type.
func (p *PricingServicePlugin) fixedPriceCosts(ctx context.Context, run *psRun, ps psdomain.PricingService) (Costs, error) {
	splits, err := p.repo.UsageTypesCovering(ctx, p.db, ps.ID, run.date)
	if err != nil {
		return nil, err
	}
	excluded, err := p.excludedServiceIDs(ctx, ps)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, split := range splits {
		price, err := p.usage.PriceForDate(ctx, split.UsageTypeID, run.date, nil)
		if err != nil {
			return nil, err
		}
		usages, err := p.usageRepo.UsagesPerServiceEnvironment(ctx, p.db, usagedomain.UsageFilter{
			TypeID:             split.UsageTypeID,
			Date:               &run.date,
			ExcludedServiceIDs: excluded,
		})
		if err != nil {
			return nil, err
		}
		for _, usage := range usages {
			item := CostItem{
				TypeID:          ps.ID,
				Kind:            costdomain.CostKindPricingService,
				Cost:            usage.Value.Mul(price.EffectivePrice(run.forecast)),
				Value:           usage.Value,
				PricingObjectID: usage.PricingObjectID,
			}
			out[usage.ServiceEnvironmentID] = append(out[usage.ServiceEnvironmentID], item)
		}
	}
	return out, nil
}

// excludedServiceIDs is the union of manual exclusions and the service's own
// services, which it must never charge.
func (p *PricingServicePlugin) excludedServiceIDs(ctx context.Context, ps psdomain.PricingService) ([]snowflake.ID, error) {
	manual, err := p.repo.ExcludedServiceIDs(ctx, p.db, ps.ID)
	if err != nil {
		return nil, err
	}
	own, err := p.repo.ServiceIDs(ctx, p.db, ps.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[snowflake.ID]struct{}, len(manual)+len(own))
	var out []snowflake.ID
	for _, id := range append(manual, own...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func scaleItems(items []CostItem, factor decimal.Decimal) []CostItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]CostItem, len(items))
	for i, item := range items {
		scaled := item
		scaled.Cost = item.Cost.Mul(factor)
		scaled.Value = decimal.Zero
		scaled.PricingObjectID = nil
		scaled.Children = scaleItems(item.Children, factor)
		out[i] = scaled
	}
	return out
}
