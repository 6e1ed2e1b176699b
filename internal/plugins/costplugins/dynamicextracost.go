package costplugins

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/costengine"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DynamicExtraCostParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    *config.Config
	Repo      extracostdomain.Repository
	UsageRepo usagedomain.Repository
}

// DynamicExtraCostPlugin amortizes dynamic extra costs and distributes the
// daily total along the type's percentage division: each division slice goes
// to service environments proportionally to their usage of the division's
// usage type on that date.
type DynamicExtraCostPlugin struct {
	db        *gorm.DB
	log       *zap.Logger
	epsilon   float64
	repo      extracostdomain.Repository
	usageRepo usagedomain.Repository
}

func NewDynamicExtraCostPlugin(p DynamicExtraCostParams) *DynamicExtraCostPlugin {
	return &DynamicExtraCostPlugin{
		db:        p.DB,
		log:       p.Log.Named("costplugins.dynamicextracost"),
		epsilon:   p.Config.PercentEpsilon,
		repo:      p.Repo,
		usageRepo: p.UsageRepo,
	}
}

func (p *DynamicExtraCostPlugin) Name() string { return "dynamic_extra_cost" }

func (p *DynamicExtraCostPlugin) Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error) {
	types, err := p.repo.ListDynamicExtraCostTypes(ctx, p.db)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, dect := range types {
		costs, err := p.costsOfType(ctx, dect, date, forecast)
		if err != nil {
			return nil, err
		}
		out.Merge(costs)
	}
	return out, nil
}

// TotalCostsFor sums dynamic extra costs charged to an environment subset.
func (p *DynamicExtraCostPlugin) TotalCostsFor(ctx context.Context, date time.Time, forecast bool, serviceEnvironmentIDs []snowflake.ID) ([]CostItem, error) {
	costs, err := p.Costs(ctx, date, forecast)
	if err != nil {
		return nil, err
	}
	return TotalsFor(costs, serviceEnvironmentIDs), nil
}

func (p *DynamicExtraCostPlugin) costsOfType(ctx context.Context, dect extracostdomain.DynamicExtraCostType, date time.Time, forecast bool) (Costs, error) {
	records, err := p.repo.DynamicExtraCostsActive(ctx, p.db, dect.ID, date)
	if err != nil {
		return nil, err
	}
	daily := decimal.Zero
	for _, record := range records {
		daily = daily.Add(costengine.DailyRate(record.EffectiveCost(forecast), record.Start, record.End))
	}
	if daily.IsZero() {
		return Costs{}, nil
	}

	divisions, err := p.repo.DivisionsFor(ctx, p.db, dect.ID)
	if err != nil {
		return nil, err
	}
	percents := make([]float64, 0, len(divisions))
	for _, division := range divisions {
		percents = append(percents, division.Percent)
	}
	if err := costengine.ValidatePercents(dect.Name, percents, p.epsilon); err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, division := range divisions {
		slice := costengine.Share(daily, division.Percent)
		filter := usagedomain.UsageFilter{TypeID: division.UsageTypeID, Date: &date}
		total, err := p.usageRepo.TotalUsage(ctx, p.db, filter)
		if err != nil {
			return nil, err
		}
		usages, err := p.usageRepo.UsagesPerServiceEnvironment(ctx, p.db, filter)
		if err != nil {
			return nil, err
		}
		for _, usage := range usages {
			item := CostItem{
				TypeID: dect.ID,
				Kind:   costdomain.CostKindDynamicExtraCost,
				Cost:   costengine.Proportion(slice, usage.Value, total),
			}
			out[usage.ServiceEnvironmentID] = append(out[usage.ServiceEnvironmentID], item)
		}
	}
	return out, nil
}
