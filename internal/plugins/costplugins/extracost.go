package costplugins

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/costengine"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExtraCostParams struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo extracostdomain.Repository
}

// ExtraCostPlugin charges static extra costs to their service environments.
// Range records amortize the total over the record's inclusive range;
// monthly records amortize over the calendar month of the processing date.
type ExtraCostPlugin struct {
	db   *gorm.DB
	log  *zap.Logger
	repo extracostdomain.Repository
}

func NewExtraCostPlugin(p ExtraCostParams) *ExtraCostPlugin {
	return &ExtraCostPlugin{
		db:   p.DB,
		log:  p.Log.Named("costplugins.extracost"),
		repo: p.Repo,
	}
}

func (p *ExtraCostPlugin) Name() string { return "extra_cost" }

func (p *ExtraCostPlugin) Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error) {
	types, err := p.repo.ListExtraCostTypes(ctx, p.db)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, ect := range types {
		records, err := p.repo.ExtraCostsActive(ctx, p.db, ect.ID, date)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			daily := dailyExtraCost(record, date, forecast)
			item := CostItem{
				TypeID: ect.ID,
				Kind:   costdomain.CostKindExtraCost,
				Cost:   daily,
			}
			out[record.ServiceEnvironmentID] = append(out[record.ServiceEnvironmentID], item)
		}
	}
	return out, nil
}

// TotalCostsFor sums extra costs charged to a service environment subset.
func (p *ExtraCostPlugin) TotalCostsFor(ctx context.Context, date time.Time, forecast bool, serviceEnvironmentIDs []snowflake.ID) ([]CostItem, error) {
	costs, err := p.Costs(ctx, date, forecast)
	if err != nil {
		return nil, err
	}
	return TotalsFor(costs, serviceEnvironmentIDs), nil
}

func dailyExtraCost(record extracostdomain.ExtraCost, date time.Time, forecast bool) decimal.Decimal {
	total := record.EffectiveCost(forecast)
	if record.Mode == extracostdomain.ExtraCostModeMonthly {
		return costengine.MonthlyRate(total, date)
	}
	return costengine.DailyRate(total, record.Start, record.End)
}
