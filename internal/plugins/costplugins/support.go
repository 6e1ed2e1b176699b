package costplugins

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/costengine"
	supportdomain "github.com/smallbiznis/scrooge/internal/support/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SupportParams struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo supportdomain.Repository
}

// SupportPlugin amortizes support contract costs over their validity range
// and charges them to the service environment owning each covered pricing
// object.
type SupportPlugin struct {
	db   *gorm.DB
	log  *zap.Logger
	repo supportdomain.Repository
}

func NewSupportPlugin(p SupportParams) *SupportPlugin {
	return &SupportPlugin{
		db:   p.DB,
		log:  p.Log.Named("costplugins.support"),
		repo: p.Repo,
	}
}

func (p *SupportPlugin) Name() string { return "support" }

func (p *SupportPlugin) Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error) {
	rows, err := p.repo.ListCovering(ctx, p.db, date)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, row := range rows {
		pricingObjectID := row.PricingObjectID
		item := CostItem{
			TypeID:          row.ExtraCostTypeID,
			Kind:            costdomain.CostKindSupport,
			Cost:            costengine.DailyRate(row.EffectiveCost(forecast), row.Start, row.End),
			PricingObjectID: &pricingObjectID,
		}
		out[row.ServiceEnvironmentID] = append(out[row.ServiceEnvironmentID], item)
	}
	return out, nil
}

// TotalCostsFor sums support costs charged to a service environment subset.
func (p *SupportPlugin) TotalCostsFor(ctx context.Context, date time.Time, forecast bool, serviceEnvironmentIDs []snowflake.ID) ([]CostItem, error) {
	costs, err := p.Costs(ctx, date, forecast)
	if err != nil {
		return nil, err
	}
	return TotalsFor(costs, serviceEnvironmentIDs), nil
}
