package costplugins

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/costengine"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UsageTypeParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  usagedomain.Repository
	Usage usagedomain.Service
}

// UsageTypePlugin prices every active base usage type: daily usage value
// times the unit price valid on the date. By-cost types derive the unit
// price from the price record's total cost over the total usage of its
// range; by-warehouse types run once per warehouse.
type UsageTypePlugin struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  usagedomain.Repository
	usage usagedomain.Service
}

func NewUsageTypePlugin(p UsageTypeParams) *UsageTypePlugin {
	return &UsageTypePlugin{
		db:    p.DB,
		log:   p.Log.Named("costplugins.usagetype"),
		repo:  p.Repo,
		usage: p.Usage,
	}
}

func (p *UsageTypePlugin) Name() string { return "usage_type" }

func (p *UsageTypePlugin) Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error) {
	types, err := p.repo.ListUsageTypes(ctx, p.db, usagedomain.UsageTypeKindBase, true)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, ut := range types {
		costs, err := p.costsOfType(ctx, ut, date, forecast, nil)
		if err != nil {
			return nil, fmt.Errorf("usage type %s: %w", ut.Symbol, err)
		}
		out.Merge(costs)
	}
	return out, nil
}

// TotalCostsFor prices the base usage types for a subset of service
// environments, skipping the given usage types. Used when totalling a
// pricing service's own environments.
func (p *UsageTypePlugin) TotalCostsFor(ctx context.Context, date time.Time, forecast bool, serviceEnvironmentIDs []snowflake.ID, skipTypeIDs []snowflake.ID) ([]CostItem, error) {
	types, err := p.repo.ListUsageTypes(ctx, p.db, usagedomain.UsageTypeKindBase, true)
	if err != nil {
		return nil, err
	}
	skip := make(map[snowflake.ID]struct{}, len(skipTypeIDs))
	for _, id := range skipTypeIDs {
		skip[id] = struct{}{}
	}

	var items []CostItem
	for _, ut := range types {
		if _, ok := skip[ut.ID]; ok {
			continue
		}
		costs, err := p.costsOfType(ctx, ut, date, forecast, serviceEnvironmentIDs)
		if err != nil {
			return nil, fmt.Errorf("usage type %s: %w", ut.Symbol, err)
		}
		for _, item := range TotalsFor(costs, serviceEnvironmentIDs) {
			if !item.Cost.IsZero() {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func (p *UsageTypePlugin) costsOfType(ctx context.Context, ut usagedomain.UsageType, date time.Time, forecast bool, serviceEnvironmentIDs []snowflake.ID) (Costs, error) {
	excluded, err := p.repo.ExcludedServiceIDs(ctx, p.db, ut.ID)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	if ut.ByWarehouse {
		warehouses, err := p.repo.ListWarehouses(ctx, p.db, false)
		if err != nil {
			return nil, err
		}
		for _, warehouse := range warehouses {
			warehouseID := warehouse.ID
			costs, err := p.costsOfSlice(ctx, ut, date, forecast, &warehouseID, excluded, serviceEnvironmentIDs)
			if err != nil {
				return nil, err
			}
			out.Merge(costs)
		}
		return out, nil
	}
	return p.costsOfSlice(ctx, ut, date, forecast, nil, excluded, serviceEnvironmentIDs)
}

func (p *UsageTypePlugin) costsOfSlice(ctx context.Context, ut usagedomain.UsageType, date time.Time, forecast bool, warehouseID *snowflake.ID, excludedServiceIDs, serviceEnvironmentIDs []snowflake.ID) (Costs, error) {
	filter := usagedomain.UsageFilter{
		TypeID:                ut.ID,
		Date:                  &date,
		WarehouseID:           warehouseID,
		ExcludedServiceIDs:    excludedServiceIDs,
		ServiceEnvironmentIDs: serviceEnvironmentIDs,
	}
	usages, err := p.repo.UsagesPerServiceEnvironment(ctx, p.db, filter)
	if err != nil {
		return nil, err
	}
	if len(usages) == 0 {
		return Costs{}, nil
	}

	unitPrice, err := p.unitPrice(ctx, ut, date, forecast, warehouseID, excludedServiceIDs)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, usage := range usages {
		item := CostItem{
			TypeID:          ut.ID,
			Kind:            costdomain.CostKindUsageType,
			Cost:            usage.Value.Mul(unitPrice),
			Value:           usage.Value,
			PricingObjectID: usage.PricingObjectID,
			WarehouseID:     warehouseID,
		}
		out[usage.ServiceEnvironmentID] = append(out[usage.ServiceEnvironmentID], item)
	}
	return out, nil
}

func (p *UsageTypePlugin) unitPrice(ctx context.Context, ut usagedomain.UsageType, date time.Time, forecast bool, warehouseID *snowflake.ID, excludedServiceIDs []snowflake.ID) (decimal.Decimal, error) {
	price, err := p.usage.PriceForDate(ctx, ut.ID, date, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	if !ut.ByCost {
		return price.EffectivePrice(forecast), nil
	}

	// by-cost types spread the range's total cost over the range's usage
	total, err := p.repo.TotalUsage(ctx, p.db, usagedomain.UsageFilter{
		TypeID:             ut.ID,
		Start:              &price.Start,
		End:                &price.End,
		WarehouseID:        warehouseID,
		ExcludedServiceIDs: excludedServiceIDs,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return costengine.UnitPriceFromCost(price.EffectiveCost(forecast), total), nil
}
