package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) FindUsageTypeBySymbol(ctx context.Context, db *gorm.DB, symbol string) (*usagedomain.UsageType, error) {
	var ut usagedomain.UsageType
	err := db.WithContext(ctx).Raw(
		`SELECT id, symbol, name, kind, by_cost, by_warehouse, divide_by, rounding, allow_no_daily_usage, active
		 FROM usage_types WHERE symbol = ?`,
		symbol,
	).Scan(&ut).Error
	if err != nil {
		return nil, err
	}
	if ut.ID == 0 {
		return nil, nil
	}
	return &ut, nil
}

func (r *repo) ListUsageTypes(ctx context.Context, db *gorm.DB, kind usagedomain.UsageTypeKind, activeOnly bool) ([]usagedomain.UsageType, error) {
	query := db.WithContext(ctx).Table("usage_types")
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if activeOnly {
		query = query.Where("active")
	}
	var types []usagedomain.UsageType
	if err := query.Order("symbol ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repo) InsertUsageType(ctx context.Context, db *gorm.DB, ut *usagedomain.UsageType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO usage_types (id, symbol, name, kind, by_cost, by_warehouse, divide_by, rounding, allow_no_daily_usage, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ut.ID,
		ut.Symbol,
		ut.Name,
		ut.Kind,
		ut.ByCost,
		ut.ByWarehouse,
		ut.DivideBy,
		ut.Rounding,
		ut.AllowNoDailyUsage,
		ut.Active,
	).Error
}

func (r *repo) ExcludedServiceIDs(ctx context.Context, db *gorm.DB, usageTypeID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT service_id FROM usage_type_excluded_services WHERE usage_type_id = ?`,
		usageTypeID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ListWarehouses(ctx context.Context, db *gorm.DB, showInReport bool) ([]usagedomain.Warehouse, error) {
	query := db.WithContext(ctx).Table("warehouses")
	if showInReport {
		query = query.Where("show_in_report")
	}
	var warehouses []usagedomain.Warehouse
	if err := query.Order("name ASC").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *repo) InsertWarehouse(ctx context.Context, db *gorm.DB, w *usagedomain.Warehouse) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO warehouses (id, name, show_in_report) VALUES (?, ?, ?)`,
		w.ID,
		w.Name,
		w.ShowInReport,
	).Error
}

func (r *repo) InsertUsagePrice(ctx context.Context, db *gorm.DB, price *usagedomain.UsagePrice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO usage_prices (id, type_id, warehouse_id, start, "end", price, forecast_price, cost, forecast_cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		price.ID,
		price.TypeID,
		price.WarehouseID,
		price.Start,
		price.End,
		price.Price,
		price.ForecastPrice,
		price.Cost,
		price.ForecastCost,
	).Error
}

func (r *repo) PricesCovering(ctx context.Context, db *gorm.DB, usageTypeID snowflake.ID, date time.Time, warehouseID *snowflake.ID) ([]usagedomain.UsagePrice, error) {
	query := db.WithContext(ctx).Table("usage_prices").
		Where("type_id = ?", usageTypeID).
		Where("start <= ?", date).
		Where(`"end" >= ?`, date)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	var prices []usagedomain.UsagePrice
	if err := query.Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *repo) ListUsagePriceRanges(ctx context.Context, db *gorm.DB, usageTypeID snowflake.ID) ([]usagedomain.UsagePrice, error) {
	var prices []usagedomain.UsagePrice
	err := db.WithContext(ctx).Raw(
		`SELECT id, type_id, warehouse_id, start, "end", price, forecast_price, cost, forecast_cost
		 FROM usage_prices WHERE type_id = ? ORDER BY start ASC`,
		usageTypeID,
	).Scan(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *repo) FindDailyUsage(ctx context.Context, db *gorm.DB, date time.Time, typeID, serviceEnvironmentID snowflake.ID, pricingObjectID *snowflake.ID) (*usagedomain.DailyUsage, error) {
	query := db.WithContext(ctx).Table("daily_usages").
		Where("date = ?", date).
		Where("type_id = ?", typeID).
		Where("service_environment_id = ?", serviceEnvironmentID)
	if pricingObjectID != nil {
		query = query.Where("pricing_object_id = ?", *pricingObjectID)
	} else {
		query = query.Where("pricing_object_id IS NULL")
	}
	var du usagedomain.DailyUsage
	if err := query.Scan(&du).Error; err != nil {
		return nil, err
	}
	if du.ID == 0 {
		return nil, nil
	}
	return &du, nil
}

func (r *repo) InsertDailyUsage(ctx context.Context, db *gorm.DB, du *usagedomain.DailyUsage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO daily_usages (id, date, type_id, service_environment_id, pricing_object_id, warehouse_id, value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		du.ID,
		du.Date,
		du.TypeID,
		du.ServiceEnvironmentID,
		du.PricingObjectID,
		du.WarehouseID,
		du.Value,
	).Error
}

func (r *repo) UpdateDailyUsageValue(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE daily_usages SET value = ? WHERE id = ?`,
		value,
		id,
	).Error
}

func usageQuery(ctx context.Context, db *gorm.DB, filter usagedomain.UsageFilter) *gorm.DB {
	query := db.WithContext(ctx).Table("daily_usages").
		Where("type_id = ?", filter.TypeID)
	if filter.Start != nil && filter.End != nil {
		query = query.Where("date >= ? AND date <= ?", *filter.Start, *filter.End)
	} else if filter.Date != nil {
		query = query.Where("date = ?", *filter.Date)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ServiceEnvironmentIDs != nil {
		query = query.Where("service_environment_id IN ?", filter.ServiceEnvironmentIDs)
	}
	if len(filter.ExcludedServiceIDs) > 0 {
		query = query.Where(
			"service_environment_id NOT IN (SELECT id FROM service_environments WHERE service_id IN ?)",
			filter.ExcludedServiceIDs,
		)
	}
	return query
}

func (r *repo) TotalUsage(ctx context.Context, db *gorm.DB, filter usagedomain.UsageFilter) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := usageQuery(ctx, db, filter).
		Select("COALESCE(SUM(value), 0) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *repo) UsagesPerServiceEnvironment(ctx context.Context, db *gorm.DB, filter usagedomain.UsageFilter) ([]usagedomain.ServiceEnvironmentUsage, error) {
	var usages []usagedomain.ServiceEnvironmentUsage
	err := usageQuery(ctx, db, filter).
		Select("service_environment_id, pricing_object_id, SUM(value) AS value").
		Group("service_environment_id, pricing_object_id").
		Order("service_environment_id").
		Scan(&usages).Error
	if err != nil {
		return nil, err
	}
	return usages, nil
}

func (r *repo) DistinctUsageTypeIDs(ctx context.Context, db *gorm.DB, date time.Time) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT type_id FROM daily_usages WHERE date = ?`,
		date,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
