package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrNoPriceCost is raised when no price covers the requested date.
	ErrNoPriceCost = errors.New("no price defined for date")
	// ErrMultiplePriceCost is raised when more than one price covers the
	// requested date. Overlapping ranges are a configuration error.
	ErrMultiplePriceCost = errors.New("multiple prices defined for date")
)

// UsageFilter narrows daily usage aggregations.
type UsageFilter struct {
	TypeID                snowflake.ID
	Date                  *time.Time
	Start                 *time.Time
	End                   *time.Time
	WarehouseID           *snowflake.ID
	ServiceEnvironmentIDs []snowflake.ID
	ExcludedServiceIDs    []snowflake.ID
}

// ServiceEnvironmentUsage is a per-service-environment usage aggregate.
type ServiceEnvironmentUsage struct {
	ServiceEnvironmentID snowflake.ID    `gorm:"column:service_environment_id"`
	PricingObjectID      *snowflake.ID   `gorm:"column:pricing_object_id"`
	Value                decimal.Decimal `gorm:"column:value"`
}

type Repository interface {
	FindUsageTypeBySymbol(ctx context.Context, db *gorm.DB, symbol string) (*UsageType, error)
	ListUsageTypes(ctx context.Context, db *gorm.DB, kind UsageTypeKind, activeOnly bool) ([]UsageType, error)
	InsertUsageType(ctx context.Context, db *gorm.DB, ut *UsageType) error
	ExcludedServiceIDs(ctx context.Context, db *gorm.DB, usageTypeID snowflake.ID) ([]snowflake.ID, error)

	ListWarehouses(ctx context.Context, db *gorm.DB, showInReport bool) ([]Warehouse, error)
	InsertWarehouse(ctx context.Context, db *gorm.DB, w *Warehouse) error

	InsertUsagePrice(ctx context.Context, db *gorm.DB, price *UsagePrice) error
	// PricesCovering returns every price of the usage type whose range
	// covers date (warehouse-filtered when warehouseID is set).
	PricesCovering(ctx context.Context, db *gorm.DB, usageTypeID snowflake.ID, date time.Time, warehouseID *snowflake.ID) ([]UsagePrice, error)
	ListUsagePriceRanges(ctx context.Context, db *gorm.DB, usageTypeID snowflake.ID) ([]UsagePrice, error)

	FindDailyUsage(ctx context.Context, db *gorm.DB, date time.Time, typeID, serviceEnvironmentID snowflake.ID, pricingObjectID *snowflake.ID) (*DailyUsage, error)
	InsertDailyUsage(ctx context.Context, db *gorm.DB, du *DailyUsage) error
	UpdateDailyUsageValue(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal) error

	TotalUsage(ctx context.Context, db *gorm.DB, filter UsageFilter) (decimal.Decimal, error)
	UsagesPerServiceEnvironment(ctx context.Context, db *gorm.DB, filter UsageFilter) ([]ServiceEnvironmentUsage, error)
	DistinctUsageTypeIDs(ctx context.Context, db *gorm.DB, date time.Time) ([]snowflake.ID, error)
}
