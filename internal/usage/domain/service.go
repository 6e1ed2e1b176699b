package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// UpsertDailyUsageRequest carries one usage fact keyed by its natural key.
type UpsertDailyUsageRequest struct {
	Date                 time.Time
	UsageTypeSymbol      string
	ServiceEnvironmentID snowflake.ID
	PricingObjectID      *snowflake.ID
	WarehouseID          *snowflake.ID
	Value                decimal.Decimal
}

type Service interface {
	// EnsureUsageType returns the usage type with the given symbol,
	// creating it when first observed.
	EnsureUsageType(ctx context.Context, symbol, name string, kind UsageTypeKind) (*UsageType, error)
	// UpsertDailyUsage writes one fact with get-or-create semantics;
	// re-running for the same date converges to the same state. The bool
	// reports whether a new row was created.
	UpsertDailyUsage(ctx context.Context, req UpsertDailyUsageRequest) (bool, error)
	// PriceForDate selects the single usage price covering date.
	// Returns ErrNoPriceCost / ErrMultiplePriceCost otherwise.
	PriceForDate(ctx context.Context, usageTypeID snowflake.ID, date time.Time, warehouseID *snowflake.ID) (*UsagePrice, error)
	// PriceRangeGaps merges a usage type's price ranges and reports the
	// uncovered gaps between the overall min and max dates.
	PriceRangeGaps(ctx context.Context, usageTypeID snowflake.ID) ([][2]time.Time, error)
}
