package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	ListExtraCostTypes(ctx context.Context, db *gorm.DB) ([]ExtraCostType, error)
	InsertExtraCostType(ctx context.Context, db *gorm.DB, t *ExtraCostType) error

	InsertExtraCost(ctx context.Context, db *gorm.DB, ec *ExtraCost) error
	// ExtraCostsActive returns records of the type whose range covers date.
	ExtraCostsActive(ctx context.Context, db *gorm.DB, typeID snowflake.ID, date time.Time) ([]ExtraCost, error)
	// ExtraCostsForImprint returns every monthly-mode record covering date.
	ExtraCostsForImprint(ctx context.Context, db *gorm.DB, date time.Time) ([]ExtraCost, error)

	FindDailyExtraCost(ctx context.Context, db *gorm.DB, date time.Time, extraCostID snowflake.ID) (*DailyExtraCost, error)
	InsertDailyExtraCost(ctx context.Context, db *gorm.DB, dec *DailyExtraCost) error
	UpdateDailyExtraCostValue(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal) error

	ListDynamicExtraCostTypes(ctx context.Context, db *gorm.DB) ([]DynamicExtraCostType, error)
	InsertDynamicExtraCostType(ctx context.Context, db *gorm.DB, t *DynamicExtraCostType) error
	InsertDynamicExtraCostDivision(ctx context.Context, db *gorm.DB, d *DynamicExtraCostDivision) error
	DivisionsFor(ctx context.Context, db *gorm.DB, typeID snowflake.ID) ([]DynamicExtraCostDivision, error)
	InsertDynamicExtraCost(ctx context.Context, db *gorm.DB, c *DynamicExtraCost) error
	DynamicExtraCostsActive(ctx context.Context, db *gorm.DB, typeID snowflake.ID, date time.Time) ([]DynamicExtraCost, error)
}
