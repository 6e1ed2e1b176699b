package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Warehouse is a datacenter usage and prices may be tracked per.
type Warehouse struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	ShowInReport bool         `json:"show_in_report" gorm:"not null;default:true"`
}

func (Warehouse) TableName() string { return "warehouses" }

// UsageTypeKind discriminates base usages (priced directly) from service
// usages (exposed by pricing services).
type UsageTypeKind string

const (
	UsageTypeKindBase    UsageTypeKind = "BU"
	UsageTypeKindService UsageTypeKind = "SU"
)

// UsageType classifies a billable resource (cpu cores, storage volume,
// cloud usage).
type UsageType struct {
	ID     snowflake.ID  `json:"id" gorm:"primaryKey"`
	Symbol string        `json:"symbol" gorm:"type:text;not null;uniqueIndex"`
	Name   string        `json:"name" gorm:"type:text;not null"`
	Kind   UsageTypeKind `json:"kind" gorm:"column:kind;type:text;not null;default:'BU'"`

	// ByCost means the unit price is derived from a total cost divided by
	// total usage over the price range instead of being set directly.
	ByCost bool `json:"by_cost" gorm:"not null;default:false"`
	// ByWarehouse means usage and prices are tracked per warehouse.
	ByWarehouse bool `json:"by_warehouse" gorm:"not null;default:false"`

	// DivideBy is a scaling exponent applied when reporting values
	// (value / 10^divide_by); Rounding is the number of decimal places.
	DivideBy int `json:"divide_by" gorm:"not null;default:0"`
	Rounding int `json:"rounding" gorm:"not null;default:2"`

	AllowNoDailyUsage bool `json:"allow_no_daily_usage" gorm:"not null;default:false"`
	Active            bool `json:"active" gorm:"not null;default:true"`
}

func (UsageType) TableName() string { return "usage_types" }

// UsageTypeExcludedService excludes a service from being charged for a usage
// type.
type UsageTypeExcludedService struct {
	UsageTypeID snowflake.ID `json:"usage_type_id" gorm:"primaryKey"`
	ServiceID   snowflake.ID `json:"service_id" gorm:"primaryKey"`
}

func (UsageTypeExcludedService) TableName() string { return "usage_type_excluded_services" }

// UsagePrice is a price (and forecast price) for a usage type valid over a
// closed date range. Ranges for one usage type must not overlap; that is
// enforced at data entry and validated, not recomputed, here.
type UsagePrice struct {
	ID          snowflake.ID  `json:"id" gorm:"primaryKey"`
	TypeID      snowflake.ID  `json:"type_id" gorm:"not null;index"`
	WarehouseID *snowflake.ID `json:"warehouse_id" gorm:"index"`
	Start       time.Time     `json:"start" gorm:"type:date;not null"`
	End         time.Time     `json:"end" gorm:"type:date;not null"`

	Price         decimal.Decimal `json:"price" gorm:"type:numeric(16,6);not null;default:0"`
	ForecastPrice decimal.Decimal `json:"forecast_price" gorm:"type:numeric(16,6);not null;default:0"`
	Cost          decimal.Decimal `json:"cost" gorm:"type:numeric(16,6);not null;default:0"`
	ForecastCost  decimal.Decimal `json:"forecast_cost" gorm:"type:numeric(16,6);not null;default:0"`
}

func (UsagePrice) TableName() string { return "usage_prices" }

// EffectivePrice returns the direct unit price for the forecast variant.
func (p UsagePrice) EffectivePrice(forecast bool) decimal.Decimal {
	if forecast {
		return p.ForecastPrice
	}
	return p.Price
}

// EffectiveCost returns the range total cost for the forecast variant.
func (p UsagePrice) EffectiveCost(forecast bool) decimal.Decimal {
	if forecast {
		return p.ForecastCost
	}
	return p.Cost
}

// DailyUsage is one usage fact per (date, usage type, service environment
// [, pricing object, warehouse]).
type DailyUsage struct {
	ID                   snowflake.ID    `json:"id" gorm:"primaryKey"`
	Date                 time.Time       `json:"date" gorm:"type:date;not null;index:ux_daily_usage,unique,priority:1"`
	TypeID               snowflake.ID    `json:"type_id" gorm:"not null;index:ux_daily_usage,unique,priority:2"`
	ServiceEnvironmentID snowflake.ID    `json:"service_environment_id" gorm:"not null;index:ux_daily_usage,unique,priority:3"`
	PricingObjectID      *snowflake.ID   `json:"pricing_object_id" gorm:"index:ux_daily_usage,unique,priority:4"`
	WarehouseID          *snowflake.ID   `json:"warehouse_id" gorm:"index"`
	Value                decimal.Decimal `json:"value" gorm:"type:numeric(16,6);not null;default:0"`
}

func (DailyUsage) TableName() string { return "daily_usages" }
