package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ExtraCostType is a category for manually entered costs (licence, support
// contract, one-off projects).
type ExtraCostType struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
}

func (ExtraCostType) TableName() string { return "extra_cost_types" }

// ExtraCostMode selects how an extra cost record is amortized.
type ExtraCostMode string

const (
	// ExtraCostModeRange spreads the total cost evenly over the record's
	// [start, end] range.
	ExtraCostModeRange ExtraCostMode = "range"
	// ExtraCostModeMonthly treats the cost as a monthly figure amortized
	// over the days of the calendar month of the processing date.
	ExtraCostModeMonthly ExtraCostMode = "monthly"
)

// ExtraCost is a static cost attached to a service environment, valid over a
// closed date range.
type ExtraCost struct {
	ID                   snowflake.ID    `json:"id" gorm:"primaryKey"`
	ExtraCostTypeID      snowflake.ID    `json:"extra_cost_type_id" gorm:"not null;index"`
	ServiceEnvironmentID snowflake.ID    `json:"service_environment_id" gorm:"not null;index"`
	Cost                 decimal.Decimal `json:"cost" gorm:"type:numeric(16,6);not null;default:0"`
	ForecastCost         decimal.Decimal `json:"forecast_cost" gorm:"type:numeric(16,6);not null;default:0"`
	Start                time.Time       `json:"start" gorm:"type:date;not null"`
	End                  time.Time       `json:"end" gorm:"column:end;type:date;not null"`
	Mode                 ExtraCostMode   `json:"mode" gorm:"type:text;not null;default:'range'"`
	Remarks              string          `json:"remarks" gorm:"type:text"`
}

func (ExtraCost) TableName() string { return "extra_costs" }

// EffectiveCost returns the cost for the forecast variant.
func (e ExtraCost) EffectiveCost(forecast bool) decimal.Decimal {
	if forecast {
		return e.ForecastCost
	}
	return e.Cost
}

// DailyExtraCost is the daily imprint of an extra cost record, written by the
// collect chain with get-or-create semantics.
type DailyExtraCost struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	Date        time.Time       `json:"date" gorm:"type:date;not null;index:ux_daily_extra_cost,unique,priority:1"`
	ExtraCostID snowflake.ID    `json:"extra_cost_id" gorm:"not null;index:ux_daily_extra_cost,unique,priority:2"`
	Value       decimal.Decimal `json:"value" gorm:"type:numeric(16,6);not null;default:0"`
}

func (DailyExtraCost) TableName() string { return "daily_extra_costs" }

// DynamicExtraCostType is an extra cost distributed between services
// proportionally to their usage of the division's usage types.
type DynamicExtraCostType struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
}

func (DynamicExtraCostType) TableName() string { return "dynamic_extra_cost_types" }

// DynamicExtraCostDivision declares what percent of a dynamic extra cost is
// distributed along a usage type. Percents of one type must sum to 100.
type DynamicExtraCostDivision struct {
	ID                     snowflake.ID `json:"id" gorm:"primaryKey"`
	DynamicExtraCostTypeID snowflake.ID `json:"dynamic_extra_cost_type_id" gorm:"not null;index"`
	UsageTypeID            snowflake.ID `json:"usage_type_id" gorm:"not null"`
	Percent                float64      `json:"percent" gorm:"not null"`
}

func (DynamicExtraCostDivision) TableName() string { return "dynamic_extra_cost_divisions" }

// DynamicExtraCost is the cost of a dynamic extra cost type over a range.
type DynamicExtraCost struct {
	ID                     snowflake.ID    `json:"id" gorm:"primaryKey"`
	DynamicExtraCostTypeID snowflake.ID    `json:"dynamic_extra_cost_type_id" gorm:"not null;index"`
	Cost                   decimal.Decimal `json:"cost" gorm:"type:numeric(16,6);not null;default:0"`
	ForecastCost           decimal.Decimal `json:"forecast_cost" gorm:"type:numeric(16,6);not null;default:0"`
	Start                  time.Time       `json:"start" gorm:"type:date;not null"`
	End                    time.Time       `json:"end" gorm:"column:end;type:date;not null"`
}

func (DynamicExtraCost) TableName() string { return "dynamic_extra_costs" }

// EffectiveCost returns the cost for the forecast variant.
func (d DynamicExtraCost) EffectiveCost(forecast bool) decimal.Decimal {
	if forecast {
		return d.ForecastCost
	}
	return d.Cost
}
