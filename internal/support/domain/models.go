package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SupportCost is a support contract cost split over the pricing objects it
// covers. The contract total is charged day by day over [Start, End].
type SupportCost struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey"`
	ExtraCostTypeID snowflake.ID    `json:"extra_cost_type_id" gorm:"not null;index"`
	SupportUID      string          `json:"support_uid" gorm:"type:text;not null;index:ux_support_po,unique,priority:1"`
	PricingObjectID snowflake.ID    `json:"pricing_object_id" gorm:"not null;index:ux_support_po,unique,priority:2"`
	Cost            decimal.Decimal `json:"cost" gorm:"type:numeric(16,6);not null;default:0"`
	ForecastCost    decimal.Decimal `json:"forecast_cost" gorm:"type:numeric(16,6);not null;default:0"`
	Start           time.Time       `json:"start" gorm:"type:date;not null"`
	End             time.Time       `json:"end" gorm:"column:end;type:date;not null"`
	Remarks         string          `json:"remarks" gorm:"type:text;not null;default:''"`
}

func (SupportCost) TableName() string { return "support_costs" }

// EffectiveCost returns the cost for the forecast variant.
func (c SupportCost) EffectiveCost(forecast bool) decimal.Decimal {
	if forecast {
		return c.ForecastCost
	}
	return c.Cost
}
