package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CostKind names the category a daily cost row was produced by.
type CostKind string

const (
	CostKindUsageType        CostKind = "usage_type"
	CostKindTeam             CostKind = "team"
	CostKindExtraCost        CostKind = "extra_cost"
	CostKindDynamicExtraCost CostKind = "dynamic_extra_cost"
	CostKindPricingService   CostKind = "pricing_service"
	CostKindSupport          CostKind = "support"
)

// DailyCost is one monetary fact per (date, type, service environment),
// stored as a tree: pricing service costs keep their component breakdown as
// child rows.
type DailyCost struct {
	ID                   snowflake.ID    `json:"id" gorm:"primaryKey"`
	Date                 time.Time       `json:"date" gorm:"type:date;not null;index"`
	ServiceEnvironmentID snowflake.ID    `json:"service_environment_id" gorm:"not null;index"`
	TypeID               snowflake.ID    `json:"type_id" gorm:"not null;index"`
	TypeKind             CostKind        `json:"type_kind" gorm:"type:text;not null"`
	ParentID             *snowflake.ID   `json:"parent_id" gorm:"index"`
	Depth                int             `json:"depth" gorm:"not null;default:0"`
	PricingObjectID      *snowflake.ID   `json:"pricing_object_id"`
	WarehouseID          *snowflake.ID   `json:"warehouse_id"`
	Value                decimal.Decimal `json:"value" gorm:"type:numeric(16,6);not null;default:0"`
	Cost                 decimal.Decimal `json:"cost" gorm:"type:numeric(16,6);not null;default:0"`
	Forecast             bool            `json:"forecast" gorm:"not null;default:false;index"`
	Verified             bool            `json:"verified" gorm:"not null;default:false"`
}

func (DailyCost) TableName() string { return "daily_costs" }

// CostDateStatus tracks per-date progress of the cost pipeline. Costs become
// accepted (and the underlying rows verified) only after an explicit accept.
type CostDateStatus struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	Date               time.Time    `json:"date" gorm:"type:date;not null;uniqueIndex"`
	Calculated         bool         `json:"calculated" gorm:"not null;default:false"`
	ForecastCalculated bool         `json:"forecast_calculated" gorm:"not null;default:false"`
	Accepted           bool         `json:"accepted" gorm:"not null;default:false"`
	ForecastAccepted   bool         `json:"forecast_accepted" gorm:"not null;default:false"`
}

func (CostDateStatus) TableName() string { return "cost_date_statuses" }

// IsCalculated returns the calculated flag for the forecast variant.
func (s CostDateStatus) IsCalculated(forecast bool) bool {
	if forecast {
		return s.ForecastCalculated
	}
	return s.Calculated
}

// IsAccepted returns the accepted flag for the forecast variant.
func (s CostDateStatus) IsAccepted(forecast bool) bool {
	if forecast {
		return s.ForecastAccepted
	}
	return s.Accepted
}
