package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TeamBillingType selects how a team's cost is split between service
// environments.
type TeamBillingType string

const (
	// TeamBillingTypeTime splits the cost according to declared percentages
	// of time spent per service environment.
	TeamBillingTypeTime TeamBillingType = "time"
	// TeamBillingTypeUsage splits the cost proportionally to daily usage of
	// the team's configured usage type.
	TeamBillingTypeUsage TeamBillingType = "usage"
	// TeamBillingTypeDistribute splits the cost between the other teams by
	// member count, then along each of their own billing models.
	TeamBillingTypeDistribute TeamBillingType = "distribute"
	// TeamBillingTypeAverage splits the cost according to the mean of the
	// other teams' per-environment percentage divisions.
	TeamBillingTypeAverage TeamBillingType = "average"
)

// KnownBillingTypes lists the billing models the cost pipeline can handle.
var KnownBillingTypes = []TeamBillingType{
	TeamBillingTypeTime,
	TeamBillingTypeUsage,
	TeamBillingTypeDistribute,
	TeamBillingTypeAverage,
}

// Team is an organizational unit whose cost is charged back to services.
type Team struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:text;not null;uniqueIndex"`
	BillingType TeamBillingType `json:"billing_type" gorm:"type:text;not null;default:'time'"`
	// UsageTypeID drives the usage billing model; unused for other models.
	UsageTypeID *snowflake.ID `json:"usage_type_id"`
	Active      bool          `json:"active" gorm:"not null;default:true"`
}

func (Team) TableName() string { return "teams" }

// TeamCost is a team's cost over a closed date range.
type TeamCost struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	TeamID       snowflake.ID    `json:"team_id" gorm:"not null;index"`
	Cost         decimal.Decimal `json:"cost" gorm:"type:numeric(16,6);not null;default:0"`
	ForecastCost decimal.Decimal `json:"forecast_cost" gorm:"type:numeric(16,6);not null;default:0"`
	Start        time.Time       `json:"start" gorm:"type:date;not null"`
	End          time.Time       `json:"end" gorm:"column:end;type:date;not null"`
	MembersCount int             `json:"members_count" gorm:"not null;default:0"`
}

func (TeamCost) TableName() string { return "team_costs" }

// EffectiveCost returns the cost for the forecast variant.
func (c TeamCost) EffectiveCost(forecast bool) decimal.Decimal {
	if forecast {
		return c.ForecastCost
	}
	return c.Cost
}

// TeamServiceEnvironmentPercent declares what percent of a team cost record
// is attributed to a service environment. Percents of one record must sum to
// 100 within tolerance.
type TeamServiceEnvironmentPercent struct {
	ID                   snowflake.ID `json:"id" gorm:"primaryKey"`
	TeamCostID           snowflake.ID `json:"team_cost_id" gorm:"not null;index:ux_team_cost_se,unique,priority:1"`
	ServiceEnvironmentID snowflake.ID `json:"service_environment_id" gorm:"not null;index:ux_team_cost_se,unique,priority:2"`
	Percent              float64      `json:"percent" gorm:"not null"`
}

func (TeamServiceEnvironmentPercent) TableName() string { return "team_service_environment_percents" }
