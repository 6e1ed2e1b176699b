package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AcceptedCostRow is a per service environment aggregate of accepted costs,
// the unit the publisher ships to recipients.
type AcceptedCostRow struct {
	ServiceUID  string          `gorm:"column:service_uid" json:"service_uid"`
	Environment string          `gorm:"column:environment" json:"environment"`
	TotalCost   decimal.Decimal `gorm:"column:total_cost" json:"total_cost"`
}

type Repository interface {
	InsertDailyCosts(ctx context.Context, db *gorm.DB, costs []DailyCost) error
	DeleteDailyCosts(ctx context.Context, db *gorm.DB, date time.Time, forecast bool) error
	AnyVerified(ctx context.Context, db *gorm.DB, date time.Time, forecast bool) (bool, error)
	ListDailyCosts(ctx context.Context, db *gorm.DB, date time.Time, forecast bool) ([]DailyCost, error)
	MarkVerified(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) error

	FindStatus(ctx context.Context, db *gorm.DB, date time.Time) (*CostDateStatus, error)
	UpsertStatus(ctx context.Context, db *gorm.DB, status *CostDateStatus) error
	CalculatedDates(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) ([]time.Time, error)
	MarkAccepted(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) error

	AggregateAccepted(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) ([]AcceptedCostRow, error)
}
