package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SupportCostRow is a support cost joined with the service environment its
// pricing object currently belongs to.
type SupportCostRow struct {
	SupportCost
	ServiceEnvironmentID snowflake.ID `json:"service_environment_id"`
}

type Repository interface {
	// ListCovering returns support costs whose [start, end] range covers
	// date, each with the owning service environment.
	ListCovering(ctx context.Context, db *gorm.DB, date time.Time) ([]SupportCostRow, error)

	// FindByNaturalKey looks a record up by contract uid + pricing object.
	FindByNaturalKey(ctx context.Context, db *gorm.DB, supportUID string, pricingObjectID snowflake.ID) (*SupportCost, error)
	Insert(ctx context.Context, db *gorm.DB, c *SupportCost) error
	Update(ctx context.Context, db *gorm.DB, c *SupportCost) error
	// DeleteStale removes records of the contract that are not in keep,
	// covering pricing objects dropped from the contract.
	DeleteStale(ctx context.Context, db *gorm.DB, supportUID string, keep []snowflake.ID) (int64, error)
}
