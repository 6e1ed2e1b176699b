package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListActive(ctx context.Context, db *gorm.DB) ([]PricingService, error)
	FindBySymbol(ctx context.Context, db *gorm.DB, symbol string) (*PricingService, error)
	Insert(ctx context.Context, db *gorm.DB, ps *PricingService) error

	ServiceIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID) ([]snowflake.ID, error)
	AssignService(ctx context.Context, db *gorm.DB, pricingServiceID, serviceID snowflake.ID) error
	ExcludedServiceIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID) ([]snowflake.ID, error)
	ExcludeService(ctx context.Context, db *gorm.DB, pricingServiceID, serviceID snowflake.ID) error
	ExcludedBaseUsageTypeIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID) ([]snowflake.ID, error)

	// UsageTypesCovering returns the percentage split rows of the pricing
	// service whose [start, end] range covers date.
	UsageTypesCovering(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID, date time.Time) ([]ServiceUsageType, error)
	InsertUsageTypeSplit(ctx context.Context, db *gorm.DB, sut *ServiceUsageType) error

	// DependentPricingServiceIDs returns pricing services whose service usage
	// types were consumed on date by the environments of the given pricing
	// service's services. The service itself and services that excluded any
	// of its services are left out.
	DependentPricingServiceIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID, date time.Time, exclude []snowflake.ID) ([]snowflake.ID, error)
}
