package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ServiceEnvironmentRow is a flattened service environment used by reports
// and publishing.
type ServiceEnvironmentRow struct {
	ID          snowflake.ID `gorm:"column:id"`
	ServiceID   snowflake.ID `gorm:"column:service_id"`
	ServiceUID  string       `gorm:"column:service_uid"`
	ServiceName string       `gorm:"column:service_name"`
	Environment string       `gorm:"column:environment"`
}

type Repository interface {
	InsertService(ctx context.Context, db *gorm.DB, svc *Service) error
	FindServiceByUID(ctx context.Context, db *gorm.DB, uid string) (*Service, error)
	ListActiveServices(ctx context.Context, db *gorm.DB) ([]Service, error)

	FindEnvironmentByName(ctx context.Context, db *gorm.DB, name string) (*Environment, error)
	InsertEnvironment(ctx context.Context, db *gorm.DB, env *Environment) error

	FindServiceEnvironment(ctx context.Context, db *gorm.DB, serviceID, environmentID snowflake.ID) (*ServiceEnvironment, error)
	InsertServiceEnvironment(ctx context.Context, db *gorm.DB, se *ServiceEnvironment) error
	ListServiceEnvironments(ctx context.Context, db *gorm.DB) ([]ServiceEnvironmentRow, error)
	ListServiceEnvironmentIDsByServices(ctx context.Context, db *gorm.DB, serviceIDs []snowflake.ID) ([]snowflake.ID, error)

	FindPricingObject(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PricingObject, error)
	FindPricingObjectByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*PricingObject, error)
	InsertPricingObject(ctx context.Context, db *gorm.DB, po *PricingObject) error
}
