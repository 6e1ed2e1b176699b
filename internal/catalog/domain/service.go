package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service-facing API for the catalog: get-or-create semantics keyed by the
// natural keys collection plugins observe in external systems.
type CatalogService interface {
	EnsureService(ctx context.Context, uid, name string) (*Service, bool, error)
	EnsureEnvironment(ctx context.Context, name string) (*Environment, error)
	EnsureServiceEnvironment(ctx context.Context, serviceUID, environment string) (*ServiceEnvironment, bool, error)
	ListServiceEnvironments(ctx context.Context) ([]ServiceEnvironmentRow, error)
	ServiceEnvironmentIDs(ctx context.Context, serviceIDs []snowflake.ID) ([]snowflake.ID, error)
}

var (
	ErrInvalidUID         = errors.New("invalid_service_uid")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidEnvironment = errors.New("invalid_environment")
	ErrServiceNotFound    = errors.New("service_not_found")
)
