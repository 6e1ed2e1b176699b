package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) InsertService(ctx context.Context, db *gorm.DB, svc *catalogdomain.Service) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (id, ci_uid, name, symbol, profit_center_id, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		svc.ID,
		svc.CIUID,
		svc.Name,
		svc.Symbol,
		svc.ProfitCenterID,
		svc.Active,
		svc.CreatedAt,
		svc.UpdatedAt,
	).Error
}

func (r *repo) FindServiceByUID(ctx context.Context, db *gorm.DB, uid string) (*catalogdomain.Service, error) {
	var svc catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT id, ci_uid, name, symbol, profit_center_id, active, created_at, updated_at
		 FROM services WHERE ci_uid = ?`,
		uid,
	).Scan(&svc).Error
	if err != nil {
		return nil, err
	}
	if svc.ID == 0 {
		return nil, nil
	}
	return &svc, nil
}

func (r *repo) ListActiveServices(ctx context.Context, db *gorm.DB) ([]catalogdomain.Service, error) {
	var services []catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT id, ci_uid, name, symbol, profit_center_id, active, created_at, updated_at
		 FROM services WHERE active ORDER BY name ASC`,
	).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repo) FindEnvironmentByName(ctx context.Context, db *gorm.DB, name string) (*catalogdomain.Environment, error) {
	var env catalogdomain.Environment
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM environments WHERE name = ?`,
		name,
	).Scan(&env).Error
	if err != nil {
		return nil, err
	}
	if env.ID == 0 {
		return nil, nil
	}
	return &env, nil
}

func (r *repo) InsertEnvironment(ctx context.Context, db *gorm.DB, env *catalogdomain.Environment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO environments (id, name) VALUES (?, ?)`,
		env.ID,
		env.Name,
	).Error
}

func (r *repo) FindServiceEnvironment(ctx context.Context, db *gorm.DB, serviceID, environmentID snowflake.ID) (*catalogdomain.ServiceEnvironment, error) {
	var se catalogdomain.ServiceEnvironment
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, environment_id, created_at
		 FROM service_environments WHERE service_id = ? AND environment_id = ?`,
		serviceID,
		environmentID,
	).Scan(&se).Error
	if err != nil {
		return nil, err
	}
	if se.ID == 0 {
		return nil, nil
	}
	return &se, nil
}

func (r *repo) InsertServiceEnvironment(ctx context.Context, db *gorm.DB, se *catalogdomain.ServiceEnvironment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_environments (id, service_id, environment_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		se.ID,
		se.ServiceID,
		se.EnvironmentID,
		se.CreatedAt,
	).Error
}

func (r *repo) ListServiceEnvironments(ctx context.Context, db *gorm.DB) ([]catalogdomain.ServiceEnvironmentRow, error) {
	var rows []catalogdomain.ServiceEnvironmentRow
	err := db.WithContext(ctx).Raw(
		`SELECT se.id AS id, s.id AS service_id, s.ci_uid AS service_uid,
		        s.name AS service_name, e.name AS environment
		 FROM service_environments se
		 JOIN services s ON s.id = se.service_id
		 JOIN environments e ON e.id = se.environment_id
		 ORDER BY s.name, e.name`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListServiceEnvironmentIDsByServices(ctx context.Context, db *gorm.DB, serviceIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM service_environments WHERE service_id IN ?`,
		serviceIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) FindPricingObject(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.PricingObject, error) {
	var po catalogdomain.PricingObject
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, type, external_id, service_environment_id, created_at, updated_at
		 FROM pricing_objects WHERE id = ?`,
		id,
	).Scan(&po).Error
	if err != nil {
		return nil, err
	}
	if po.ID == 0 {
		return nil, nil
	}
	return &po, nil
}

func (r *repo) FindPricingObjectByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*catalogdomain.PricingObject, error) {
	var po catalogdomain.PricingObject
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, type, external_id, service_environment_id, created_at, updated_at
		 FROM pricing_objects WHERE external_id = ?`,
		externalID,
	).Scan(&po).Error
	if err != nil {
		return nil, err
	}
	if po.ID == 0 {
		return nil, nil
	}
	return &po, nil
}

func (r *repo) InsertPricingObject(ctx context.Context, db *gorm.DB, po *catalogdomain.PricingObject) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pricing_objects (id, name, type, external_id, service_environment_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		po.ID,
		po.Name,
		po.Type,
		po.ExternalID,
		po.ServiceEnvironmentID,
		po.CreatedAt,
		po.UpdatedAt,
	).Error
}
