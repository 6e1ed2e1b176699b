package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	psdomain "github.com/smallbiznis/scrooge/internal/pricingservice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() psdomain.Repository {
	return &repo{}
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]psdomain.PricingService, error) {
	var services []psdomain.PricingService
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, symbol, plugin_type, active
		 FROM pricing_services WHERE active ORDER BY name ASC`,
	).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repo) FindBySymbol(ctx context.Context, db *gorm.DB, symbol string) (*psdomain.PricingService, error) {
	var ps psdomain.PricingService
	err := db.WithContext(ctx).
		Where("symbol = ?", symbol).
		First(&ps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ps *psdomain.PricingService) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pricing_services (id, name, symbol, plugin_type, active)
		 VALUES (?, ?, ?, ?, ?)`,
		ps.ID,
		ps.Name,
		ps.Symbol,
		ps.PluginType,
		ps.Active,
	).Error
}

func (r *repo) ServiceIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT service_id FROM pricing_service_services WHERE pricing_service_id = ?`,
		pricingServiceID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) AssignService(ctx context.Context, db *gorm.DB, pricingServiceID, serviceID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pricing_service_services (pricing_service_id, service_id)
		 VALUES (?, ?)`,
		pricingServiceID,
		serviceID,
	).Error
}

func (r *repo) ExcludedServiceIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT service_id FROM pricing_service_excluded_services WHERE pricing_service_id = ?`,
		pricingServiceID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ExcludeService(ctx context.Context, db *gorm.DB, pricingServiceID, serviceID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pricing_service_excluded_services (pricing_service_id, service_id)
		 VALUES (?, ?)`,
		pricingServiceID,
		serviceID,
	).Error
}

func (r *repo) ExcludedBaseUsageTypeIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT usage_type_id FROM pricing_service_excluded_base_usage_types
		 WHERE pricing_service_id = ?`,
		pricingServiceID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) UsageTypesCovering(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID, date time.Time) ([]psdomain.ServiceUsageType, error) {
	var splits []psdomain.ServiceUsageType
	err := db.WithContext(ctx).Raw(
		`SELECT id, pricing_service_id, usage_type_id, start, "end", percent
		 FROM service_usage_types
		 WHERE pricing_service_id = ? AND start <= ? AND "end" >= ?
		 ORDER BY id`,
		pricingServiceID,
		date,
		date,
	).Scan(&splits).Error
	if err != nil {
		return nil, err
	}
	return splits, nil
}

func (r *repo) InsertUsageTypeSplit(ctx context.Context, db *gorm.DB, sut *psdomain.ServiceUsageType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_usage_types (id, pricing_service_id, usage_type_id, start, "end", percent)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sut.ID,
		sut.PricingServiceID,
		sut.UsageTypeID,
		sut.Start,
		sut.End,
		sut.Percent,
	).Error
}

func (r *repo) DependentPricingServiceIDs(ctx context.Context, db *gorm.DB, pricingServiceID snowflake.ID, date time.Time, exclude []snowflake.ID) ([]snowflake.ID, error) {
	query := db.WithContext(ctx).
		Table("pricing_services AS ps").
		Select("DISTINCT ps.id").
		Joins("JOIN service_usage_types sut ON sut.pricing_service_id = ps.id").
		Where(`sut.usage_type_id IN (
			SELECT DISTINCT du.type_id FROM daily_usages du
			JOIN usage_types ut ON ut.id = du.type_id
			JOIN service_environments se ON se.id = du.service_environment_id
			WHERE ut.kind = 'SU' AND du.date = ?
			  AND se.service_id IN (
				SELECT service_id FROM pricing_service_services WHERE pricing_service_id = ?
			  )
		)`, date, pricingServiceID).
		// a pricing service never charges itself
		Where("ps.id <> ?", pricingServiceID).
		Where(`ps.id NOT IN (
			SELECT pricing_service_id FROM pricing_service_excluded_services
			WHERE service_id IN (
				SELECT service_id FROM pricing_service_services WHERE pricing_service_id = ?
			)
		)`, pricingServiceID)
	if len(exclude) > 0 {
		query = query.Where("ps.id NOT IN ?", exclude)
	}

	var ids []snowflake.ID
	if err := query.Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
