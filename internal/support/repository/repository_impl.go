package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	supportdomain "github.com/smallbiznis/scrooge/internal/support/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() supportdomain.Repository {
	return &repo{}
}

func (r *repo) ListCovering(ctx context.Context, db *gorm.DB, date time.Time) ([]supportdomain.SupportCostRow, error) {
	var rows []supportdomain.SupportCostRow
	err := db.WithContext(ctx).Raw(
		`SELECT sc.id, sc.extra_cost_type_id, sc.support_uid, sc.pricing_object_id,
		        sc.cost, sc.forecast_cost, sc.start, sc."end", sc.remarks,
		        po.service_environment_id
		 FROM support_costs sc
		 JOIN pricing_objects po ON po.id = sc.pricing_object_id
		 WHERE sc.start <= ? AND sc."end" >= ?`,
		date,
		date,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindByNaturalKey(ctx context.Context, db *gorm.DB, supportUID string, pricingObjectID snowflake.ID) (*supportdomain.SupportCost, error) {
	var c supportdomain.SupportCost
	err := db.WithContext(ctx).
		Where("support_uid = ? AND pricing_object_id = ?", supportUID, pricingObjectID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, c *supportdomain.SupportCost) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO support_costs (id, extra_cost_type_id, support_uid, pricing_object_id,
		                            cost, forecast_cost, start, "end", remarks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.ExtraCostTypeID,
		c.SupportUID,
		c.PricingObjectID,
		c.Cost,
		c.ForecastCost,
		c.Start,
		c.End,
		c.Remarks,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, c *supportdomain.SupportCost) error {
	return db.WithContext(ctx).Exec(
		`UPDATE support_costs
		 SET cost = ?, forecast_cost = ?, start = ?, "end" = ?, remarks = ?
		 WHERE id = ?`,
		c.Cost,
		c.ForecastCost,
		c.Start,
		c.End,
		c.Remarks,
		c.ID,
	).Error
}

func (r *repo) DeleteStale(ctx context.Context, db *gorm.DB, supportUID string, keep []snowflake.ID) (int64, error) {
	query := db.WithContext(ctx).Where("support_uid = ?", supportUID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	res := query.Delete(&supportdomain.SupportCost{})
	return res.RowsAffected, res.Error
}
