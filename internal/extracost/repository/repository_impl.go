package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() extracostdomain.Repository {
	return &repo{}
}

func (r *repo) ListExtraCostTypes(ctx context.Context, db *gorm.DB) ([]extracostdomain.ExtraCostType, error) {
	var types []extracostdomain.ExtraCostType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM extra_cost_types ORDER BY name ASC`,
	).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repo) InsertExtraCostType(ctx context.Context, db *gorm.DB, t *extracostdomain.ExtraCostType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO extra_cost_types (id, name) VALUES (?, ?)`,
		t.ID,
		t.Name,
	).Error
}

func (r *repo) InsertExtraCost(ctx context.Context, db *gorm.DB, ec *extracostdomain.ExtraCost) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO extra_costs (id, extra_cost_type_id, service_environment_id, cost, forecast_cost, start, "end", mode, remarks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ec.ID,
		ec.ExtraCostTypeID,
		ec.ServiceEnvironmentID,
		ec.Cost,
		ec.ForecastCost,
		ec.Start,
		ec.End,
		ec.Mode,
		ec.Remarks,
	).Error
}

func (r *repo) ExtraCostsActive(ctx context.Context, db *gorm.DB, typeID snowflake.ID, date time.Time) ([]extracostdomain.ExtraCost, error) {
	var costs []extracostdomain.ExtraCost
	err := db.WithContext(ctx).Raw(
		`SELECT id, extra_cost_type_id, service_environment_id, cost, forecast_cost, start, "end", mode, remarks
		 FROM extra_costs
		 WHERE extra_cost_type_id = ? AND start <= ? AND "end" >= ?`,
		typeID,
		date,
		date,
	).Scan(&costs).Error
	if err != nil {
		return nil, err
	}
	return costs, nil
}

func (r *repo) ExtraCostsForImprint(ctx context.Context, db *gorm.DB, date time.Time) ([]extracostdomain.ExtraCost, error) {
	var costs []extracostdomain.ExtraCost
	err := db.WithContext(ctx).Raw(
		`SELECT id, extra_cost_type_id, service_environment_id, cost, forecast_cost, start, "end", mode, remarks
		 FROM extra_costs
		 WHERE start <= ? AND "end" >= ?`,
		date,
		date,
	).Scan(&costs).Error
	if err != nil {
		return nil, err
	}
	return costs, nil
}

func (r *repo) FindDailyExtraCost(ctx context.Context, db *gorm.DB, date time.Time, extraCostID snowflake.ID) (*extracostdomain.DailyExtraCost, error) {
	var dec extracostdomain.DailyExtraCost
	err := db.WithContext(ctx).Raw(
		`SELECT id, date, extra_cost_id, value FROM daily_extra_costs
		 WHERE date = ? AND extra_cost_id = ?`,
		date,
		extraCostID,
	).Scan(&dec).Error
	if err != nil {
		return nil, err
	}
	if dec.ID == 0 {
		return nil, nil
	}
	return &dec, nil
}

func (r *repo) InsertDailyExtraCost(ctx context.Context, db *gorm.DB, dec *extracostdomain.DailyExtraCost) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO daily_extra_costs (id, date, extra_cost_id, value) VALUES (?, ?, ?, ?)`,
		dec.ID,
		dec.Date,
		dec.ExtraCostID,
		dec.Value,
	).Error
}

func (r *repo) UpdateDailyExtraCostValue(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE daily_extra_costs SET value = ? WHERE id = ?`,
		value,
		id,
	).Error
}

func (r *repo) ListDynamicExtraCostTypes(ctx context.Context, db *gorm.DB) ([]extracostdomain.DynamicExtraCostType, error) {
	var types []extracostdomain.DynamicExtraCostType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM dynamic_extra_cost_types ORDER BY name ASC`,
	).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repo) InsertDynamicExtraCostType(ctx context.Context, db *gorm.DB, t *extracostdomain.DynamicExtraCostType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO dynamic_extra_cost_types (id, name) VALUES (?, ?)`,
		t.ID,
		t.Name,
	).Error
}

func (r *repo) InsertDynamicExtraCostDivision(ctx context.Context, db *gorm.DB, d *extracostdomain.DynamicExtraCostDivision) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO dynamic_extra_cost_divisions (id, dynamic_extra_cost_type_id, usage_type_id, percent)
		 VALUES (?, ?, ?, ?)`,
		d.ID,
		d.DynamicExtraCostTypeID,
		d.UsageTypeID,
		d.Percent,
	).Error
}

func (r *repo) DivisionsFor(ctx context.Context, db *gorm.DB, typeID snowflake.ID) ([]extracostdomain.DynamicExtraCostDivision, error) {
	var divisions []extracostdomain.DynamicExtraCostDivision
	err := db.WithContext(ctx).Raw(
		`SELECT id, dynamic_extra_cost_type_id, usage_type_id, percent
		 FROM dynamic_extra_cost_divisions WHERE dynamic_extra_cost_type_id = ?
		 ORDER BY id`,
		typeID,
	).Scan(&divisions).Error
	if err != nil {
		return nil, err
	}
	return divisions, nil
}

func (r *repo) InsertDynamicExtraCost(ctx context.Context, db *gorm.DB, c *extracostdomain.DynamicExtraCost) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO dynamic_extra_costs (id, dynamic_extra_cost_type_id, cost, forecast_cost, start, "end")
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.DynamicExtraCostTypeID,
		c.Cost,
		c.ForecastCost,
		c.Start,
		c.End,
	).Error
}

func (r *repo) DynamicExtraCostsActive(ctx context.Context, db *gorm.DB, typeID snowflake.ID, date time.Time) ([]extracostdomain.DynamicExtraCost, error) {
	var costs []extracostdomain.DynamicExtraCost
	err := db.WithContext(ctx).Raw(
		`SELECT id, dynamic_extra_cost_type_id, cost, forecast_cost, start, "end"
		 FROM dynamic_extra_costs
		 WHERE dynamic_extra_cost_type_id = ? AND start <= ? AND "end" >= ?`,
		typeID,
		date,
		date,
	).Scan(&costs).Error
	if err != nil {
		return nil, err
	}
	return costs, nil
}
