package repository

import (
	"context"
	"time"

	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() costdomain.Repository {
	return &repo{}
}

func (r *repo) InsertDailyCosts(ctx context.Context, db *gorm.DB, costs []costdomain.DailyCost) error {
	if len(costs) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(costs, 500).Error
}

func (r *repo) DeleteDailyCosts(ctx context.Context, db *gorm.DB, date time.Time, forecast bool) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM daily_costs WHERE date = ? AND forecast = ?`,
		date,
		forecast,
	).Error
}

func (r *repo) AnyVerified(ctx context.Context, db *gorm.DB, date time.Time, forecast bool) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM daily_costs WHERE date = ? AND forecast = ? AND verified`,
		date,
		forecast,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListDailyCosts(ctx context.Context, db *gorm.DB, date time.Time, forecast bool) ([]costdomain.DailyCost, error) {
	var costs []costdomain.DailyCost
	err := db.WithContext(ctx).Raw(
		`SELECT id, date, service_environment_id, type_id, type_kind, parent_id, depth,
		        pricing_object_id, warehouse_id, value, cost, forecast, verified
		 FROM daily_costs WHERE date = ? AND forecast = ?
		 ORDER BY service_environment_id, depth, id`,
		date,
		forecast,
	).Scan(&costs).Error
	if err != nil {
		return nil, err
	}
	return costs, nil
}

func (r *repo) MarkVerified(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE daily_costs SET verified = ? WHERE date >= ? AND date <= ? AND forecast = ?`,
		true,
		dateFrom,
		dateTo,
		forecast,
	).Error
}

func (r *repo) FindStatus(ctx context.Context, db *gorm.DB, date time.Time) (*costdomain.CostDateStatus, error) {
	var status costdomain.CostDateStatus
	err := db.WithContext(ctx).Raw(
		`SELECT id, date, calculated, forecast_calculated, accepted, forecast_accepted
		 FROM cost_date_statuses WHERE date = ?`,
		date,
	).Scan(&status).Error
	if err != nil {
		return nil, err
	}
	if status.ID == 0 {
		return nil, nil
	}
	return &status, nil
}

func (r *repo) UpsertStatus(ctx context.Context, db *gorm.DB, status *costdomain.CostDateStatus) error {
	existing, err := r.FindStatus(ctx, db, status.Date)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.WithContext(ctx).Exec(
			`INSERT INTO cost_date_statuses (id, date, calculated, forecast_calculated, accepted, forecast_accepted)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			status.ID,
			status.Date,
			status.Calculated,
			status.ForecastCalculated,
			status.Accepted,
			status.ForecastAccepted,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE cost_date_statuses
		 SET calculated = ?, forecast_calculated = ?, accepted = ?, forecast_accepted = ?
		 WHERE id = ?`,
		status.Calculated,
		status.ForecastCalculated,
		status.Accepted,
		status.ForecastAccepted,
		existing.ID,
	).Error
}

func (r *repo) CalculatedDates(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) ([]time.Time, error) {
	column := "calculated"
	if forecast {
		column = "forecast_calculated"
	}
	var dates []time.Time
	err := db.WithContext(ctx).Table("cost_date_statuses").
		Select("date").
		Where("date >= ? AND date <= ?", dateFrom, dateTo).
		Where(column).
		Order("date ASC").
		Scan(&dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *repo) MarkAccepted(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) error {
	column := "accepted"
	if forecast {
		column = "forecast_accepted"
	}
	return db.WithContext(ctx).Exec(
		`UPDATE cost_date_statuses SET `+column+` = ? WHERE date >= ? AND date <= ?`,
		true,
		dateFrom,
		dateTo,
	).Error
}

func (r *repo) AggregateAccepted(ctx context.Context, db *gorm.DB, dateFrom, dateTo time.Time, forecast bool) ([]costdomain.AcceptedCostRow, error) {
	column := "accepted"
	if forecast {
		column = "forecast_accepted"
	}
	var rows []costdomain.AcceptedCostRow
	err := db.WithContext(ctx).Raw(
		`SELECT s.ci_uid AS service_uid, e.name AS environment, ROUND(SUM(dc.cost), 2) AS total_cost
		 FROM daily_costs dc
		 JOIN service_environments se ON se.id = dc.service_environment_id
		 JOIN services s ON s.id = se.service_id
		 JOIN environments e ON e.id = se.environment_id
		 JOIN cost_date_statuses cds ON cds.date = dc.date AND cds.`+column+`
		 WHERE dc.date >= ? AND dc.date <= ? AND dc.forecast = ? AND dc.depth = 0
		 GROUP BY s.ci_uid, e.name
		 ORDER BY s.ci_uid, e.name`,
		dateFrom,
		dateTo,
		forecast,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
