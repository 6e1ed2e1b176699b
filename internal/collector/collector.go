// Package collector drives the cost pipeline for a date: it validates the
// configuration, asks every cost plugin for its attributions, flattens the
// resulting trees and replaces the date's daily cost rows in one transaction.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/observability/metrics"
	"github.com/smallbiznis/scrooge/internal/plugins/costplugins"
	"github.com/smallbiznis/scrooge/internal/validation"
	"github.com/smallbiznis/scrooge/pkg/timeutil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrVerifiedCosts blocks recalculation of dates whose rows were verified.
var ErrVerifiedCosts = errors.New("costs for this date are verified and cannot be recalculated")

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    *config.Config
	GenID     *snowflake.Node
	CostRepo  costdomain.Repository
	Validator *validation.Validator
	Plugins   []costplugins.CostPlugin `group:"costplugins"`
}

type Collector struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	costRepo  costdomain.Repository
	validator *validation.Validator
	plugins   []costplugins.CostPlugin
	metrics   *metrics.PipelineMetrics
}

func New(p Params) *Collector {
	plugins := make([]costplugins.CostPlugin, len(p.Plugins))
	copy(plugins, p.Plugins)
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name() < plugins[j].Name() })
	return &Collector{
		db:        p.DB,
		log:       p.Log.Named("collector"),
		genID:     p.GenID,
		costRepo:  p.CostRepo,
		validator: p.Validator,
		plugins:   plugins,
		metrics:   metrics.Pipeline(),
	}
}

// Process computes and persists daily costs for one date. Dates already
// calculated are skipped unless force is set; dates with verified rows are
// never recalculated.
func (c *Collector) Process(ctx context.Context, date time.Time, forecast, force bool) error {
	date = timeutil.Date(date)
	log := c.log.With(
		zap.String("date", date.Format("2006-01-02")),
		zap.Bool("forecast", forecast),
	)

	status, err := c.costRepo.FindStatus(ctx, c.db, date)
	if err != nil {
		return err
	}
	if !force && status != nil && status.IsCalculated(forecast) {
		log.Info("costs already calculated, skipping")
		return nil
	}

	verified, err := c.costRepo.AnyVerified(ctx, c.db, date, forecast)
	if err != nil {
		return err
	}
	if verified {
		c.metrics.IncDateProcessed(metrics.PluginStatusFailure)
		return fmt.Errorf("%w: %s", ErrVerifiedCosts, date.Format("2006-01-02"))
	}

	if err := c.validator.Validate(ctx, date, forecast); err != nil {
		c.metrics.IncDateProcessed(metrics.PluginStatusFailure)
		return err
	}

	merged := costplugins.Costs{}
	for _, plugin := range c.plugins {
		if err := ctx.Err(); err != nil {
			return err
		}
		costs, err := plugin.Costs(ctx, date, forecast)
		if err != nil {
			c.metrics.IncDateProcessed(metrics.PluginStatusFailure)
			return fmt.Errorf("cost plugin %s: %w", plugin.Name(), err)
		}
		merged.Merge(costs)
		log.Debug("cost plugin finished", zap.String("plugin", plugin.Name()))
	}

	rows := c.flatten(merged, date, forecast)

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.costRepo.DeleteDailyCosts(ctx, tx, date, forecast); err != nil {
			return err
		}
		if err := c.costRepo.InsertDailyCosts(ctx, tx, rows); err != nil {
			return err
		}
		return c.upsertCalculated(ctx, tx, status, date, forecast)
	})
	if err != nil {
		c.metrics.IncDateProcessed(metrics.PluginStatusFailure)
		return err
	}

	c.metrics.IncDateProcessed(metrics.PluginStatusSuccess)
	c.metrics.AddCostsSaved(forecast, len(rows))
	log.Info("daily costs saved", zap.Int("rows", len(rows)))
	return nil
}

// ProcessPeriod runs Process for every date of the inclusive range. A failed
// date does not stop the remaining ones; the errors are joined.
func (c *Collector) ProcessPeriod(ctx context.Context, dateFrom, dateTo time.Time, forecast, force bool) error {
	var errs []error
	timeutil.EachDay(dateFrom, dateTo, func(day time.Time) {
		if ctx.Err() != nil {
			return
		}
		if err := c.Process(ctx, day, forecast, force); err != nil {
			c.log.Error("cost calculation failed",
				zap.String("date", day.Format("2006-01-02")),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", day.Format("2006-01-02"), err))
		}
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// Accept marks the range's calculated costs as accepted and the underlying
// rows as verified. Accepted dates reject recalculation from then on.
func (c *Collector) Accept(ctx context.Context, dateFrom, dateTo time.Time, forecast bool) error {
	dateFrom, dateTo = timeutil.Date(dateFrom), timeutil.Date(dateTo)
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.costRepo.MarkAccepted(ctx, tx, dateFrom, dateTo, forecast); err != nil {
			return err
		}
		return c.costRepo.MarkVerified(ctx, tx, dateFrom, dateTo, forecast)
	})
}

func (c *Collector) flatten(costs costplugins.Costs, date time.Time, forecast bool) []costdomain.DailyCost {
	var rows []costdomain.DailyCost
	var walk func(se snowflake.ID, item costplugins.CostItem, parentID *snowflake.ID, depth int)
	walk = func(se snowflake.ID, item costplugins.CostItem, parentID *snowflake.ID, depth int) {
		id := c.genID.Generate()
		rows = append(rows, costdomain.DailyCost{
			ID:                   id,
			Date:                 date,
			ServiceEnvironmentID: se,
			TypeID:               item.TypeID,
			TypeKind:             item.Kind,
			ParentID:             parentID,
			Depth:                depth,
			PricingObjectID:      item.PricingObjectID,
			WarehouseID:          item.WarehouseID,
			Value:                item.Value,
			Cost:                 item.Cost,
			Forecast:             forecast,
		})
		for _, child := range item.Children {
			walk(se, child, &id, depth+1)
		}
	}
	for se, items := range costs {
		for _, item := range items {
			walk(se, item, nil, 0)
		}
	}
	return rows
}

func (c *Collector) upsertCalculated(ctx context.Context, tx *gorm.DB, status *costdomain.CostDateStatus, date time.Time, forecast bool) error {
	if status == nil {
		status = &costdomain.CostDateStatus{ID: c.genID.Generate(), Date: date}
	}
	if forecast {
		status.ForecastCalculated = true
	} else {
		status.Calculated = true
	}
	return c.costRepo.UpsertStatus(ctx, tx, status)
}
