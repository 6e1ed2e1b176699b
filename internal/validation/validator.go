// Package validation gates cost calculation: it checks a date's
// configuration and uploads before any cost plugin runs, collecting every
// problem into one error so operators can fix them in a single pass.
package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	psdomain "github.com/smallbiznis/scrooge/internal/pricingservice/domain"
	teamdomain "github.com/smallbiznis/scrooge/internal/team/domain"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Error carries every problem found for a date.
type Error struct {
	Date   time.Time
	Errors []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("errors detected for day %s: %s",
		e.Date.Format("2006-01-02"), strings.Join(e.Errors, "; "))
}

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Config         *config.Config
	CostRepo       costdomain.Repository
	ExtraCostRepo  extracostdomain.Repository
	TeamRepo       teamdomain.Repository
	UsageRepo      usagedomain.Repository
	PricingRepo    psdomain.Repository
	PricingService psdomain.Service
}

type Validator struct {
	db          *gorm.DB
	log         *zap.Logger
	epsilon     float64
	costRepo    costdomain.Repository
	extraRepo   extracostdomain.Repository
	teamRepo    teamdomain.Repository
	usageRepo   usagedomain.Repository
	pricingRepo psdomain.Repository
	pricingSvc  psdomain.Service
}

func New(p Params) *Validator {
	return &Validator{
		db:          p.DB,
		log:         p.Log.Named("validation"),
		epsilon:     p.Config.PercentEpsilon,
		costRepo:    p.CostRepo,
		extraRepo:   p.ExtraCostRepo,
		teamRepo:    p.TeamRepo,
		usageRepo:   p.UsageRepo,
		pricingRepo: p.PricingRepo,
		pricingSvc:  p.PricingService,
	}
}

// Validate runs every check for the date and returns a single *Error when
// anything failed.
func (v *Validator) Validate(ctx context.Context, date time.Time, forecast bool) error {
	var errs []string
	for _, check := range []func(context.Context, time.Time, bool) ([]string, error){
		v.checkDynamicExtraCosts,
		v.checkFixedPricePrices,
		v.checkWarehousePrices,
		v.checkTeamBillingTypes,
		v.checkTeamCosts,
		v.checkTeamTimeAllocations,
		v.checkUsageUploads,
		v.checkUsageTypePercents,
		v.checkAccepted,
		v.checkCycles,
	} {
		found, err := check(ctx, date, forecast)
		if err != nil {
			return err
		}
		errs = append(errs, found...)
	}
	if len(errs) > 0 {
		return &Error{Date: date, Errors: errs}
	}
	return nil
}

// checkDynamicExtraCosts flags types without costs for the date, divisions
// not summing to 100 and division usage types without uploads.
func (v *Validator) checkDynamicExtraCosts(ctx context.Context, date time.Time, forecast bool) ([]string, error) {
	types, err := v.extraRepo.ListDynamicExtraCostTypes(ctx, v.db)
	if err != nil {
		return nil, err
	}
	uploaded, err := v.uploadedTypeIDs(ctx, date)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, dect := range types {
		records, err := v.extraRepo.DynamicExtraCostsActive(ctx, v.db, dect.ID, date)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, record := range records {
			total = total.Add(record.EffectiveCost(forecast))
		}
		if total.IsZero() {
			errs = append(errs, fmt.Sprintf(
				"no %scost(s) defined for dynamic extra cost type %q",
				forecastPrefix(forecast), dect.Name))
		}

		divisions, err := v.extraRepo.DivisionsFor(ctx, v.db, dect.ID)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, division := range divisions {
			sum += division.Percent
			if _, ok := uploaded[division.UsageTypeID]; !ok {
				errs = append(errs, fmt.Sprintf(
					"no usage(s) uploaded for a usage type linked to dynamic extra cost type %q",
					dect.Name))
			}
		}
		if !v.sumsTo100(sum) {
			errs = append(errs, fmt.Sprintf(
				"divisions for dynamic extra cost type %q do not sum up to 100%% (it's %v%%)",
				dect.Name, sum))
		}
	}
	return errs, nil
}

// checkFixedPricePrices requires a cost or price for every usage type of an
// active fixed-price pricing service.
func (v *Validator) checkFixedPricePrices(ctx context.Context, date time.Time, forecast bool) ([]string, error) {
	services, err := v.pricingRepo.ListActive(ctx, v.db)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, ps := range services {
		if ps.PluginType != psdomain.PluginTypeFixedPrice {
			continue
		}
		splits, err := v.pricingRepo.UsageTypesCovering(ctx, v.db, ps.ID, date)
		if err != nil {
			return nil, err
		}
		for _, split := range splits {
			prices, err := v.usageRepo.PricesCovering(ctx, v.db, split.UsageTypeID, date, nil)
			if err != nil {
				return nil, err
			}
			defined := false
			for _, price := range prices {
				if !price.EffectiveCost(forecast).IsZero() || !price.EffectivePrice(forecast).IsZero() {
					defined = true
					break
				}
			}
			if !defined {
				errs = append(errs, fmt.Sprintf(
					"no %scost(s) or price(s) defined for a usage type of pricing service %q",
					forecastPrefix(forecast), ps.Name))
			}
		}
	}
	return errs, nil
}

// checkWarehousePrices requires by-warehouse usage types to price every
// reported warehouse, not just some.
func (v *Validator) checkWarehousePrices(ctx context.Context, date time.Time, _ bool) ([]string, error) {
	warehouses, err := v.usageRepo.ListWarehouses(ctx, v.db, true)
	if err != nil {
		return nil, err
	}
	if len(warehouses) == 0 {
		return nil, nil
	}
	reported := make(map[snowflake.ID]struct{}, len(warehouses))
	for _, warehouse := range warehouses {
		reported[warehouse.ID] = struct{}{}
	}

	types, err := v.usageRepo.ListUsageTypes(ctx, v.db, usagedomain.UsageTypeKindBase, true)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, ut := range types {
		if !ut.ByWarehouse {
			continue
		}
		prices, err := v.usageRepo.PricesCovering(ctx, v.db, ut.ID, date, nil)
		if err != nil {
			return nil, err
		}
		priced := make(map[snowflake.ID]struct{})
		for _, price := range prices {
			if price.WarehouseID == nil {
				continue
			}
			if _, ok := reported[*price.WarehouseID]; ok {
				priced[*price.WarehouseID] = struct{}{}
			}
		}
		if missing := len(reported) - len(priced); missing > 0 {
			errs = append(errs, fmt.Sprintf(
				"no usage price(s) for %d of %d active warehouse(s) defined for usage type %q",
				missing, len(reported), ut.Name))
		}
	}
	return errs, nil
}

// checkTeamBillingTypes flags active teams configured with a billing model
// the cost pipeline has no handler for.
func (v *Validator) checkTeamBillingTypes(ctx context.Context, _ time.Time, _ bool) ([]string, error) {
	teams, err := v.teamRepo.ListTeams(ctx, v.db, true)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, team := range teams {
		known := false
		for _, billing := range teamdomain.KnownBillingTypes {
			if team.BillingType == billing {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, fmt.Sprintf("team %q has unsupported billing type %q", team.Name, team.BillingType))
		}
	}
	return errs, nil
}

// checkTeamCosts flags active teams with no (or zero) cost for the date.
func (v *Validator) checkTeamCosts(ctx context.Context, date time.Time, forecast bool) ([]string, error) {
	teams, err := v.teamRepo.ListTeams(ctx, v.db, true)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, team := range teams {
		records, err := v.teamRepo.TeamCostsActive(ctx, v.db, team.ID, date)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, record := range records {
			total = total.Add(record.EffectiveCost(forecast))
		}
		if total.IsZero() {
			errs = append(errs, fmt.Sprintf(
				"no %scost(s) defined (or there are costs equal 0) for team %q",
				forecastPrefix(forecast), team.Name))
		}
	}
	return errs, nil
}

// checkTeamTimeAllocations requires time teams to allocate exactly 100%.
func (v *Validator) checkTeamTimeAllocations(ctx context.Context, date time.Time, _ bool) ([]string, error) {
	teams, err := v.teamRepo.ListTeams(ctx, v.db, true)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, team := range teams {
		if team.BillingType != teamdomain.TeamBillingTypeTime {
			continue
		}
		records, err := v.teamRepo.TeamCostsActive(ctx, v.db, team.ID, date)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, record := range records {
			percents, err := v.teamRepo.PercentsFor(ctx, v.db, record.ID)
			if err != nil {
				return nil, err
			}
			for _, percent := range percents {
				sum += percent.Percent
			}
		}
		if !v.sumsTo100(sum) {
			errs = append(errs, fmt.Sprintf(
				"time allocated for team %q does not sum up to 100%% (it's %v%%)",
				team.Name, sum))
		}
	}
	return errs, nil
}

// checkUsageUploads flags active usage types without any usage for the date,
// unless the type allows it. Service usage types count only when bound to an
// active pricing service for the date.
func (v *Validator) checkUsageUploads(ctx context.Context, date time.Time, _ bool) ([]string, error) {
	uploaded, err := v.uploadedTypeIDs(ctx, date)
	if err != nil {
		return nil, err
	}

	types, err := v.activeUsageTypes(ctx, date)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, ut := range types {
		if ut.AllowNoDailyUsage {
			continue
		}
		if _, ok := uploaded[ut.ID]; !ok {
			errs = append(errs, fmt.Sprintf("no usage(s) uploaded for usage type %q", ut.Name))
		}
	}
	return errs, nil
}

// checkUsageTypePercents requires each active non-fixed-price pricing
// service to declare splits summing to 100 for the date.
func (v *Validator) checkUsageTypePercents(ctx context.Context, date time.Time, _ bool) ([]string, error) {
	services, err := v.pricingRepo.ListActive(ctx, v.db)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, ps := range services {
		if ps.PluginType == psdomain.PluginTypeFixedPrice {
			continue
		}
		splits, err := v.pricingRepo.UsageTypesCovering(ctx, v.db, ps.ID, date)
		if err != nil {
			return nil, err
		}
		if len(splits) == 0 {
			errs = append(errs, fmt.Sprintf("no usage types for pricing service %q", ps.Name))
			continue
		}
		var sum float64
		for _, split := range splits {
			sum += split.Percent
		}
		if !v.sumsTo100(sum) {
			errs = append(errs, fmt.Sprintf(
				"usage types for pricing service %q do not sum up to 100%% (it's %v%%)",
				ps.Name, sum))
		}
	}
	return errs, nil
}

// checkAccepted refuses to recalculate a date whose costs were accepted.
func (v *Validator) checkAccepted(ctx context.Context, date time.Time, forecast bool) ([]string, error) {
	status, err := v.costRepo.FindStatus(ctx, v.db, date)
	if err != nil {
		return nil, err
	}
	if status != nil && status.IsAccepted(forecast) {
		return []string{"costs already accepted"}, nil
	}
	return nil, nil
}

// checkCycles refuses dates whose charge graph has cycles.
func (v *Validator) checkCycles(ctx context.Context, date time.Time, _ bool) ([]string, error) {
	cycles, err := v.pricingSvc.DetectCycles(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return nil, nil
	}
	paths := make([]string, 0, len(cycles))
	for _, cycle := range cycles {
		paths = append(paths, strings.Join(cycle, "->"))
	}
	return []string{fmt.Sprintf("cycle(s) detected: %s", strings.Join(paths, ", "))}, nil
}

func (v *Validator) uploadedTypeIDs(ctx context.Context, date time.Time) (map[snowflake.ID]struct{}, error) {
	ids, err := v.usageRepo.DistinctUsageTypeIDs(ctx, v.db, date)
	if err != nil {
		return nil, err
	}
	uploaded := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		uploaded[id] = struct{}{}
	}
	return uploaded, nil
}

func (v *Validator) activeUsageTypes(ctx context.Context, date time.Time) ([]usagedomain.UsageType, error) {
	types, err := v.usageRepo.ListUsageTypes(ctx, v.db, usagedomain.UsageTypeKindBase, true)
	if err != nil {
		return nil, err
	}

	// service usage types are in play only while an active pricing service
	// divides through them for the date
	services, err := v.pricingRepo.ListActive(ctx, v.db)
	if err != nil {
		return nil, err
	}
	bound := make(map[snowflake.ID]struct{})
	for _, ps := range services {
		splits, err := v.pricingRepo.UsageTypesCovering(ctx, v.db, ps.ID, date)
		if err != nil {
			return nil, err
		}
		for _, split := range splits {
			bound[split.UsageTypeID] = struct{}{}
		}
	}
	if len(bound) == 0 {
		return types, nil
	}

	serviceTypes, err := v.usageRepo.ListUsageTypes(ctx, v.db, usagedomain.UsageTypeKindService, true)
	if err != nil {
		return nil, err
	}
	for _, ut := range serviceTypes {
		if _, ok := bound[ut.ID]; ok {
			types = append(types, ut)
		}
	}
	return types, nil
}

func (v *Validator) sumsTo100(sum float64) bool {
	diff := sum - 100
	if diff < 0 {
		diff = -diff
	}
	return diff <= v.epsilon
}

func forecastPrefix(forecast bool) string {
	if forecast {
		return "forecast "
	}
	return ""
}
