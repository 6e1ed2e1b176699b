package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"github.com/smallbiznis/scrooge/pkg/db"
	"github.com/smallbiznis/scrooge/pkg/timeutil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  usagedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  usagedomain.Repository
	genID *snowflake.Node
}

func New(p Params) usagedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("usage.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) EnsureUsageType(ctx context.Context, symbol, name string, kind usagedomain.UsageTypeKind) (*usagedomain.UsageType, error) {
	symbol = strings.TrimSpace(symbol)
	existing, err := s.repo.FindUsageTypeBySymbol(ctx, s.db, symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	ut := &usagedomain.UsageType{
		ID:       s.genID.Generate(),
		Symbol:   symbol,
		Name:     strings.TrimSpace(name),
		Kind:     kind,
		Rounding: 2,
		Active:   true,
	}
	if err := s.repo.InsertUsageType(ctx, s.db, ut); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindUsageTypeBySymbol(ctx, s.db, symbol)
		}
		return nil, err
	}
	return ut, nil
}

func (s *Service) UpsertDailyUsage(ctx context.Context, req usagedomain.UpsertDailyUsageRequest) (bool, error) {
	ut, err := s.repo.FindUsageTypeBySymbol(ctx, s.db, req.UsageTypeSymbol)
	if err != nil {
		return false, err
	}
	if ut == nil {
		ut, err = s.EnsureUsageType(ctx, req.UsageTypeSymbol, req.UsageTypeSymbol, usagedomain.UsageTypeKindBase)
		if err != nil {
			return false, err
		}
	}

	date := timeutil.Date(req.Date)
	existing, err := s.repo.FindDailyUsage(ctx, s.db, date, ut.ID, req.ServiceEnvironmentID, req.PricingObjectID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Value.Equal(req.Value) {
			return false, nil
		}
		return false, s.repo.UpdateDailyUsageValue(ctx, s.db, existing.ID, req.Value)
	}

	du := &usagedomain.DailyUsage{
		ID:                   s.genID.Generate(),
		Date:                 date,
		TypeID:               ut.ID,
		ServiceEnvironmentID: req.ServiceEnvironmentID,
		PricingObjectID:      req.PricingObjectID,
		WarehouseID:          req.WarehouseID,
		Value:                req.Value,
	}
	if err := s.repo.InsertDailyUsage(ctx, s.db, du); err != nil {
		if db.IsDuplicateKeyErr(err) {
			existing, ferr := s.repo.FindDailyUsage(ctx, s.db, date, ut.ID, req.ServiceEnvironmentID, req.PricingObjectID)
			if ferr == nil && existing != nil {
				return false, s.repo.UpdateDailyUsageValue(ctx, s.db, existing.ID, req.Value)
			}
		}
		return false, err
	}
	return true, nil
}

func (s *Service) PriceForDate(ctx context.Context, usageTypeID snowflake.ID, date time.Time, warehouseID *snowflake.ID) (*usagedomain.UsagePrice, error) {
	prices, err := s.repo.PricesCovering(ctx, s.db, usageTypeID, timeutil.Date(date), warehouseID)
	if err != nil {
		return nil, err
	}
	switch len(prices) {
	case 0:
		return nil, usagedomain.ErrNoPriceCost
	case 1:
		return &prices[0], nil
	default:
		return nil, usagedomain.ErrMultiplePriceCost
	}
}

func (s *Service) PriceRangeGaps(ctx context.Context, usageTypeID snowflake.ID) ([][2]time.Time, error) {
	prices, err := s.repo.ListUsagePriceRanges(ctx, s.db, usageTypeID)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, nil
	}

	intervals := make([]timeutil.Interval, 0, len(prices))
	for _, p := range prices {
		intervals = append(intervals, timeutil.Interval{
			Start: timeutil.Date(p.Start).Unix(),
			End:   timeutil.Date(p.End).Unix(),
		})
	}
	merged := timeutil.SumOfIntervals(intervals)

	var gaps [][2]time.Time
	for i := 1; i < len(merged); i++ {
		gapStart := time.Unix(merged[i-1].End, 0).UTC().AddDate(0, 0, 1)
		gapEnd := time.Unix(merged[i].Start, 0).UTC().AddDate(0, 0, -1)
		if !gapEnd.Before(gapStart) {
			gaps = append(gaps, [2]time.Time{timeutil.Date(gapStart), timeutil.Date(gapEnd)})
		}
	}
	return gaps, nil
}
