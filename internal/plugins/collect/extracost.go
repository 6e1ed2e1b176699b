package collect

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scrooge/internal/costengine"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	"github.com/smallbiznis/scrooge/internal/plugins"
	"github.com/smallbiznis/scrooge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExtraCostImprintParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  extracostdomain.Repository
}

// ExtraCostImprintPlugin writes the daily value of every extra cost record
// covering the processing date. Range-mode records amortize the total over
// the inclusive day count of their own range; monthly-mode records divide
// the monthly total by the number of days of that calendar month. Re-runs
// update the existing imprint row instead of duplicating it.
type ExtraCostImprintPlugin struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  extracostdomain.Repository
}

func NewExtraCostImprintPlugin(p ExtraCostImprintParams) *ExtraCostImprintPlugin {
	return &ExtraCostImprintPlugin{
		db:    p.DB,
		log:   p.Log.Named("collect.extracost"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (p *ExtraCostImprintPlugin) Execute(ctx context.Context, rc plugins.RunContext) (plugins.Result, error) {
	records, err := p.repo.ExtraCostsForImprint(ctx, p.db, rc.Date)
	if err != nil {
		return plugins.Result{}, err
	}

	var created, updated int
	for _, record := range records {
		var value decimal.Decimal
		if record.Mode == extracostdomain.ExtraCostModeMonthly {
			value = costengine.MonthlyRate(record.EffectiveCost(rc.Forecast), rc.Date)
		} else {
			value = costengine.DailyRate(record.EffectiveCost(rc.Forecast), record.Start, record.End)
		}

		existing, err := p.repo.FindDailyExtraCost(ctx, p.db, rc.Date, record.ID)
		if err != nil {
			return plugins.Result{}, err
		}
		if existing != nil {
			if !existing.Value.Equal(value) {
				if err := p.repo.UpdateDailyExtraCostValue(ctx, p.db, existing.ID, value); err != nil {
					return plugins.Result{}, err
				}
				updated++
			}
			continue
		}

		imprint := extracostdomain.DailyExtraCost{
			ID:          p.genID.Generate(),
			Date:        rc.Date,
			ExtraCostID: record.ID,
			Value:       value,
		}
		if err := p.repo.InsertDailyExtraCost(ctx, p.db, &imprint); err != nil {
			if db.IsDuplicateKeyErr(err) {
				continue
			}
			return plugins.Result{}, err
		}
		created++
	}
	return plugins.Result{
		Success: true,
		Message: fmt.Sprintf("extra costs: %d records (%d new, %d updated)", len(records), created, updated),
	}, nil
}
