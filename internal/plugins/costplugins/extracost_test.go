package costplugins

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	extracostrepository "github.com/smallbiznis/scrooge/internal/extracost/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newExtraCostHarness(t *testing.T) (*ExtraCostPlugin, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&extracostdomain.ExtraCostType{},
		&extracostdomain.ExtraCost{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	plugin := NewExtraCostPlugin(ExtraCostParams{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: extracostrepository.Provide(),
	})
	return plugin, db, node
}

func TestExtraCostRangeAmortization(t *testing.T) {
	plugin, db, node := newExtraCostHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	ect := extracostdomain.ExtraCostType{ID: node.Generate(), Name: "licence"}
	require.NoError(t, db.Create(&ect).Error)

	se := node.Generate()
	require.NoError(t, db.Create(&extracostdomain.ExtraCost{
		ID:                   node.Generate(),
		ExtraCostTypeID:      ect.ID,
		ServiceEnvironmentID: se,
		Cost:                 decimal.NewFromInt(3100),
		Start:                time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:                  time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Mode:                 extracostdomain.ExtraCostModeRange,
	}).Error)

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)
	require.Len(t, costs[se], 1)
	item := costs[se][0]
	assert.Equal(t, ect.ID, item.TypeID)
	assert.Equal(t, costdomain.CostKindExtraCost, item.Kind)
	assert.True(t, item.Cost.Equal(decimal.NewFromInt(100)), "got %s", item.Cost)
}

func TestExtraCostMonthlyAmortization(t *testing.T) {
	plugin, db, node := newExtraCostHarness(t)
	// a monthly record spreads over the calendar month of the processing
	// date, not the record's own range
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	ect := extracostdomain.ExtraCostType{ID: node.Generate(), Name: "support"}
	require.NoError(t, db.Create(&ect).Error)

	se := node.Generate()
	require.NoError(t, db.Create(&extracostdomain.ExtraCost{
		ID:                   node.Generate(),
		ExtraCostTypeID:      ect.ID,
		ServiceEnvironmentID: se,
		Cost:                 decimal.NewFromInt(280),
		Start:                time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:                  time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Mode:                 extracostdomain.ExtraCostModeMonthly,
	}).Error)

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)
	require.Len(t, costs[se], 1)
	assert.True(t, costs[se][0].Cost.Equal(decimal.NewFromInt(10)), "got %s", costs[se][0].Cost)
}

func TestExtraCostOutsideRangeIgnored(t *testing.T) {
	plugin, db, node := newExtraCostHarness(t)

	ect := extracostdomain.ExtraCostType{ID: node.Generate(), Name: "licence"}
	require.NoError(t, db.Create(&ect).Error)
	require.NoError(t, db.Create(&extracostdomain.ExtraCost{
		ID:                   node.Generate(),
		ExtraCostTypeID:      ect.ID,
		ServiceEnvironmentID: node.Generate(),
		Cost:                 decimal.NewFromInt(100),
		Start:                time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		End:                  time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	}).Error)

	costs, err := plugin.Costs(context.Background(), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Empty(t, costs)
}

func TestExtraCostForecastVariant(t *testing.T) {
	plugin, db, node := newExtraCostHarness(t)
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	ect := extracostdomain.ExtraCostType{ID: node.Generate(), Name: "licence"}
	require.NoError(t, db.Create(&ect).Error)
	se := node.Generate()
	require.NoError(t, db.Create(&extracostdomain.ExtraCost{
		ID:                   node.Generate(),
		ExtraCostTypeID:      ect.ID,
		ServiceEnvironmentID: se,
		Cost:                 decimal.NewFromInt(10),
		ForecastCost:         decimal.NewFromInt(20),
		Start:                date,
		End:                  date,
	}).Error)

	actual, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)
	forecast, err := plugin.Costs(context.Background(), date, true)
	require.NoError(t, err)

	assert.True(t, actual[se][0].Cost.Equal(decimal.NewFromInt(10)))
	assert.True(t, forecast[se][0].Cost.Equal(decimal.NewFromInt(20)))
}

func TestTotalsForAggregatesSubset(t *testing.T) {
	node, _ := snowflake.NewNode(3)
	seA, seB := node.Generate(), node.Generate()
	typeID := node.Generate()

	costs := Costs{
		seA: {
			{TypeID: typeID, Kind: costdomain.CostKindExtraCost, Cost: decimal.NewFromInt(10)},
			{TypeID: typeID, Kind: costdomain.CostKindExtraCost, Cost: decimal.NewFromInt(5)},
		},
		seB: {
			{TypeID: typeID, Kind: costdomain.CostKindExtraCost, Cost: decimal.NewFromInt(100)},
		},
	}

	totals := TotalsFor(costs, []snowflake.ID{seA})
	require.Len(t, totals, 1)
	assert.True(t, totals[0].Cost.Equal(decimal.NewFromInt(15)), "got %s", totals[0].Cost)
}
