package collect

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	extracostrepository "github.com/smallbiznis/scrooge/internal/extracost/repository"
	"github.com/smallbiznis/scrooge/internal/plugins"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newExtraCostImprintHarness(t *testing.T) (*ExtraCostImprintPlugin, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&extracostdomain.ExtraCostType{},
		&extracostdomain.ExtraCost{},
		&extracostdomain.DailyExtraCost{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	plugin := NewExtraCostImprintPlugin(ExtraCostImprintParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  extracostrepository.Provide(),
	})
	return plugin, db, node
}

func addExtraCost(t *testing.T, db *gorm.DB, node *snowflake.Node, cost int64, start, end time.Time, mode extracostdomain.ExtraCostMode) extracostdomain.ExtraCost {
	t.Helper()
	ect := extracostdomain.ExtraCostType{ID: node.Generate(), Name: "licence"}
	require.NoError(t, db.Create(&ect).Error)
	record := extracostdomain.ExtraCost{
		ID:                   node.Generate(),
		ExtraCostTypeID:      ect.ID,
		ServiceEnvironmentID: node.Generate(),
		Cost:                 decimal.NewFromInt(cost),
		ForecastCost:         decimal.NewFromInt(cost),
		Start:                start,
		End:                  end,
		Mode:                 mode,
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func TestExtraCostImprintRangeMode(t *testing.T) {
	plugin, db, node := newExtraCostImprintHarness(t)
	record := addExtraCost(t, db, node, 100,
		time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2013, 1, 5, 0, 0, 0, 0, time.UTC),
		extracostdomain.ExtraCostModeRange)

	date := time.Date(2013, 1, 4, 0, 0, 0, 0, time.UTC)
	result, err := plugin.Execute(context.Background(), plugins.RunContext{Date: date})
	require.NoError(t, err)
	assert.True(t, result.Success)

	var imprints []extracostdomain.DailyExtraCost
	require.NoError(t, db.Find(&imprints).Error)
	require.Len(t, imprints, 1)
	assert.Equal(t, record.ID, imprints[0].ExtraCostID)
	// 100 over the five days 2013-01-01..05 is 20.00 a day
	assert.True(t, imprints[0].Value.Equal(decimal.NewFromInt(20)), "got %s", imprints[0].Value)
}

func TestExtraCostImprintMonthlyMode(t *testing.T) {
	plugin, db, node := newExtraCostImprintHarness(t)
	addExtraCost(t, db, node, 280,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		extracostdomain.ExtraCostModeMonthly)

	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	_, err := plugin.Execute(context.Background(), plugins.RunContext{Date: date})
	require.NoError(t, err)

	var imprints []extracostdomain.DailyExtraCost
	require.NoError(t, db.Find(&imprints).Error)
	require.Len(t, imprints, 1)
	assert.True(t, imprints[0].Value.Equal(decimal.NewFromInt(10)), "got %s", imprints[0].Value)
}

func TestExtraCostImprintIdempotent(t *testing.T) {
	plugin, db, node := newExtraCostImprintHarness(t)
	addExtraCost(t, db, node, 100,
		time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2013, 1, 5, 0, 0, 0, 0, time.UTC),
		extracostdomain.ExtraCostModeRange)

	rc := plugins.RunContext{Date: time.Date(2013, 1, 4, 0, 0, 0, 0, time.UTC)}
	_, err := plugin.Execute(context.Background(), rc)
	require.NoError(t, err)
	_, err = plugin.Execute(context.Background(), rc)
	require.NoError(t, err)

	var imprints []extracostdomain.DailyExtraCost
	require.NoError(t, db.Find(&imprints).Error)
	assert.Len(t, imprints, 1)
}

func TestExtraCostImprintOutsideRangeIgnored(t *testing.T) {
	plugin, db, node := newExtraCostImprintHarness(t)
	addExtraCost(t, db, node, 100,
		time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2013, 1, 5, 0, 0, 0, 0, time.UTC),
		extracostdomain.ExtraCostModeRange)

	_, err := plugin.Execute(context.Background(), plugins.RunContext{
		Date: time.Date(2013, 1, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var imprints []extracostdomain.DailyExtraCost
	require.NoError(t, db.Find(&imprints).Error)
	assert.Empty(t, imprints)
}
