package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	usagerepository "github.com/smallbiznis/scrooge/internal/usage/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newUsageHarness(t *testing.T) (usagedomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&usagedomain.Warehouse{},
		&usagedomain.UsageType{},
		&usagedomain.UsagePrice{},
		&usagedomain.DailyUsage{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  usagerepository.Provide(),
	})
	return svc, db, node
}

func addPrice(t *testing.T, db *gorm.DB, node *snowflake.Node, typeID snowflake.ID, start, end time.Time, price int64) {
	t.Helper()
	require.NoError(t, db.Create(&usagedomain.UsagePrice{
		ID:     node.Generate(),
		TypeID: typeID,
		Start:  start,
		End:    end,
		Price:  decimal.NewFromInt(price),
	}).Error)
}

func TestPriceForDateSelectsCoveringRange(t *testing.T) {
	svc, db, node := newUsageHarness(t)
	ctx := context.Background()

	ut, err := svc.EnsureUsageType(ctx, "cpu", "cpu cores", usagedomain.UsageTypeKindBase)
	require.NoError(t, err)

	addPrice(t, db, node, ut.ID, day(2026, 8, 1), day(2026, 8, 15), 2)
	addPrice(t, db, node, ut.ID, day(2026, 8, 16), day(2026, 8, 31), 3)

	price, err := svc.PriceForDate(ctx, ut.ID, day(2026, 8, 10), nil)
	require.NoError(t, err)
	assert.True(t, price.Price.Equal(decimal.NewFromInt(2)))

	price, err = svc.PriceForDate(ctx, ut.ID, day(2026, 8, 16), nil)
	require.NoError(t, err)
	assert.True(t, price.Price.Equal(decimal.NewFromInt(3)))
}

func TestPriceForDateNoPrice(t *testing.T) {
	svc, _, node := newUsageHarness(t)
	_, err := svc.PriceForDate(context.Background(), node.Generate(), day(2026, 8, 1), nil)
	assert.ErrorIs(t, err, usagedomain.ErrNoPriceCost)
}

func TestPriceForDateMultiplePrices(t *testing.T) {
	svc, db, node := newUsageHarness(t)
	ctx := context.Background()

	ut, err := svc.EnsureUsageType(ctx, "cpu", "cpu cores", usagedomain.UsageTypeKindBase)
	require.NoError(t, err)
	addPrice(t, db, node, ut.ID, day(2026, 8, 1), day(2026, 8, 20), 2)
	addPrice(t, db, node, ut.ID, day(2026, 8, 10), day(2026, 8, 31), 3)

	_, err = svc.PriceForDate(ctx, ut.ID, day(2026, 8, 15), nil)
	assert.ErrorIs(t, err, usagedomain.ErrMultiplePriceCost)
}

func TestUpsertDailyUsageConverges(t *testing.T) {
	svc, db, node := newUsageHarness(t)
	ctx := context.Background()
	se := node.Generate()

	req := usagedomain.UpsertDailyUsageRequest{
		Date:                 day(2026, 8, 30),
		UsageTypeSymbol:      "cpu",
		ServiceEnvironmentID: se,
		Value:                decimal.NewFromInt(4),
	}
	created, err := svc.UpsertDailyUsage(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	req.Value = decimal.NewFromInt(8)
	created, err = svc.UpsertDailyUsage(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)

	var usages []usagedomain.DailyUsage
	require.NoError(t, db.Find(&usages).Error)
	require.Len(t, usages, 1)
	assert.True(t, usages[0].Value.Equal(decimal.NewFromInt(8)), "got %s", usages[0].Value)
}

func TestPriceRangeGaps(t *testing.T) {
	svc, db, node := newUsageHarness(t)
	ctx := context.Background()

	ut, err := svc.EnsureUsageType(ctx, "cpu", "cpu cores", usagedomain.UsageTypeKindBase)
	require.NoError(t, err)
	addPrice(t, db, node, ut.ID, day(2026, 8, 1), day(2026, 8, 10), 2)
	addPrice(t, db, node, ut.ID, day(2026, 8, 21), day(2026, 8, 31), 3)

	gaps, err := svc.PriceRangeGaps(ctx, ut.ID)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, day(2026, 8, 11), gaps[0][0])
	assert.Equal(t, day(2026, 8, 20), gaps[0][1])
}

func TestPriceRangeGapsContiguous(t *testing.T) {
	svc, db, node := newUsageHarness(t)
	ctx := context.Background()

	ut, err := svc.EnsureUsageType(ctx, "cpu", "cpu cores", usagedomain.UsageTypeKindBase)
	require.NoError(t, err)
	addPrice(t, db, node, ut.ID, day(2026, 8, 1), day(2026, 8, 15), 2)
	addPrice(t, db, node, ut.ID, day(2026, 8, 16), day(2026, 8, 31), 3)

	gaps, err := svc.PriceRangeGaps(ctx, ut.ID)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
