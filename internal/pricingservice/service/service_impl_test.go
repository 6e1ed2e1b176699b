package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	psdomain "github.com/smallbiznis/scrooge/internal/pricingservice/domain"
	"github.com/smallbiznis/scrooge/internal/pricingservice/repository"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestWalkFindsSimpleCycle(t *testing.T) {
	a, b := snowflake.ID(1), snowflake.ID(2)
	graph := psdomain.Graph{a: {b}, b: {a}}

	visited := make(map[snowflake.ID]bool)
	var stack []snowflake.ID
	cycles := walk(a, graph, visited, &stack)

	require.Len(t, cycles, 1)
	assert.Equal(t, []snowflake.ID{a, b, a}, cycles[0])
	assert.Empty(t, stack)
}

func TestWalkSelfLoop(t *testing.T) {
	a := snowflake.ID(1)
	graph := psdomain.Graph{a: {a}}

	visited := make(map[snowflake.ID]bool)
	var stack []snowflake.ID
	cycles := walk(a, graph, visited, &stack)

	require.Len(t, cycles, 1)
	assert.Equal(t, []snowflake.ID{a, a}, cycles[0])
}

func TestWalkAcyclicDiamond(t *testing.T) {
	a, b, c, d := snowflake.ID(1), snowflake.ID(2), snowflake.ID(3), snowflake.ID(4)
	graph := psdomain.Graph{a: {b, c}, b: {d}, c: {d}}

	visited := make(map[snowflake.ID]bool)
	var stack []snowflake.ID
	assert.Empty(t, walk(a, graph, visited, &stack))
}

func TestWalkSharedVisitedAcrossRoots(t *testing.T) {
	a, b, c := snowflake.ID(1), snowflake.ID(2), snowflake.ID(3)
	graph := psdomain.Graph{a: {b}, b: {c}, c: {b}}

	visited := make(map[snowflake.ID]bool)
	var stack []snowflake.ID
	var cycles [][]snowflake.ID
	for _, root := range []snowflake.ID{a, b, c} {
		cycles = append(cycles, walk(root, graph, visited, &stack)...)
	}
	require.Len(t, cycles, 1)
	assert.Equal(t, []snowflake.ID{b, c, b}, cycles[0])
}

type psFixture struct {
	ps     *psdomain.PricingService
	seID   snowflake.ID
	typeID snowflake.ID
}

type cycleHarness struct {
	t     *testing.T
	db    *gorm.DB
	node  *snowflake.Node
	svc   psdomain.Service
	envID snowflake.ID
}

func newCycleHarness(t *testing.T) *cycleHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Service{},
		&catalogdomain.Environment{},
		&catalogdomain.ServiceEnvironment{},
		&usagedomain.UsageType{},
		&usagedomain.DailyUsage{},
		&psdomain.PricingService{},
		&psdomain.PricingServiceService{},
		&psdomain.PricingServiceExcludedService{},
		&psdomain.ServiceUsageType{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	env := catalogdomain.Environment{ID: node.Generate(), Name: "prod"}
	require.NoError(t, db.Create(&env).Error)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return &cycleHarness{t: t, db: db, node: node, svc: svc, envID: env.ID}
}

// addPricingService creates a pricing service backed by one catalog service
// with one environment and one service usage type split.
func (h *cycleHarness) addPricingService(symbol string) psFixture {
	h.t.Helper()
	catalogSvc := catalogdomain.Service{
		ID:     h.node.Generate(),
		CIUID:  symbol,
		Name:   symbol,
		Active: true,
	}
	require.NoError(h.t, h.db.Create(&catalogSvc).Error)

	se := catalogdomain.ServiceEnvironment{
		ID:            h.node.Generate(),
		ServiceID:     catalogSvc.ID,
		EnvironmentID: h.envID,
	}
	require.NoError(h.t, h.db.Create(&se).Error)

	ps := psdomain.PricingService{
		ID:         h.node.Generate(),
		Name:       symbol,
		Symbol:     symbol,
		PluginType: psdomain.PluginTypeUniversal,
		Active:     true,
	}
	require.NoError(h.t, h.db.Create(&ps).Error)
	require.NoError(h.t, h.db.Create(&psdomain.PricingServiceService{
		PricingServiceID: ps.ID,
		ServiceID:        catalogSvc.ID,
	}).Error)

	ut := usagedomain.UsageType{
		ID:     h.node.Generate(),
		Symbol: symbol + "_usage",
		Name:   symbol + " usage",
		Kind:   usagedomain.UsageTypeKindService,
		Active: true,
	}
	require.NoError(h.t, h.db.Create(&ut).Error)
	require.NoError(h.t, h.db.Create(&psdomain.ServiceUsageType{
		ID:               h.node.Generate(),
		PricingServiceID: ps.ID,
		UsageTypeID:      ut.ID,
		Start:            time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		Percent:          100,
	}).Error)

	return psFixture{ps: &ps, seID: se.ID, typeID: ut.ID}
}

// consumes records that consumer used provider's service usage type on date,
// which makes provider charge consumer.
func (h *cycleHarness) consumes(consumer, provider psFixture, date time.Time) {
	h.t.Helper()
	require.NoError(h.t, h.db.Create(&usagedomain.DailyUsage{
		ID:                   h.node.Generate(),
		Date:                 date,
		TypeID:               provider.typeID,
		ServiceEnvironmentID: consumer.seID,
		Value:                decimal.NewFromInt(1),
	}).Error)
}

func TestDetectCyclesAcyclicChain(t *testing.T) {
	h := newCycleHarness(t)
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	a := h.addPricingService("alpha")
	b := h.addPricingService("beta")
	c := h.addPricingService("gamma")
	h.consumes(a, b, date)
	h.consumes(b, c, date)

	cycles, err := h.svc.DetectCycles(context.Background(), date)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestDetectCyclesTwoServiceLoop(t *testing.T) {
	h := newCycleHarness(t)
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	a := h.addPricingService("alpha")
	b := h.addPricingService("beta")
	h.consumes(a, b, date)
	h.consumes(b, a, date)

	cycles, err := h.svc.DetectCycles(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	require.Len(t, cycles[0], 3)
	assert.Equal(t, cycles[0][0], cycles[0][2])
	assert.ElementsMatch(t, []string{"alpha", "beta"}, cycles[0][:2])
}

func TestDetectCyclesThreeServiceLoop(t *testing.T) {
	h := newCycleHarness(t)
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	a := h.addPricingService("alpha")
	b := h.addPricingService("beta")
	c := h.addPricingService("gamma")
	h.consumes(a, b, date)
	h.consumes(b, c, date)
	h.consumes(c, a, date)

	cycles, err := h.svc.DetectCycles(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 4)
	assert.Equal(t, cycles[0][0], cycles[0][3])
}

func TestDetectCyclesIgnoresOtherDates(t *testing.T) {
	h := newCycleHarness(t)
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	other := date.AddDate(0, 0, 1)

	a := h.addPricingService("alpha")
	b := h.addPricingService("beta")
	h.consumes(a, b, date)
	h.consumes(b, a, other)

	cycles, err := h.svc.DetectCycles(context.Background(), date)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestEnsurePricingServiceGetOrCreate(t *testing.T) {
	h := newCycleHarness(t)
	ctx := context.Background()

	ps, created, err := h.svc.EnsurePricingService(ctx, "Databases", "db", psdomain.PluginTypeUniversal)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := h.svc.EnsurePricingService(ctx, "Databases", "db", psdomain.PluginTypeUniversal)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ps.ID, again.ID)

	_, _, err = h.svc.EnsurePricingService(ctx, "Databases", "  ", psdomain.PluginTypeUniversal)
	assert.ErrorIs(t, err, psdomain.ErrInvalidSymbol)
}
