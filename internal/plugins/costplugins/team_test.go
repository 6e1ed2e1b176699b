package costplugins

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	teamdomain "github.com/smallbiznis/scrooge/internal/team/domain"
	teamrepository "github.com/smallbiznis/scrooge/internal/team/repository"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	usagerepository "github.com/smallbiznis/scrooge/internal/usage/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTeamHarness(t *testing.T) (*TeamPlugin, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&teamdomain.Team{},
		&teamdomain.TeamCost{},
		&teamdomain.TeamServiceEnvironmentPercent{},
		&usagedomain.UsageType{},
		&usagedomain.DailyUsage{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	plugin := NewTeamPlugin(TeamParams{
		DB:        db,
		Log:       zap.NewNop(),
		Config:    &config.Config{PercentEpsilon: 0.01},
		Repo:      teamrepository.Provide(),
		UsageRepo: usagerepository.Provide(),
	})
	return plugin, db, node
}

func addTeam(t *testing.T, db *gorm.DB, node *snowflake.Node, name string, billing teamdomain.TeamBillingType) teamdomain.Team {
	t.Helper()
	team := teamdomain.Team{
		ID:          node.Generate(),
		Name:        name,
		BillingType: billing,
		Active:      true,
	}
	require.NoError(t, db.Create(&team).Error)
	return team
}

func addTeamCost(t *testing.T, db *gorm.DB, node *snowflake.Node, team teamdomain.Team, cost int64, members int) teamdomain.TeamCost {
	t.Helper()
	record := teamdomain.TeamCost{
		ID:           node.Generate(),
		TeamID:       team.ID,
		Cost:         decimal.NewFromInt(cost),
		ForecastCost: decimal.NewFromInt(cost),
		Start:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		MembersCount: members,
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func addPercent(t *testing.T, db *gorm.DB, node *snowflake.Node, record teamdomain.TeamCost, se snowflake.ID, percent float64) {
	t.Helper()
	require.NoError(t, db.Create(&teamdomain.TeamServiceEnvironmentPercent{
		ID:                   node.Generate(),
		TeamCostID:           record.ID,
		ServiceEnvironmentID: se,
		Percent:              percent,
	}).Error)
}

func TestTeamTimeAllocation(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	team := addTeam(t, db, node, "core", teamdomain.TeamBillingTypeTime)
	record := addTeamCost(t, db, node, team, 3100, 5)
	seA, seB := node.Generate(), node.Generate()
	addPercent(t, db, node, record, seA, 75)
	addPercent(t, db, node, record, seB, 25)

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)

	require.Len(t, costs[seA], 1)
	require.Len(t, costs[seB], 1)
	assert.Equal(t, costdomain.CostKindTeam, costs[seA][0].Kind)
	assert.Equal(t, team.ID, costs[seA][0].TypeID)
	// 3100 over 31 days is 100/day, split 75/25
	assert.True(t, costs[seA][0].Cost.Equal(decimal.NewFromInt(75)), "got %s", costs[seA][0].Cost)
	assert.True(t, costs[seB][0].Cost.Equal(decimal.NewFromInt(25)), "got %s", costs[seB][0].Cost)
}

func TestTeamTimeAllocationBadPercents(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	team := addTeam(t, db, node, "core", teamdomain.TeamBillingTypeTime)
	record := addTeamCost(t, db, node, team, 3100, 5)
	addPercent(t, db, node, record, node.Generate(), 60)

	_, err := plugin.Costs(context.Background(), date, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core")
}

func TestTeamUsageAllocation(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	ut := usagedomain.UsageType{
		ID:     node.Generate(),
		Symbol: "tickets",
		Name:   "support tickets",
		Kind:   usagedomain.UsageTypeKindBase,
		Active: true,
	}
	require.NoError(t, db.Create(&ut).Error)

	team := addTeam(t, db, node, "support", teamdomain.TeamBillingTypeUsage)
	team.UsageTypeID = &ut.ID
	require.NoError(t, db.Save(&team).Error)
	addTeamCost(t, db, node, team, 3100, 3)

	seA, seB := node.Generate(), node.Generate()
	for se, value := range map[snowflake.ID]int64{seA: 30, seB: 10} {
		require.NoError(t, db.Create(&usagedomain.DailyUsage{
			ID:                   node.Generate(),
			Date:                 date,
			TypeID:               ut.ID,
			ServiceEnvironmentID: se,
			Value:                decimal.NewFromInt(value),
		}).Error)
	}

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)

	// 100/day split 30:10 across the two environments
	require.Len(t, costs[seA], 1)
	require.Len(t, costs[seB], 1)
	assert.True(t, costs[seA][0].Cost.Equal(decimal.NewFromInt(75)), "got %s", costs[seA][0].Cost)
	assert.True(t, costs[seB][0].Cost.Equal(decimal.NewFromInt(25)), "got %s", costs[seB][0].Cost)
}

func TestTeamDistributeOverTeams(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	seA, seB := node.Generate(), node.Generate()

	// two time teams with 3 and 1 members; each charges its own cost too
	big := addTeam(t, db, node, "big", teamdomain.TeamBillingTypeTime)
	bigCost := addTeamCost(t, db, node, big, 3100, 3)
	addPercent(t, db, node, bigCost, seA, 100)

	small := addTeam(t, db, node, "small", teamdomain.TeamBillingTypeTime)
	smallCost := addTeamCost(t, db, node, small, 3100, 1)
	addPercent(t, db, node, smallCost, seB, 100)

	mgmt := addTeam(t, db, node, "management", teamdomain.TeamBillingTypeDistribute)
	addTeamCost(t, db, node, mgmt, 3100, 2)

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)

	// seA: 100 from big + 75 (3/4 of management's 100); seB: 100 + 25
	var totalA, totalB decimal.Decimal
	for _, item := range costs[seA] {
		totalA = totalA.Add(item.Cost)
	}
	for _, item := range costs[seB] {
		totalB = totalB.Add(item.Cost)
	}
	assert.True(t, totalA.Equal(decimal.NewFromInt(175)), "got %s", totalA)
	assert.True(t, totalB.Equal(decimal.NewFromInt(125)), "got %s", totalB)
}

func TestTeamAverageOverTeams(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	seA, seB := node.Generate(), node.Generate()

	// big spends 75/25 across two environments, small is all-in on seB
	big := addTeam(t, db, node, "big", teamdomain.TeamBillingTypeTime)
	bigCost := addTeamCost(t, db, node, big, 3100, 3)
	addPercent(t, db, node, bigCost, seA, 75)
	addPercent(t, db, node, bigCost, seB, 25)

	small := addTeam(t, db, node, "small", teamdomain.TeamBillingTypeTime)
	smallCost := addTeamCost(t, db, node, small, 3100, 1)
	addPercent(t, db, node, smallCost, seB, 100)

	avg := addTeam(t, db, node, "office", teamdomain.TeamBillingTypeAverage)
	addTeamCost(t, db, node, avg, 3100, 2)

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)

	// office's 100/day follows the mean division: seA (0.75+0)/2 = 37.5%,
	// seB (0.25+1)/2 = 62.5%
	var avgA, avgB decimal.Decimal
	for _, item := range costs[seA] {
		if item.TypeID == avg.ID {
			avgA = avgA.Add(item.Cost)
		}
	}
	for _, item := range costs[seB] {
		if item.TypeID == avg.ID {
			avgB = avgB.Add(item.Cost)
		}
	}
	assert.True(t, avgA.Equal(decimal.NewFromFloat(37.5)), "got %s", avgA)
	assert.True(t, avgB.Equal(decimal.NewFromFloat(62.5)), "got %s", avgB)
}

func TestTeamUnknownBillingTypeSkipped(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	team := addTeam(t, db, node, "core", teamdomain.TeamBillingTypeTime)
	record := addTeamCost(t, db, node, team, 3100, 5)
	se := node.Generate()
	addPercent(t, db, node, record, se, 100)

	odd := addTeam(t, db, node, "odd", teamdomain.TeamBillingType("assets"))
	addTeamCost(t, db, node, odd, 3100, 2)

	costs, err := plugin.Costs(context.Background(), date, false)
	require.NoError(t, err)

	// the unhandled team contributes nothing and does not fail the run
	require.Len(t, costs[se], 1)
	assert.True(t, costs[se][0].Cost.Equal(decimal.NewFromInt(100)), "got %s", costs[se][0].Cost)
}

func TestTeamWithoutCostsSkipped(t *testing.T) {
	plugin, db, node := newTeamHarness(t)
	addTeam(t, db, node, "idle", teamdomain.TeamBillingTypeTime)

	costs, err := plugin.Costs(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Empty(t, costs)
}
