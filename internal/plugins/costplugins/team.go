package costplugins

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/internal/costengine"
	teamdomain "github.com/smallbiznis/scrooge/internal/team/domain"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TeamParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    *config.Config
	Repo      teamdomain.Repository
	UsageRepo usagedomain.Repository
}

// TeamPlugin charges team costs back to service environments. Time teams
// split by declared percentages, usage teams proportionally to a usage type,
// distribute teams split over the other teams by member count first and then
// along each target's own model, and average teams follow the mean of the
// other teams' percentage divisions.
type TeamPlugin struct {
	db        *gorm.DB
	log       *zap.Logger
	epsilon   float64
	repo      teamdomain.Repository
	usageRepo usagedomain.Repository
}

func NewTeamPlugin(p TeamParams) *TeamPlugin {
	return &TeamPlugin{
		db:        p.DB,
		log:       p.Log.Named("costplugins.team"),
		epsilon:   p.Config.PercentEpsilon,
		repo:      p.Repo,
		usageRepo: p.UsageRepo,
	}
}

func (p *TeamPlugin) Name() string { return "team" }

func (p *TeamPlugin) Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error) {
	teams, err := p.repo.ListTeams(ctx, p.db, true)
	if err != nil {
		return nil, err
	}

	out := make(Costs)
	for _, team := range teams {
		daily, err := p.dailyCost(ctx, team, date, forecast)
		if err != nil {
			return nil, err
		}
		if daily.IsZero() {
			continue
		}

		var shares map[snowflake.ID]decimal.Decimal
		switch team.BillingType {
		case teamdomain.TeamBillingTypeDistribute:
			shares, err = p.distributeOverTeams(ctx, teams, team, daily, date, forecast)
		case teamdomain.TeamBillingTypeAverage:
			shares, err = p.averageOverTeams(ctx, teams, team, daily, date, forecast)
		case teamdomain.TeamBillingTypeTime, teamdomain.TeamBillingTypeUsage:
			shares, err = p.allocate(ctx, team, daily, date, forecast)
		default:
			p.log.Warn("no handler for billing type",
				zap.String("team", team.Name),
				zap.String("billing_type", string(team.BillingType)))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", team.Name, err)
		}

		for se, cost := range shares {
			out[se] = append(out[se], CostItem{
				TypeID: team.ID,
				Kind:   costdomain.CostKindTeam,
				Cost:   cost,
			})
		}
	}
	return out, nil
}

// TotalCostsFor sums team costs charged to a service environment subset.
func (p *TeamPlugin) TotalCostsFor(ctx context.Context, date time.Time, forecast bool, serviceEnvironmentIDs []snowflake.ID) ([]CostItem, error) {
	costs, err := p.Costs(ctx, date, forecast)
	if err != nil {
		return nil, err
	}
	return TotalsFor(costs, serviceEnvironmentIDs), nil
}

func (p *TeamPlugin) dailyCost(ctx context.Context, team teamdomain.Team, date time.Time, forecast bool) (decimal.Decimal, error) {
	records, err := p.repo.TeamCostsActive(ctx, p.db, team.ID, date)
	if err != nil {
		return decimal.Zero, err
	}
	daily := decimal.Zero
	for _, record := range records {
		daily = daily.Add(costengine.DailyRate(record.EffectiveCost(forecast), record.Start, record.End))
	}
	return daily, nil
}

// allocate splits an amount along the team's own model (time or usage).
func (p *TeamPlugin) allocate(ctx context.Context, team teamdomain.Team, amount decimal.Decimal, date time.Time, forecast bool) (map[snowflake.ID]decimal.Decimal, error) {
	switch team.BillingType {
	case teamdomain.TeamBillingTypeTime:
		return p.allocateByTime(ctx, team, amount, date, forecast)
	case teamdomain.TeamBillingTypeUsage:
		return p.allocateByUsage(ctx, team, amount, date)
	default:
		return nil, fmt.Errorf("unsupported billing type %s", team.BillingType)
	}
}

func (p *TeamPlugin) allocateByTime(ctx context.Context, team teamdomain.Team, amount decimal.Decimal, date time.Time, forecast bool) (map[snowflake.ID]decimal.Decimal, error) {
	records, err := p.repo.TeamCostsActive(ctx, p.db, team.ID, date)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	dailies := make([]decimal.Decimal, len(records))
	for i, record := range records {
		dailies[i] = costengine.DailyRate(record.EffectiveCost(forecast), record.Start, record.End)
		total = total.Add(dailies[i])
	}

	shares := make(map[snowflake.ID]decimal.Decimal)
	for i, record := range records {
		percents, err := p.repo.PercentsFor(ctx, p.db, record.ID)
		if err != nil {
			return nil, err
		}
		values := make([]float64, 0, len(percents))
		for _, percent := range percents {
			values = append(values, percent.Percent)
		}
		if err := costengine.ValidatePercents(team.Name, values, p.epsilon); err != nil {
			return nil, err
		}

		// each active record carries its proportional slice of the amount
		slice := costengine.Proportion(amount, dailies[i], total)
		for _, percent := range percents {
			se := percent.ServiceEnvironmentID
			shares[se] = shares[se].Add(costengine.Share(slice, percent.Percent))
		}
	}
	return shares, nil
}

func (p *TeamPlugin) allocateByUsage(ctx context.Context, team teamdomain.Team, amount decimal.Decimal, date time.Time) (map[snowflake.ID]decimal.Decimal, error) {
	if team.UsageTypeID == nil {
		return nil, fmt.Errorf("usage billing requires a usage type")
	}

	filter := usagedomain.UsageFilter{TypeID: *team.UsageTypeID, Date: &date}
	total, err := p.usageRepo.TotalUsage(ctx, p.db, filter)
	if err != nil {
		return nil, err
	}
	usages, err := p.usageRepo.UsagesPerServiceEnvironment(ctx, p.db, filter)
	if err != nil {
		return nil, err
	}

	shares := make(map[snowflake.ID]decimal.Decimal)
	for _, usage := range usages {
		se := usage.ServiceEnvironmentID
		shares[se] = shares[se].Add(costengine.Proportion(amount, usage.Value, total))
	}
	return shares, nil
}

// averageOverTeams splits an average team's daily cost according to the mean
// of the other teams' percentage divisions. Every directly-allocating or
// distribute team's shares for the date are normalized to percents of that
// team's own daily cost, summed per service environment and divided by the
// number of participating teams; the amount follows the resulting
// distribution. Zero-cost teams count in the denominator, so part of the
// amount stays undistributed when a dependent team has no cost for the date.
func (p *TeamPlugin) averageOverTeams(ctx context.Context, teams []teamdomain.Team, source teamdomain.Team, amount decimal.Decimal, date time.Time, forecast bool) (map[snowflake.ID]decimal.Decimal, error) {
	percents := make(map[snowflake.ID]decimal.Decimal)
	var totalTeams int64
	for _, team := range teams {
		switch team.BillingType {
		case teamdomain.TeamBillingTypeTime, teamdomain.TeamBillingTypeUsage, teamdomain.TeamBillingTypeDistribute:
		default:
			continue
		}
		totalTeams++

		daily, err := p.dailyCost(ctx, team, date, forecast)
		if err != nil {
			return nil, err
		}
		if daily.IsZero() {
			continue
		}

		var shares map[snowflake.ID]decimal.Decimal
		if team.BillingType == teamdomain.TeamBillingTypeDistribute {
			shares, err = p.distributeOverTeams(ctx, teams, team, daily, date, forecast)
		} else {
			shares, err = p.allocate(ctx, team, daily, date, forecast)
		}
		if err != nil {
			return nil, fmt.Errorf("dependent team %s: %w", team.Name, err)
		}
		for se, cost := range shares {
			percents[se] = percents[se].Add(cost.Div(daily))
		}
	}
	if totalTeams == 0 {
		return nil, fmt.Errorf("no teams to average over")
	}

	shares := make(map[snowflake.ID]decimal.Decimal)
	for se, percent := range percents {
		shares[se] = amount.Mul(percent).Div(decimal.NewFromInt(totalTeams))
	}
	return shares, nil
}

// distributeOverTeams splits a distribute team's daily cost between the
// other teams proportionally to member count, then pushes each target's
// slice through that target's own allocation model.
func (p *TeamPlugin) distributeOverTeams(ctx context.Context, teams []teamdomain.Team, source teamdomain.Team, amount decimal.Decimal, date time.Time, forecast bool) (map[snowflake.ID]decimal.Decimal, error) {
	type target struct {
		team    teamdomain.Team
		members int64
	}
	var targets []target
	var totalMembers int64
	// only teams that allocate directly are distribution targets
	for _, team := range teams {
		if team.ID == source.ID ||
			(team.BillingType != teamdomain.TeamBillingTypeTime &&
				team.BillingType != teamdomain.TeamBillingTypeUsage) {
			continue
		}
		records, err := p.repo.TeamCostsActive(ctx, p.db, team.ID, date)
		if err != nil {
			return nil, err
		}
		var members int64
		for _, record := range records {
			members += int64(record.MembersCount)
		}
		if members > 0 {
			targets = append(targets, target{team: team, members: members})
			totalMembers += members
		}
	}
	if totalMembers == 0 {
		return nil, fmt.Errorf("no teams with members to distribute over")
	}

	shares := make(map[snowflake.ID]decimal.Decimal)
	for _, t := range targets {
		slice := costengine.Proportion(amount, decimal.NewFromInt(t.members), decimal.NewFromInt(totalMembers))
		allocated, err := p.allocate(ctx, t.team, slice, date, forecast)
		if err != nil {
			return nil, fmt.Errorf("target team %s: %w", t.team.Name, err)
		}
		for se, cost := range allocated {
			shares[se] = shares[se].Add(cost)
		}
	}
	return shares, nil
}
