package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	teamdomain "github.com/smallbiznis/scrooge/internal/team/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() teamdomain.Repository {
	return &repo{}
}

func (r *repo) ListTeams(ctx context.Context, db *gorm.DB, activeOnly bool) ([]teamdomain.Team, error) {
	query := db.WithContext(ctx).Table("teams")
	if activeOnly {
		query = query.Where("active")
	}
	var teams []teamdomain.Team
	if err := query.Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repo) InsertTeam(ctx context.Context, db *gorm.DB, t *teamdomain.Team) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO teams (id, name, billing_type, usage_type_id, active)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID,
		t.Name,
		t.BillingType,
		t.UsageTypeID,
		t.Active,
	).Error
}

func (r *repo) InsertTeamCost(ctx context.Context, db *gorm.DB, c *teamdomain.TeamCost) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO team_costs (id, team_id, cost, forecast_cost, start, "end", members_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.TeamID,
		c.Cost,
		c.ForecastCost,
		c.Start,
		c.End,
		c.MembersCount,
	).Error
}

func (r *repo) TeamCostsActive(ctx context.Context, db *gorm.DB, teamID snowflake.ID, date time.Time) ([]teamdomain.TeamCost, error) {
	var costs []teamdomain.TeamCost
	err := db.WithContext(ctx).Raw(
		`SELECT id, team_id, cost, forecast_cost, start, "end", members_count
		 FROM team_costs WHERE team_id = ? AND start <= ? AND "end" >= ?`,
		teamID,
		date,
		date,
	).Scan(&costs).Error
	if err != nil {
		return nil, err
	}
	return costs, nil
}

func (r *repo) InsertPercent(ctx context.Context, db *gorm.DB, p *teamdomain.TeamServiceEnvironmentPercent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO team_service_environment_percents (id, team_cost_id, service_environment_id, percent)
		 VALUES (?, ?, ?, ?)`,
		p.ID,
		p.TeamCostID,
		p.ServiceEnvironmentID,
		p.Percent,
	).Error
}

func (r *repo) PercentsFor(ctx context.Context, db *gorm.DB, teamCostID snowflake.ID) ([]teamdomain.TeamServiceEnvironmentPercent, error) {
	var percents []teamdomain.TeamServiceEnvironmentPercent
	err := db.WithContext(ctx).Raw(
		`SELECT id, team_cost_id, service_environment_id, percent
		 FROM team_service_environment_percents WHERE team_cost_id = ?
		 ORDER BY id`,
		teamCostID,
	).Scan(&percents).Error
	if err != nil {
		return nil, err
	}
	return percents, nil
}
