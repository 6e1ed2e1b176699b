package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListTeams(ctx context.Context, db *gorm.DB, activeOnly bool) ([]Team, error)
	InsertTeam(ctx context.Context, db *gorm.DB, t *Team) error

	InsertTeamCost(ctx context.Context, db *gorm.DB, c *TeamCost) error
	// TeamCostsActive returns cost records of the team covering date.
	TeamCostsActive(ctx context.Context, db *gorm.DB, teamID snowflake.ID, date time.Time) ([]TeamCost, error)

	InsertPercent(ctx context.Context, db *gorm.DB, p *TeamServiceEnvironmentPercent) error
	PercentsFor(ctx context.Context, db *gorm.DB, teamCostID snowflake.ID) ([]TeamServiceEnvironmentPercent, error)
}
