package team

import (
	"github.com/smallbiznis/scrooge/internal/team/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("team.repository",
	fx.Provide(repository.Provide),
)
