package extracost

import (
	"github.com/smallbiznis/scrooge/internal/extracost/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("extracost.repository",
	fx.Provide(repository.Provide),
)
