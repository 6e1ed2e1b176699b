package support

import (
	"github.com/smallbiznis/scrooge/internal/support/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("support.repository",
	fx.Provide(repository.Provide),
)
