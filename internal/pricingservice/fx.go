package pricingservice

import (
	"github.com/smallbiznis/scrooge/internal/pricingservice/repository"
	"github.com/smallbiznis/scrooge/internal/pricingservice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricingservice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
