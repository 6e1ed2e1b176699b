package collect

import (
	"context"
	"fmt"

	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	"github.com/smallbiznis/scrooge/internal/plugins"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServicesParams struct {
	fx.In

	Log     *zap.Logger
	Catalog catalogdomain.CatalogService
}

// ServicesPlugin imprints the external service catalog: services, their
// environments and the service-environment pairs everything else hangs off.
// It runs first on the collect chain; usage and support collection require
// it.
type ServicesPlugin struct {
	log     *zap.Logger
	catalog catalogdomain.CatalogService
}

func NewServicesPlugin(p ServicesParams) *ServicesPlugin {
	return &ServicesPlugin{
		log:     p.Log.Named("collect.services"),
		catalog: p.Catalog,
	}
}

func (p *ServicesPlugin) Execute(ctx context.Context, rc plugins.RunContext) (plugins.Result, error) {
	records, _ := rc.Params[ParamServices].([]ServiceRecord)
	if len(records) == 0 {
		return plugins.Result{Success: true, Message: "no service records"}, nil
	}

	var created, seen int
	for _, record := range records {
		_, isNew, err := p.catalog.EnsureService(ctx, record.UID, record.Name)
		if err != nil {
			return plugins.Result{}, fmt.Errorf("service %s: %w", record.UID, err)
		}
		seen++
		if isNew {
			created++
		}
		for _, env := range record.Environments {
			if _, _, err := p.catalog.EnsureServiceEnvironment(ctx, record.UID, env); err != nil {
				return plugins.Result{}, fmt.Errorf("service %s env %s: %w", record.UID, env, err)
			}
		}
	}
	return plugins.Result{
		Success: true,
		Message: fmt.Sprintf("services: %d total (%d new)", seen, created),
	}, nil
}
