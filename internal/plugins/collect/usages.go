package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	"github.com/smallbiznis/scrooge/internal/plugins"
	usagedomain "github.com/smallbiznis/scrooge/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UsagesParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Catalog     catalogdomain.CatalogService
	CatalogRepo catalogdomain.Repository
	UsageRepo   usagedomain.Repository
	Usage       usagedomain.Service
}

// UsagesPlugin upserts uploaded usage facts for the processing date. Unknown
// usage types and warehouses are created on first sight; service
// environments must already exist (the services plugin is a prerequisite).
type UsagesPlugin struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	catalog     catalogdomain.CatalogService
	catalogRepo catalogdomain.Repository
	usageRepo   usagedomain.Repository
	usage       usagedomain.Service
}

func NewUsagesPlugin(p UsagesParams) *UsagesPlugin {
	return &UsagesPlugin{
		db:          p.DB,
		log:         p.Log.Named("collect.usages"),
		genID:       p.GenID,
		catalog:     p.Catalog,
		catalogRepo: p.CatalogRepo,
		usageRepo:   p.UsageRepo,
		usage:       p.Usage,
	}
}

func (p *UsagesPlugin) Execute(ctx context.Context, rc plugins.RunContext) (plugins.Result, error) {
	records, _ := rc.Params[ParamUsages].([]UsageRecord)
	if len(records) == 0 {
		return plugins.Result{Success: true, Message: "no usage records"}, nil
	}

	var created int
	for _, record := range records {
		se, _, err := p.catalog.EnsureServiceEnvironment(ctx, record.ServiceUID, record.Environment)
		if err != nil {
			return plugins.Result{}, fmt.Errorf("usage for %s/%s: %w", record.ServiceUID, record.Environment, err)
		}

		var warehouseID *snowflake.ID
		if record.Warehouse != "" {
			id, err := p.ensureWarehouse(ctx, record.Warehouse)
			if err != nil {
				return plugins.Result{}, err
			}
			warehouseID = &id
		}

		var pricingObjectID *snowflake.ID
		if record.PricingObject != "" {
			po, err := p.ensurePricingObject(ctx, record.PricingObject, se.ID)
			if err != nil {
				return plugins.Result{}, err
			}
			pricingObjectID = &po
		}

		isNew, err := p.usage.UpsertDailyUsage(ctx, usagedomain.UpsertDailyUsageRequest{
			Date:                 rc.Date,
			UsageTypeSymbol:      record.UsageTypeSymbol,
			ServiceEnvironmentID: se.ID,
			PricingObjectID:      pricingObjectID,
			WarehouseID:          warehouseID,
			Value:                record.Value,
		})
		if err != nil {
			return plugins.Result{}, fmt.Errorf("usage %s for %s/%s: %w",
				record.UsageTypeSymbol, record.ServiceUID, record.Environment, err)
		}
		if isNew {
			created++
		}
	}
	return plugins.Result{
		Success: true,
		Message: fmt.Sprintf("usages: %d total (%d new)", len(records), created),
	}, nil
}

func (p *UsagesPlugin) ensureWarehouse(ctx context.Context, name string) (snowflake.ID, error) {
	warehouses, err := p.usageRepo.ListWarehouses(ctx, p.db, false)
	if err != nil {
		return 0, err
	}
	for _, warehouse := range warehouses {
		if warehouse.Name == name {
			return warehouse.ID, nil
		}
	}
	warehouse := usagedomain.Warehouse{ID: p.genID.Generate(), Name: name, ShowInReport: true}
	if err := p.usageRepo.InsertWarehouse(ctx, p.db, &warehouse); err != nil {
		return 0, err
	}
	return warehouse.ID, nil
}

func (p *UsagesPlugin) ensurePricingObject(ctx context.Context, externalID string, serviceEnvironmentID snowflake.ID) (snowflake.ID, error) {
	po, err := p.catalogRepo.FindPricingObjectByExternalID(ctx, p.db, externalID)
	if err != nil {
		return 0, err
	}
	if po != nil {
		return po.ID, nil
	}
	now := time.Now().UTC()
	created := catalogdomain.PricingObject{
		ID:                   p.genID.Generate(),
		Name:                 externalID,
		Type:                 catalogdomain.PricingObjectTypeAsset,
		ExternalID:           externalID,
		ServiceEnvironmentID: serviceEnvironmentID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := p.catalogRepo.InsertPricingObject(ctx, p.db, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}
