package collect

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/scrooge/internal/catalog/domain"
	extracostdomain "github.com/smallbiznis/scrooge/internal/extracost/domain"
	"github.com/smallbiznis/scrooge/internal/plugins"
	supportdomain "github.com/smallbiznis/scrooge/internal/support/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SupportParams struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          supportdomain.Repository
	CatalogRepo   catalogdomain.Repository
	ExtraCostRepo extracostdomain.Repository
}

// SupportPlugin imports support contracts: the contract price is split
// evenly across the pricing objects it covers, and objects dropped from a
// contract lose their cost row. Pricing objects must exist already (the
// services plugin is a prerequisite).
type SupportPlugin struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          supportdomain.Repository
	catalogRepo   catalogdomain.Repository
	extraCostRepo extracostdomain.Repository
}

func NewSupportPlugin(p SupportParams) *SupportPlugin {
	return &SupportPlugin{
		db:            p.DB,
		log:           p.Log.Named("collect.support"),
		genID:         p.GenID,
		repo:          p.Repo,
		catalogRepo:   p.CatalogRepo,
		extraCostRepo: p.ExtraCostRepo,
	}
}

func (p *SupportPlugin) Execute(ctx context.Context, rc plugins.RunContext) (plugins.Result, error) {
	contracts, _ := rc.Params[ParamSupports].([]SupportContract)
	if len(contracts) == 0 {
		return plugins.Result{Success: true, Message: "no support contracts"}, nil
	}

	var objects int
	for _, contract := range contracts {
		count, err := p.importContract(ctx, contract)
		if err != nil {
			return plugins.Result{}, fmt.Errorf("support %s: %w", contract.UID, err)
		}
		objects += count
	}
	return plugins.Result{
		Success: true,
		Message: fmt.Sprintf("supports: %d total (for %d objects)", len(contracts), objects),
	}, nil
}

func (p *SupportPlugin) importContract(ctx context.Context, contract SupportContract) (int, error) {
	if len(contract.PricingObjectIDs) == 0 {
		if _, err := p.repo.DeleteStale(ctx, p.db, contract.UID, nil); err != nil {
			return 0, err
		}
		return 0, nil
	}

	typeID, err := p.ensureExtraCostType(ctx, contract.ExtraCostTypeName)
	if err != nil {
		return 0, err
	}
	perObject := contract.Price.Div(decimal.NewFromInt(int64(len(contract.PricingObjectIDs))))

	var count int
	keep := make([]snowflake.ID, 0, len(contract.PricingObjectIDs))
	for _, externalID := range contract.PricingObjectIDs {
		po, err := p.catalogRepo.FindPricingObjectByExternalID(ctx, p.db, externalID)
		if err != nil {
			return count, err
		}
		if po == nil {
			p.log.Error("pricing object not found", zap.String("external_id", externalID))
			continue
		}

		existing, err := p.repo.FindByNaturalKey(ctx, p.db, contract.UID, po.ID)
		if err != nil {
			return count, err
		}
		if existing != nil {
			existing.Cost = perObject
			existing.ForecastCost = perObject
			existing.Start = contract.DateFrom
			existing.End = contract.DateTo
			existing.Remarks = contract.Name
			if err := p.repo.Update(ctx, p.db, existing); err != nil {
				return count, err
			}
			keep = append(keep, existing.ID)
			count++
			continue
		}

		cost := supportdomain.SupportCost{
			ID:              p.genID.Generate(),
			ExtraCostTypeID: typeID,
			SupportUID:      contract.UID,
			PricingObjectID: po.ID,
			Cost:            perObject,
			ForecastCost:    perObject,
			Start:           contract.DateFrom,
			End:             contract.DateTo,
			Remarks:         contract.Name,
		}
		if err := p.repo.Insert(ctx, p.db, &cost); err != nil {
			return count, err
		}
		keep = append(keep, cost.ID)
		count++
	}

	if _, err := p.repo.DeleteStale(ctx, p.db, contract.UID, keep); err != nil {
		return count, err
	}
	return count, nil
}

func (p *SupportPlugin) ensureExtraCostType(ctx context.Context, name string) (snowflake.ID, error) {
	if name == "" {
		name = "support"
	}
	types, err := p.extraCostRepo.ListExtraCostTypes(ctx, p.db)
	if err != nil {
		return 0, err
	}
	for _, t := range types {
		if t.Name == name {
			return t.ID, nil
		}
	}
	created := extracostdomain.ExtraCostType{ID: p.genID.Generate(), Name: name}
	if err := p.extraCostRepo.InsertExtraCostType(ctx, p.db, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}
