// Package collect holds the collect chain: plugins that bring external
// facts (service catalog, usage uploads, support contracts) into the
// canonical per-day schema, and the daily imprint of monthly extra costs.
// All writes are get-or-create on natural keys so a re-run of the chain for
// a date converges to the same state.
package collect

import (
	"time"

	"github.com/shopspring/decimal"
)

// Param keys the sync driver passes through the run context.
const (
	ParamServices = "services"
	ParamUsages   = "usages"
	ParamSupports = "supports"
)

// ServiceRecord is one service catalog entry from an external inventory.
type ServiceRecord struct {
	UID          string   `json:"uid"`
	Name         string   `json:"name"`
	Environments []string `json:"environments"`
}

// UsageRecord is one usage fact from an upload.
type UsageRecord struct {
	UsageTypeSymbol string          `json:"usage_type"`
	ServiceUID      string          `json:"service_uid"`
	Environment     string          `json:"environment"`
	Value           decimal.Decimal `json:"value"`
	PricingObject   string          `json:"pricing_object,omitempty"`
	Warehouse       string          `json:"warehouse,omitempty"`
}

// SupportContract is one support contract covering a set of pricing objects.
// The price is split evenly across the covered objects.
type SupportContract struct {
	UID               string          `json:"uid"`
	Name              string          `json:"name"`
	ExtraCostTypeName string          `json:"extra_cost_type"`
	Price             decimal.Decimal `json:"price"`
	DateFrom          time.Time       `json:"date_from"`
	DateTo            time.Time       `json:"date_to"`
	PricingObjectIDs  []string        `json:"pricing_objects"`
}
