// Package costplugins holds the cost chain: one canonical plugin per cost
// concern, each producing a tree of daily cost items per service environment
// for the collector to flatten and persist.
package costplugins

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
)

// CostItem is one cost attribution produced by a plugin. Pricing service
// items keep their component breakdown in Children.
type CostItem struct {
	TypeID          snowflake.ID
	Kind            costdomain.CostKind
	Cost            decimal.Decimal
	Value           decimal.Decimal
	PricingObjectID *snowflake.ID
	WarehouseID     *snowflake.ID
	Children        []CostItem
}

// Costs maps a service environment to the cost items charged to it.
type Costs map[snowflake.ID][]CostItem

// Merge folds other into c.
func (c Costs) Merge(other Costs) {
	for se, items := range other {
		c[se] = append(c[se], items...)
	}
}

// CostPlugin computes one concern's daily costs. Plugins are pure readers:
// persisting the result is the collector's job.
type CostPlugin interface {
	Name() string
	Costs(ctx context.Context, date time.Time, forecast bool) (Costs, error)
}

type totalKey struct {
	typeID snowflake.ID
	kind   costdomain.CostKind
}

// TotalsFor aggregates distributed costs over a service environment subset
// into per-type totals, summing the children level by level. Used to price a
// service's own environments when building a pricing service's total cost.
func TotalsFor(costs Costs, serviceEnvironmentIDs []snowflake.ID) []CostItem {
	keep := make(map[snowflake.ID]struct{}, len(serviceEnvironmentIDs))
	for _, id := range serviceEnvironmentIDs {
		keep[id] = struct{}{}
	}
	var items []CostItem
	for se, seItems := range costs {
		if _, ok := keep[se]; !ok {
			continue
		}
		items = append(items, seItems...)
	}
	return sumByType(items)
}

func sumByType(items []CostItem) []CostItem {
	byType := make(map[totalKey]*CostItem)
	var order []totalKey
	for _, item := range items {
		key := totalKey{typeID: item.TypeID, kind: item.Kind}
		total, ok := byType[key]
		if !ok {
			total = &CostItem{TypeID: item.TypeID, Kind: item.Kind}
			byType[key] = total
			order = append(order, key)
		}
		total.Cost = total.Cost.Add(item.Cost)
		total.Value = total.Value.Add(item.Value)
		total.Children = append(total.Children, item.Children...)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].typeID < order[j].typeID })

	out := make([]CostItem, 0, len(order))
	for _, key := range order {
		total := byType[key]
		if len(total.Children) > 0 {
			total.Children = sumByType(total.Children)
		}
		out = append(out, *total)
	}
	return out
}

// SumItems returns the total cost of a set of items, children excluded
// (parents already carry their children's sum where applicable).
func SumItems(items []CostItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Cost)
	}
	return total
}
