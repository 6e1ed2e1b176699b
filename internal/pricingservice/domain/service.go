package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Graph is the charge dependency graph between pricing services for one day.
// An edge from A to B means A charges B: some of A's cost lands on the
// service environments assigned to B.
type Graph map[snowflake.ID][]snowflake.ID

// Service is the pricing-service configuration and dependency API.
type Service interface {
	EnsurePricingService(ctx context.Context, name, symbol string, pluginType PluginType) (*PricingService, bool, error)
	ListActive(ctx context.Context) ([]PricingService, error)

	// DependencyGraph builds the charge graph between non-fixed-price
	// pricing services for the given date.
	DependencyGraph(ctx context.Context, date time.Time) (Graph, error)
	// DetectCycles reports every charge cycle for the date as a path of
	// pricing service symbols, first symbol repeated at the end.
	DetectCycles(ctx context.Context, date time.Time) ([][]string, error)
}

var (
	ErrInvalidSymbol = errors.New("invalid_pricing_service_symbol")
	ErrInvalidName   = errors.New("invalid_pricing_service_name")
)
