package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	psdomain "github.com/smallbiznis/scrooge/internal/pricingservice/domain"
	"github.com/smallbiznis/scrooge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  psdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  psdomain.Repository
	genID *snowflake.Node
}

func New(p Params) psdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricingservice.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) EnsurePricingService(ctx context.Context, name, symbol string, pluginType psdomain.PluginType) (*psdomain.PricingService, bool, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, false, psdomain.ErrInvalidSymbol
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, psdomain.ErrInvalidName
	}
	if pluginType == "" {
		pluginType = psdomain.PluginTypeUniversal
	}

	existing, err := s.repo.FindBySymbol(ctx, s.db, symbol)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	ps := &psdomain.PricingService{
		ID:         s.genID.Generate(),
		Name:       name,
		Symbol:     symbol,
		PluginType: pluginType,
		Active:     true,
	}
	if err := s.repo.Insert(ctx, s.db, ps); err != nil {
		if db.IsDuplicateKeyErr(err) {
			existing, ferr := s.repo.FindBySymbol(ctx, s.db, symbol)
			if ferr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return ps, true, nil
}

func (s *Service) ListActive(ctx context.Context) ([]psdomain.PricingService, error) {
	return s.repo.ListActive(ctx, s.db)
}

// DependencyGraph builds the charge graph for one day. For every non
// fixed-price pricing service ps and every service it depended on that day,
// an edge dependent -> ps is added: the dependent's cost is charged to ps.
func (s *Service) DependencyGraph(ctx context.Context, date time.Time) (psdomain.Graph, error) {
	services, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}

	graph := make(psdomain.Graph)
	for _, ps := range services {
		if ps.PluginType == psdomain.PluginTypeFixedPrice {
			continue
		}
		deps, err := s.repo.DependentPricingServiceIDs(ctx, s.db, ps.ID, date, nil)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			graph[dep] = append(graph[dep], ps.ID)
		}
	}
	return graph, nil
}

func (s *Service) DetectCycles(ctx context.Context, date time.Time) ([][]string, error) {
	graph, err := s.DependencyGraph(ctx, date)
	if err != nil {
		return nil, err
	}

	services, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	symbols := make(map[snowflake.ID]string, len(services))
	for _, ps := range services {
		symbols[ps.ID] = ps.Symbol
	}

	visited := make(map[snowflake.ID]bool)
	var stack []snowflake.ID
	var cycles [][]snowflake.ID
	// every node is tried as a traversal root so disconnected parts of the
	// graph are covered too
	for _, node := range sortedNodes(graph) {
		cycles = append(cycles, walk(node, graph, visited, &stack)...)
	}

	out := make([][]string, 0, len(cycles))
	for _, cycle := range cycles {
		path := make([]string, 0, len(cycle))
		for _, id := range cycle {
			path = append(path, symbols[id])
		}
		out = append(out, path)
	}
	if len(out) > 0 {
		s.log.Warn("charge cycles detected",
			zap.Time("date", date),
			zap.Int("cycles", len(out)),
		)
	}
	return out, nil
}

// walk runs a DFS from node. Hitting a node already on the current path
// closes a cycle: the path suffix from that node, with the node repeated at
// the end. The visited set is shared across roots so each node is expanded
// once.
func walk(node snowflake.ID, graph psdomain.Graph, visited map[snowflake.ID]bool, stack *[]snowflake.ID) [][]snowflake.ID {
	for i, onPath := range *stack {
		if onPath == node {
			cycle := make([]snowflake.ID, 0, len(*stack)-i+1)
			cycle = append(cycle, (*stack)[i:]...)
			cycle = append(cycle, node)
			return [][]snowflake.ID{cycle}
		}
	}
	if visited[node] {
		return nil
	}
	visited[node] = true
	*stack = append(*stack, node)
	var cycles [][]snowflake.ID
	for _, next := range graph[node] {
		cycles = append(cycles, walk(next, graph, visited, stack)...)
	}
	*stack = (*stack)[:len(*stack)-1]
	return cycles
}

func sortedNodes(graph psdomain.Graph) []snowflake.ID {
	nodes := make([]snowflake.ID, 0, len(graph))
	for id := range graph {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
