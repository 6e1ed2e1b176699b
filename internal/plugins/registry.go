package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Chain names used by the pipeline.
const (
	ChainCollect = "collect"
	ChainCosts   = "costs"
)

const defaultPriority = 100

// RunContext carries the processing date and driver arguments into a plugin.
type RunContext struct {
	// Date is the day being processed, truncated to midnight UTC.
	Date time.Time
	// Forecast selects forecast prices and costs over real ones.
	Forecast bool
	// Params holds driver-specific arguments keyed by name.
	Params map[string]any
}

// Result is what a plugin reports back. Success false without an error means
// the plugin declined the date (nothing to do is not a failure).
type Result struct {
	Success bool
	Message string
}

// Plugin is a unit of the collection or cost pipeline. Side effects (writing
// daily usage or cost rows) happen inside Execute; the runner only sequences.
type Plugin interface {
	Execute(ctx context.Context, rc RunContext) (Result, error)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(ctx context.Context, rc RunContext) (Result, error)

func (f PluginFunc) Execute(ctx context.Context, rc RunContext) (Result, error) {
	return f(ctx, rc)
}

type entry struct {
	plugin   Plugin
	requires map[string]struct{}
	priority int
}

// Registry maps chain names to named plugins with their prerequisites and
// priorities. It is constructed once at startup and handed to the runner;
// there is no process-global registration.
type Registry struct {
	mu     sync.RWMutex
	chains map[string]map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{chains: make(map[string]map[string]entry)}
}

// Option tweaks a registration.
type Option func(*entry)

// WithRequires declares plugins that must complete successfully before this
// one becomes runnable.
func WithRequires(names ...string) Option {
	return func(e *entry) {
		for _, name := range names {
			e.requires[name] = struct{}{}
		}
	}
}

// WithPriority overrides the default priority of 100. Higher runs first among
// equally runnable candidates.
func WithPriority(priority int) Option {
	return func(e *entry) {
		e.priority = priority
	}
}

// Register adds a plugin to a chain. Re-registering a name overwrites the
// previous registration.
func (r *Registry) Register(chain, name string, p Plugin, opts ...Option) {
	e := entry{
		plugin:   p,
		requires: make(map[string]struct{}),
		priority: defaultPriority,
	}
	for _, opt := range opts {
		opt(&e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chains[chain] == nil {
		r.chains[chain] = make(map[string]entry)
	}
	r.chains[chain][name] = e
}

// RegisterFunc is Register for plain functions.
func (r *Registry) RegisterFunc(chain, name string, f PluginFunc, opts ...Option) {
	r.Register(chain, name, f, opts...)
}

// Get returns the named plugin of a chain.
func (r *Registry) Get(chain, name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.chains[chain][name]
	if !ok {
		return nil, fmt.Errorf("plugin %s not registered on chain %s", name, chain)
	}
	return e.plugin, nil
}

// Names returns all plugin names of a chain, sorted.
func (r *Registry) Names(chain string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.chains[chain]))
	for name := range r.chains[chain] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Possible returns every plugin of a chain whose entire prerequisite set is
// contained in done.
func (r *Registry) Possible(chain string, done map[string]struct{}) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, e := range r.chains[chain] {
		satisfied := true
		for req := range e.requires {
			if _, ok := done[req]; !ok {
				satisfied = false
				break
			}
		}
		if satisfied {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HighestPriority selects the candidate with the highest declared priority.
// Remaining ties break by name so the pick is deterministic.
func (r *Registry) HighestPriority(chain string, candidates []string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	best := ""
	bestPriority := 0
	for _, name := range candidates {
		priority := defaultPriority
		if e, ok := r.chains[chain][name]; ok {
			priority = e.priority
		}
		if best == "" || priority > bestPriority || (priority == bestPriority && name < best) {
			best = name
			bestPriority = priority
		}
	}
	return best
}
