package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/scrooge/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Outcome records one plugin execution within a chain run.
type Outcome struct {
	Name     string
	Success  bool
	Message  string
	Err      error
	Duration time.Duration
}

// ChainReport summarizes a full driver loop over a chain.
type ChainReport struct {
	Chain    string
	Outcomes []Outcome
}

// Done returns the names of plugins that completed successfully.
func (r ChainReport) Done() []string {
	var done []string
	for _, o := range r.Outcomes {
		if o.Success {
			done = append(done, o.Name)
		}
	}
	return done
}

// Failed returns the names of plugins that were attempted and did not succeed.
func (r ChainReport) Failed() []string {
	var failed []string
	for _, o := range r.Outcomes {
		if !o.Success {
			failed = append(failed, o.Name)
		}
	}
	return failed
}

type RunnerParams struct {
	fx.In

	Log      *zap.Logger
	Registry *Registry
}

// Runner drives plugin chains: it repeatedly picks the highest-priority
// runnable plugin and executes it until no progress is possible.
type Runner struct {
	log      *zap.Logger
	registry *Registry
	metrics  *metrics.PipelineMetrics
}

func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		log:      p.Log.Named("plugins.runner"),
		registry: p.Registry,
		metrics:  metrics.Pipeline(),
	}
}

// RunChain executes a chain for the given run context. Each plugin runs at
// most once. A failing plugin blocks only the plugins that require it; the
// loop keeps going through unrelated branches and stops when nothing new is
// runnable. Partial completion is reported, not raised: the next run starts
// from scratch and processing is idempotent per date.
func (r *Runner) RunChain(ctx context.Context, chain string, rc RunContext) ChainReport {
	r.metrics.IncChainRun(chain)
	report := ChainReport{Chain: chain}
	done := make(map[string]struct{})
	tried := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			r.log.Warn("chain interrupted",
				zap.String("chain", chain),
				zap.Error(err),
			)
			return report
		}

		var toRun []string
		for _, name := range r.registry.Possible(chain, done) {
			if _, ok := tried[name]; !ok {
				toRun = append(toRun, name)
			}
		}
		if len(toRun) == 0 {
			break
		}

		name := r.registry.HighestPriority(chain, toRun)
		tried[name] = struct{}{}

		outcome := r.execute(ctx, chain, name, rc)
		if outcome.Success {
			done[name] = struct{}{}
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if failed := report.Failed(); len(failed) > 0 {
		r.log.Warn("chain finished with failures",
			zap.String("chain", chain),
			zap.Strings("failed", failed),
			zap.Int("succeeded", len(report.Done())),
		)
	} else {
		r.log.Info("chain finished",
			zap.String("chain", chain),
			zap.Int("succeeded", len(report.Done())),
		)
	}
	return report
}

// RunPlugin executes exactly one named plugin, ignoring the dependency graph.
// Used for manual re-runs and backfills; failures propagate to the caller.
func (r *Runner) RunPlugin(ctx context.Context, chain, name string, rc RunContext) (Result, error) {
	plugin, err := r.registry.Get(chain, name)
	if err != nil {
		return Result{}, err
	}
	started := time.Now()
	result, err := plugin.Execute(ctx, rc)
	r.metrics.ObservePluginDuration(chain, name, time.Since(started))
	if err != nil {
		r.metrics.IncPluginRun(chain, name, metrics.PluginStatusFailure)
		return result, err
	}
	r.metrics.IncPluginRun(chain, name, metrics.PluginStatusSuccess)
	return result, nil
}

func (r *Runner) execute(ctx context.Context, chain, name string, rc RunContext) (outcome Outcome) {
	outcome = Outcome{Name: name}
	started := time.Now()
	defer func() {
		outcome.Duration = time.Since(started)
		r.metrics.ObservePluginDuration(chain, name, outcome.Duration)
		status := metrics.PluginStatusSuccess
		if !outcome.Success {
			status = metrics.PluginStatusFailure
		}
		if recovered := recover(); recovered != nil {
			status = metrics.PluginStatusPanic
			outcome.Success = false
			outcome.Err = fmt.Errorf("plugin %s panicked: %v", name, recovered)
			r.log.Error("plugin panicked",
				zap.String("chain", chain),
				zap.String("plugin", name),
				zap.Any("panic", recovered),
			)
		}
		r.metrics.IncPluginRun(chain, name, status)
	}()

	plugin, err := r.registry.Get(chain, name)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	result, err := plugin.Execute(ctx, rc)
	outcome.Message = result.Message
	if err != nil {
		outcome.Err = err
		r.log.Warn("plugin failed",
			zap.String("chain", chain),
			zap.String("plugin", name),
			zap.Time("date", rc.Date),
			zap.Error(err),
		)
		return outcome
	}
	outcome.Success = result.Success
	r.log.Info("plugin finished",
		zap.String("chain", chain),
		zap.String("plugin", name),
		zap.Time("date", rc.Date),
		zap.Bool("success", result.Success),
		zap.String("message", result.Message),
	)
	return outcome
}
