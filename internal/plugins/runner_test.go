package plugins

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/scrooge/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRunner(t *testing.T, registry *Registry) *Runner {
	t.Helper()
	metrics.ResetPipelineMetricsForTest()
	return NewRunner(RunnerParams{Log: zap.NewNop(), Registry: registry})
}

func recording(order *[]string, name string, succeed bool) PluginFunc {
	return func(ctx context.Context, rc RunContext) (Result, error) {
		*order = append(*order, name)
		if !succeed {
			return Result{}, errors.New("boom")
		}
		return Result{Success: true}, nil
	}
}

func TestRunChainRespectsRequires(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "usages", recording(&order, "usages", true), WithRequires("services"))
	r.RegisterFunc(ChainCollect, "services", recording(&order, "services", true))

	runner := newTestRunner(t, r)
	report := runner.RunChain(context.Background(), ChainCollect, RunContext{})

	assert.Equal(t, []string{"services", "usages"}, order)
	assert.ElementsMatch(t, []string{"services", "usages"}, report.Done())
	assert.Empty(t, report.Failed())
}

func TestRunChainPriorityThenName(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "bravo", recording(&order, "bravo", true))
	r.RegisterFunc(ChainCollect, "alpha", recording(&order, "alpha", true))
	r.RegisterFunc(ChainCollect, "late", recording(&order, "late", true), WithPriority(1))
	r.RegisterFunc(ChainCollect, "first", recording(&order, "first", true), WithPriority(200))

	runner := newTestRunner(t, r)
	runner.RunChain(context.Background(), ChainCollect, RunContext{})

	assert.Equal(t, []string{"first", "alpha", "bravo", "late"}, order)
}

func TestRunChainFailureBlocksOnlyDependents(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "broken", recording(&order, "broken", false))
	r.RegisterFunc(ChainCollect, "child", recording(&order, "child", true), WithRequires("broken"))
	r.RegisterFunc(ChainCollect, "independent", recording(&order, "independent", true))

	runner := newTestRunner(t, r)
	report := runner.RunChain(context.Background(), ChainCollect, RunContext{})

	assert.NotContains(t, order, "child")
	assert.Contains(t, order, "independent")
	assert.Equal(t, []string{"independent"}, report.Done())
	assert.Equal(t, []string{"broken"}, report.Failed())
}

func TestRunChainRunsEachPluginOnce(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "flaky", recording(&order, "flaky", false))
	r.RegisterFunc(ChainCollect, "steady", recording(&order, "steady", true))

	runner := newTestRunner(t, r)
	runner.RunChain(context.Background(), ChainCollect, RunContext{})

	assert.Len(t, order, 2)
}

func TestRunChainRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "panicky", func(ctx context.Context, rc RunContext) (Result, error) {
		panic("kaboom")
	})
	r.RegisterFunc(ChainCollect, "survivor", okPlugin())

	runner := newTestRunner(t, r)
	report := runner.RunChain(context.Background(), ChainCollect, RunContext{})

	assert.Equal(t, []string{"survivor"}, report.Done())
	require.Equal(t, []string{"panicky"}, report.Failed())
	for _, outcome := range report.Outcomes {
		if outcome.Name == "panicky" {
			assert.ErrorContains(t, outcome.Err, "panicked")
		}
	}
}

func TestRunChainStopsOnCancelledContext(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "never", recording(&order, "never", true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(t, r)
	report := runner.RunChain(ctx, ChainCollect, RunContext{})

	assert.Empty(t, order)
	assert.Empty(t, report.Outcomes)
}

func TestRunPluginPropagatesError(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCosts, "bad", func(ctx context.Context, rc RunContext) (Result, error) {
		return Result{}, errors.New("boom")
	})

	runner := newTestRunner(t, r)
	_, err := runner.RunPlugin(context.Background(), ChainCosts, "bad", RunContext{})
	assert.ErrorContains(t, err, "boom")

	_, err = runner.RunPlugin(context.Background(), ChainCosts, "missing", RunContext{})
	assert.ErrorContains(t, err, "not registered")
}
