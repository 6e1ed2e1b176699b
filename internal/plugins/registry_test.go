package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPlugin() PluginFunc {
	return func(ctx context.Context, rc RunContext) (Result, error) {
		return Result{Success: true}, nil
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(ChainCollect, "nope")
	assert.Error(t, err)
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "zeta", okPlugin())
	r.RegisterFunc(ChainCollect, "alpha", okPlugin())
	r.RegisterFunc(ChainCosts, "other", okPlugin())

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names(ChainCollect))
	assert.Equal(t, []string{"other"}, r.Names(ChainCosts))
}

func TestPossibleHonorsRequires(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "base", okPlugin())
	r.RegisterFunc(ChainCollect, "dependent", okPlugin(), WithRequires("base"))

	assert.Equal(t, []string{"base"}, r.Possible(ChainCollect, map[string]struct{}{}))
	assert.Equal(t, []string{"base", "dependent"},
		r.Possible(ChainCollect, map[string]struct{}{"base": {}}))
}

func TestHighestPriorityPrefersDeclaredPriority(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "low", okPlugin(), WithPriority(10))
	r.RegisterFunc(ChainCollect, "high", okPlugin(), WithPriority(200))
	r.RegisterFunc(ChainCollect, "normal", okPlugin())

	assert.Equal(t, "high", r.HighestPriority(ChainCollect, []string{"low", "high", "normal"}))
}

func TestHighestPriorityTieBreaksByName(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "bravo", okPlugin())
	r.RegisterFunc(ChainCollect, "alpha", okPlugin())

	assert.Equal(t, "alpha", r.HighestPriority(ChainCollect, []string{"bravo", "alpha"}))
}

func TestRegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(ChainCollect, "p", func(ctx context.Context, rc RunContext) (Result, error) {
		return Result{Success: true, Message: "first"}, nil
	})
	r.RegisterFunc(ChainCollect, "p", func(ctx context.Context, rc RunContext) (Result, error) {
		return Result{Success: true, Message: "second"}, nil
	})

	p, err := r.Get(ChainCollect, "p")
	require.NoError(t, err)
	result, err := p.Execute(context.Background(), RunContext{})
	require.NoError(t, err)
	assert.Equal(t, "second", result.Message)
}
