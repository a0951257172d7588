package rules_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bnema/streakwatch/internal/classify"
	"github.com/bnema/streakwatch/internal/rules"
	"github.com/bnema/streakwatch/internal/rules/mocks"
)

func TestReconcile_RemovesOnlyReservedIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	ctx := context.Background()

	installed := []rules.Rule{
		{ID: 1},                       // foreign rule, must survive
		{ID: rules.KeywordIDBase + 2}, // stale keyword rule
		{ID: rules.CustomIDBase},      // stale custom rule
		{ID: 50000},                   // foreign rule, must survive
	}
	fresh := rules.NewCompiler(classify.New(nil)).Compile([]string{"example.com"})

	engine.EXPECT().ListDynamicRules(ctx).Return(installed, nil)
	engine.EXPECT().UpdateDynamicRules(ctx, []int{rules.KeywordIDBase + 2, rules.CustomIDBase}, fresh).Return(nil)

	require.NoError(t, rules.Reconcile(ctx, engine, fresh))
}

func TestReconcile_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	ctx := context.Background()

	engine.EXPECT().ListDynamicRules(ctx).Return(nil, errors.New("engine unavailable"))

	err := rules.Reconcile(ctx, engine, nil)
	assert.ErrorContains(t, err, "list dynamic rules")
}

func TestReconcileBestEffort_SwallowsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	ctx := context.Background()

	engine.EXPECT().ListDynamicRules(ctx).Return(nil, errors.New("engine unavailable"))

	// Must not panic or propagate
	rules.ReconcileBestEffort(ctx, engine, nil)

	// Nil engine degrades to a no-op
	rules.ReconcileBestEffort(ctx, nil, nil)
}

func TestFileEngine_Convergence(t *testing.T) {
	ctx := context.Background()
	engine := rules.NewFileEngine(filepath.Join(t.TempDir(), "rules.json"))
	compiler := rules.NewCompiler(classify.New(nil))

	sites := []string{"example.com", "other.net"}
	compiled := compiler.Compile(sites)

	require.NoError(t, rules.Reconcile(ctx, engine, compiled))
	first, err := engine.ListDynamicRules(ctx)
	require.NoError(t, err)

	// Second run with unchanged input converges to the identical set
	require.NoError(t, rules.Reconcile(ctx, engine, compiler.Compile(sites)))
	second, err := engine.ListDynamicRules(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	seen := make(map[int]bool)
	for _, r := range second {
		assert.False(t, seen[r.ID], "duplicate rule id %d leaked", r.ID)
		seen[r.ID] = true
	}
}

func TestFileEngine_PreservesForeignRules(t *testing.T) {
	ctx := context.Background()
	engine := rules.NewFileEngine(filepath.Join(t.TempDir(), "rules.json"))

	foreign := rules.Rule{
		ID:       7,
		Priority: 1,
		Action:   rules.Action{Type: rules.ActionBlock},
		Condition: rules.Condition{
			URLFilter:     "tracker",
			ResourceTypes: []string{rules.ResourceMainFrame},
		},
	}
	require.NoError(t, engine.UpdateDynamicRules(ctx, nil, []rules.Rule{foreign}))

	compiled := rules.NewCompiler(classify.New(nil)).Compile([]string{"example.com"})
	require.NoError(t, rules.Reconcile(ctx, engine, compiled))

	installed, err := engine.ListDynamicRules(ctx)
	require.NoError(t, err)
	assert.Contains(t, installed, foreign)
}

func TestFileEngine_MissingFileIsEmpty(t *testing.T) {
	engine := rules.NewFileEngine(filepath.Join(t.TempDir(), "nope", "rules.json"))

	installed, err := engine.ListDynamicRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, installed)
}
