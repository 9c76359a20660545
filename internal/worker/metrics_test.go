package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerMetrics(t *testing.T) {
	m, err := NewWorkerMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.Start(ctx, TypeGenerateRecipes).done(ctx, 3)
		m.Start(ctx, TypeGenerateRecipes).failed(ctx, "GENERATION_FAILED")
	})
}

func TestWorkerMetrics_NilIsNoop(t *testing.T) {
	var m *WorkerMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.Start(ctx, TypeGenerateRecipes).done(ctx, 3)
		m.Start(ctx, TypeGenerateRecipes).failed(ctx, "X")
	})
}

func TestDescribe(t *testing.T) {
	task, err := NewGenerateRecipesTask(GenerateRecipesPayload{JobID: "j", UserID: "u", Ingredients: []string{"rice", "egg"}})
	require.NoError(t, err)

	info := describe(context.Background(), task)
	assert.Equal(t, "u", info.userID)
	assert.Equal(t, 2, info.ingredients)
	assert.Empty(t, info.id)
}
