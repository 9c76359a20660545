package favorites

import (
	"context"

	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/stretchr/testify/mock"
)

func sampleRecipe(name string) recipe.Recipe {
	return recipe.Recipe{
		RecipeName:    name,
		Description:   "Quick weeknight dinner",
		CookTime:      "20 minutes",
		Difficulty:    recipe.DifficultyEasy,
		Ingredients:   []string{"rice", "egg", "soy sauce"},
		Instructions:  []string{"Heat the pan", "Fry the rice"},
		ImageKeywords: "fried rice",
		ImageURL:      "https://cdn.example/fried-rice.jpeg",
	}
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]recipe.Recipe)
	return list, args.Error(1)
}

func (m *mockRepository) Insert(ctx context.Context, userID string, r recipe.Recipe) error {
	return m.Called(ctx, userID, r).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, userID, recipeName string) error {
	return m.Called(ctx, userID, recipeName).Error(0)
}
