package recipe

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipeJSON(name, difficulty string) string {
	return fmt.Sprintf(`{"recipeName":%q,"description":"Tasty","cookTime":"20 minutes","difficulty":%q,"ingredients":["rice","egg"],"instructions":["Cook","Serve"],"imageKeywords":"fried rice"}`, name, difficulty)
}

func batch(items ...string) string {
	return "[" + strings.Join(items, ",") + "]"
}

func TestParseRecipes_Valid(t *testing.T) {
	text := batch(recipeJSON("A", "Easy"), recipeJSON("B", "Sedang"), recipeJSON("C", "hard"))

	recipes, err := ParseRecipes(text, 3)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "A", recipes[0].RecipeName)
	assert.Equal(t, DifficultyMedium, recipes[1].Difficulty)
	assert.Equal(t, DifficultyHard, recipes[2].Difficulty)
	assert.Equal(t, []string{"Cook", "Serve"}, recipes[0].Instructions)
	assert.Empty(t, recipes[0].ImageURL)
}

func TestParseRecipes_WrappedAndFenced(t *testing.T) {
	text := "```json\n{\"recipes\":" + batch(recipeJSON("A", "Easy"), recipeJSON("B", "Easy"), recipeJSON("C", "Easy")) + "}\n```"

	recipes, err := ParseRecipes(text, 3)
	require.NoError(t, err)
	assert.Len(t, recipes, 3)
}

func TestParseRecipes_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"not json", "the model is overloaded", "invalid recipe JSON"},
		{"too few", batch(recipeJSON("A", "Easy"), recipeJSON("B", "Easy")), "expected 3 recipes, got 2"},
		{"too many", batch(recipeJSON("A", "Easy"), recipeJSON("B", "Easy"), recipeJSON("C", "Easy"), recipeJSON("D", "Easy")), "expected 3 recipes, got 4"},
		{"duplicate names", batch(recipeJSON("A", "Easy"), recipeJSON("a", "Easy"), recipeJSON("C", "Easy")), "duplicate recipe name"},
		{"bad difficulty", batch(recipeJSON("A", "Easy"), recipeJSON("B", "Expert"), recipeJSON("C", "Easy")), "invalid difficulty"},
		{"missing field", batch(`{"recipeName":"A","description":"d","cookTime":"5m","difficulty":"Easy","ingredients":["x"],"instructions":["y"]}`, recipeJSON("B", "Easy"), recipeJSON("C", "Easy")), "missing field imageKeywords"},
		{"empty field", batch(strings.Replace(recipeJSON("A", "Easy"), `"Tasty"`, `"  "`, 1), recipeJSON("B", "Easy"), recipeJSON("C", "Easy")), "empty field description"},
		{"empty list", batch(strings.Replace(recipeJSON("A", "Easy"), `["rice","egg"]`, `[]`, 1), recipeJSON("B", "Easy"), recipeJSON("C", "Easy")), "empty field ingredients"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecipes(tt.text, 3)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRecipes_AnySize(t *testing.T) {
	recipes, err := ParseRecipes(batch(recipeJSON("A", "Easy")), 0)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestValidate(t *testing.T) {
	complete := Recipe{
		RecipeName:    " Fried Rice ",
		Description:   "Tasty",
		CookTime:      "20 minutes",
		Difficulty:    "mudah",
		Ingredients:   []string{"rice", " ", "egg"},
		Instructions:  []string{"Cook", "Serve"},
		ImageKeywords: "fried rice",
		ImageURL:      "https://cdn.example/rice.jpeg",
	}

	got, err := Validate(complete)
	require.NoError(t, err)
	assert.Equal(t, "Fried Rice", got.RecipeName)
	assert.Equal(t, DifficultyEasy, got.Difficulty)
	assert.Equal(t, []string{"rice", "egg"}, got.Ingredients)
	assert.Equal(t, "https://cdn.example/rice.jpeg", got.ImageURL)

	tests := map[string]func(r *Recipe){
		"name only":          func(r *Recipe) { *r = Recipe{RecipeName: "x"} },
		"missing difficulty": func(r *Recipe) { r.Difficulty = "" },
		"unknown difficulty": func(r *Recipe) { r.Difficulty = "Extreme" },
		"no ingredients":     func(r *Recipe) { r.Ingredients = nil },
		"blank instructions": func(r *Recipe) { r.Instructions = []string{""} },
		"blank keywords":     func(r *Recipe) { r.ImageKeywords = "  " },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := complete
			mutate(&r)
			_, err := Validate(r)
			assert.Error(t, err)
		})
	}
}
