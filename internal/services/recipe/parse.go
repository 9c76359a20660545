package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/socialchef/leftovers/internal/validation"
)

// wireRecipe distinguishes a missing field from an empty one.
type wireRecipe struct {
	RecipeName    *string   `json:"recipeName"`
	Description   *string   `json:"description"`
	CookTime      *string   `json:"cookTime"`
	Difficulty    *string   `json:"difficulty"`
	Ingredients   *[]string `json:"ingredients"`
	Instructions  *[]string `json:"instructions"`
	ImageKeywords *string   `json:"imageKeywords"`
}

// ParseRecipes decodes a generated batch and validates every recipe and the
// batch as a whole. want is the exact batch size; zero skips the size check.
func ParseRecipes(text string, want int) ([]Recipe, error) {
	text = stripCodeFence(text)

	var wire []wireRecipe
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		var wrapped struct {
			Recipes []wireRecipe `json:"recipes"`
		}
		if json.Unmarshal([]byte(text), &wrapped) != nil || wrapped.Recipes == nil {
			return nil, fmt.Errorf("invalid recipe JSON: %w", err)
		}
		wire = wrapped.Recipes
	}

	if want > 0 && len(wire) != want {
		return nil, fmt.Errorf("expected %d recipes, got %d", want, len(wire))
	}

	recipes := make([]Recipe, 0, len(wire))
	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		r, err := w.toRecipe()
		if err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i+1, err)
		}
		key := strings.ToLower(r.RecipeName)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate recipe name %q", r.RecipeName)
		}
		seen[key] = struct{}{}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// Validate applies the generation rules to a recipe sent back by a client:
// all seven fields present and non-empty, a known difficulty. It returns the
// normalised recipe with its image reference kept.
func Validate(r Recipe) (Recipe, error) {
	difficulty := string(r.Difficulty)
	w := wireRecipe{
		RecipeName:    &r.RecipeName,
		Description:   &r.Description,
		CookTime:      &r.CookTime,
		Difficulty:    &difficulty,
		Ingredients:   &r.Ingredients,
		Instructions:  &r.Instructions,
		ImageKeywords: &r.ImageKeywords,
	}
	out, err := w.toRecipe()
	if err != nil {
		return Recipe{}, err
	}
	out.ImageURL = strings.TrimSpace(r.ImageURL)
	return out, nil
}

func (w wireRecipe) toRecipe() (Recipe, error) {
	text := map[string]*string{
		"recipeName":    w.RecipeName,
		"description":   w.Description,
		"cookTime":      w.CookTime,
		"difficulty":    w.Difficulty,
		"imageKeywords": w.ImageKeywords,
	}
	for _, field := range []string{"recipeName", "description", "cookTime", "difficulty", "imageKeywords"} {
		v := text[field]
		if v == nil {
			return Recipe{}, fmt.Errorf("missing field %s", field)
		}
		if validation.DetectPlaceholders(*v) {
			return Recipe{}, fmt.Errorf("empty field %s", field)
		}
	}

	ingredients, err := requiredList("ingredients", w.Ingredients)
	if err != nil {
		return Recipe{}, err
	}
	instructions, err := requiredList("instructions", w.Instructions)
	if err != nil {
		return Recipe{}, err
	}

	difficulty, err := ParseDifficulty(*w.Difficulty)
	if err != nil {
		return Recipe{}, err
	}

	return Recipe{
		RecipeName:    strings.TrimSpace(*w.RecipeName),
		Description:   strings.TrimSpace(*w.Description),
		CookTime:      strings.TrimSpace(*w.CookTime),
		Difficulty:    difficulty,
		Ingredients:   ingredients,
		Instructions:  instructions,
		ImageKeywords: strings.TrimSpace(*w.ImageKeywords),
	}, nil
}

func requiredList(field string, v *[]string) ([]string, error) {
	if v == nil {
		return nil, fmt.Errorf("missing field %s", field)
	}
	out := make([]string, 0, len(*v))
	for _, item := range *v {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty field %s", field)
	}
	return out, nil
}

// Some backends wrap JSON output in a markdown fence even in JSON mode.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
