package favorites

import (
	"context"
	"time"

	"github.com/socialchef/leftovers/internal/services/recipe"
)

// Repository is the remote store of favorites. Implementations must make
// Insert idempotent per (user id, recipe name).
type Repository interface {
	List(ctx context.Context, userID string) ([]recipe.Recipe, error)
	Insert(ctx context.Context, userID string, r recipe.Recipe) error
	Delete(ctx context.Context, userID, recipeName string) error
}

// Row is the persisted shape of a favorite, shared by the supabase and
// postgres backends.
type Row struct {
	UserID        string     `json:"user_id" db:"user_id"`
	RecipeName    string     `json:"recipe_name" db:"recipe_name"`
	Description   string     `json:"description" db:"description"`
	CookTime      string     `json:"cook_time" db:"cook_time"`
	Difficulty    string     `json:"difficulty" db:"difficulty"`
	Ingredients   []string   `json:"ingredients" db:"ingredients"`
	Instructions  []string   `json:"instructions" db:"instructions"`
	ImageKeywords string     `json:"image_keywords" db:"image_keywords"`
	ImageURL      *string    `json:"image_url" db:"image_url"`
	CreatedAt     *time.Time `json:"created_at,omitempty" db:"created_at"`
}

// ToRow maps a recipe to its persisted row.
func ToRow(userID string, r recipe.Recipe) Row {
	row := Row{
		UserID:        userID,
		RecipeName:    r.RecipeName,
		Description:   r.Description,
		CookTime:      r.CookTime,
		Difficulty:    string(r.Difficulty),
		Ingredients:   r.Ingredients,
		Instructions:  r.Instructions,
		ImageKeywords: r.ImageKeywords,
	}
	if r.ImageURL != "" {
		url := r.ImageURL
		row.ImageURL = &url
	}
	return row
}

// Recipe maps a persisted row back to a recipe. Unknown difficulty labels are
// kept verbatim rather than dropping the favorite.
func (row Row) Recipe() recipe.Recipe {
	difficulty, err := recipe.ParseDifficulty(row.Difficulty)
	if err != nil {
		difficulty = recipe.Difficulty(row.Difficulty)
	}
	r := recipe.Recipe{
		RecipeName:    row.RecipeName,
		Description:   row.Description,
		CookTime:      row.CookTime,
		Difficulty:    difficulty,
		Ingredients:   row.Ingredients,
		Instructions:  row.Instructions,
		ImageKeywords: row.ImageKeywords,
	}
	if row.ImageURL != nil {
		r.ImageURL = *row.ImageURL
	}
	return r
}
