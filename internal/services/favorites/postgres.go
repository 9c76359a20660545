package favorites

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/socialchef/leftovers/internal/services/recipe"
)

// Querier is the subset of pgxpool.Pool used by PostgresRepository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	listFavoritesSQL = `SELECT user_id, recipe_name, description, cook_time, difficulty,
       ingredients, instructions, image_keywords, image_url, created_at
FROM favorite_recipes
WHERE user_id = $1
ORDER BY created_at`

	insertFavoriteSQL = `INSERT INTO favorite_recipes
    (user_id, recipe_name, description, cook_time, difficulty, ingredients, instructions, image_keywords, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id, recipe_name) DO NOTHING`

	deleteFavoriteSQL = `DELETE FROM favorite_recipes WHERE user_id = $1 AND recipe_name = $2`
)

// PostgresRepository stores favorites directly in Postgres. The table is
// created by db.EnsureSchema.
type PostgresRepository struct {
	db Querier
}

func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (p *PostgresRepository) List(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	rows, err := p.db.Query(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}

	favorites, err := pgx.CollectRows(rows, pgx.RowToStructByName[Row])
	if err != nil {
		return nil, fmt.Errorf("failed to scan favorites: %w", err)
	}

	out := make([]recipe.Recipe, len(favorites))
	for i, row := range favorites {
		out[i] = row.Recipe()
	}
	return out, nil
}

func (p *PostgresRepository) Insert(ctx context.Context, userID string, r recipe.Recipe) error {
	row := ToRow(userID, r)
	_, err := p.db.Exec(ctx, insertFavoriteSQL,
		row.UserID, row.RecipeName, row.Description, row.CookTime, row.Difficulty,
		row.Ingredients, row.Instructions, row.ImageKeywords, row.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

func (p *PostgresRepository) Delete(ctx context.Context, userID, recipeName string) error {
	if _, err := p.db.Exec(ctx, deleteFavoriteSQL, userID, recipeName); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}
