package favorites

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/socialchef/leftovers/internal/db"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQuerier struct {
	sql  []string
	args [][]any
	err  error
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return nil, q.err
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), q.err
}

func TestPostgresRepository_InsertArgs(t *testing.T) {
	q := &recordingQuerier{}
	repo := NewPostgresRepository(q)

	r := sampleRecipe("Fried Rice")
	require.NoError(t, repo.Insert(context.Background(), "user-1", r))

	require.Len(t, q.sql, 1)
	assert.Contains(t, q.sql[0], "ON CONFLICT (user_id, recipe_name) DO NOTHING")
	args := q.args[0]
	require.Len(t, args, 9)
	assert.Equal(t, "user-1", args[0])
	assert.Equal(t, "Fried Rice", args[1])
	assert.Equal(t, "Easy", args[4])
	assert.Equal(t, []string{"rice", "egg", "soy sauce"}, args[5])
	require.IsType(t, (*string)(nil), args[8])
	assert.Equal(t, r.ImageURL, *args[8].(*string))
}

func TestPostgresRepository_Errors(t *testing.T) {
	q := &recordingQuerier{err: errors.New("connection refused")}
	repo := NewPostgresRepository(q)
	ctx := context.Background()

	_, err := repo.List(ctx, "user-1")
	assert.ErrorContains(t, err, "failed to query favorites")
	assert.ErrorContains(t, repo.Insert(ctx, "user-1", sampleRecipe("Fried Rice")), "connection refused")
	assert.ErrorContains(t, repo.Delete(ctx, "user-1", "Fried Rice"), "failed to delete favorite")
}

// Runs against a real database when LEFTOVERS_TEST_DATABASE_URL is set.
func TestPostgresRepository_Integration(t *testing.T) {
	dsn := os.Getenv("LEFTOVERS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LEFTOVERS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.EnsureSchema(ctx, pool))

	userID := "test-" + t.Name()
	_, err = pool.Exec(ctx, "DELETE FROM favorite_recipes WHERE user_id = $1", userID)
	require.NoError(t, err)

	repo := NewPostgresRepository(pool)
	noImage := sampleRecipe("Omelette")
	noImage.ImageURL = ""

	require.NoError(t, repo.Insert(ctx, userID, sampleRecipe("Fried Rice")))
	require.NoError(t, repo.Insert(ctx, userID, sampleRecipe("Fried Rice")))
	require.NoError(t, repo.Insert(ctx, userID, noImage))

	list, err := repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []recipe.Recipe{sampleRecipe("Fried Rice"), noImage}, list)

	require.NoError(t, repo.Delete(ctx, userID, "Fried Rice"))
	list, err = repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, noImage, list[0])
}
