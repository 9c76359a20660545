package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/socialchef/leftovers/internal/services/recipe"
)

const maxTxAttempts = 5

// RedisRepository keeps each user's favorites as one JSON array under
// favorites:<user id>. Writes use WATCH/MULTI so concurrent updates to the
// same user never lose an entry.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(userID string) string {
	return "favorites:" + userID
}

func (r *RedisRepository) List(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	return load(ctx, r.client, redisKey(userID))
}

func (r *RedisRepository) Insert(ctx context.Context, userID string, rec recipe.Recipe) error {
	return r.update(ctx, userID, func(list []recipe.Recipe) ([]recipe.Recipe, bool) {
		if indexOf(list, rec.RecipeName) >= 0 {
			return list, false
		}
		return append(list, rec), true
	})
}

func (r *RedisRepository) Delete(ctx context.Context, userID, recipeName string) error {
	return r.update(ctx, userID, func(list []recipe.Recipe) ([]recipe.Recipe, bool) {
		i := indexOf(list, recipeName)
		if i < 0 {
			return list, false
		}
		return slices.Delete(list, i, i+1), true
	})
}

func (r *RedisRepository) update(ctx context.Context, userID string, apply func([]recipe.Recipe) ([]recipe.Recipe, bool)) error {
	key := redisKey(userID)

	txf := func(tx *redis.Tx) error {
		list, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		next, changed := apply(list)
		if !changed {
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for range maxTxAttempts {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("favorites update for %s kept conflicting", userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, key string) ([]recipe.Recipe, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []recipe.Recipe{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []recipe.Recipe
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("corrupt favorites at %s: %w", key, err)
	}
	return list, nil
}

func indexOf(list []recipe.Recipe, name string) int {
	return slices.IndexFunc(list, func(r recipe.Recipe) bool { return r.RecipeName == name })
}
