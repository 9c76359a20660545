package worker

import (
	"github.com/hibiken/asynq"

	"github.com/socialchef/leftovers/internal/cache"
)

// ParseRedisURL turns REDIS_URL into asynq connection options, accepting the
// same forms as the cache client.
func ParseRedisURL(redisURL string) (asynq.RedisClientOpt, error) {
	opts, err := cache.ParseOptions(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

// NewClient creates the client the API enqueues jobs with.
func NewClient(redisURL string) (*asynq.Client, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewClient(opt), nil
}

// NewInspector creates the inspector the API reads job state and results with.
func NewInspector(redisURL string) (*asynq.Inspector, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewInspector(opt), nil
}
