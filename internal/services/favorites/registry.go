package favorites

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxStores = 10000
	DefaultStoreIdle = 24 * time.Hour
)

// Registry hands out one Store per user id. Stores idle for longer than the
// idle TTL, or beyond the size cap, are dropped and reloaded on next use.
type Registry struct {
	repo   Repository
	images ImagePersister

	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
}

func NewRegistry(repo Repository, images ImagePersister) *Registry {
	return NewRegistryWithLimits(repo, images, DefaultMaxStores, DefaultStoreIdle)
}

func NewRegistryWithLimits(repo Repository, images ImagePersister, maxStores int, idle time.Duration) *Registry {
	return &Registry{
		repo:   repo,
		images: images,
		stores: expirable.NewLRU[string, *Store](maxStores, nil, idle),
	}
}

// Store returns the user's store without loading it. Every call renews the
// store's idle deadline.
func (r *Registry) Store(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores.Get(userID)
	if !ok {
		store = NewStore(userID, r.repo, r.images)
	}
	r.stores.Add(userID, store)
	return store
}

// Len reports how many stores are held.
func (r *Registry) Len() int {
	return r.stores.Len()
}

// Get returns the user's store, loading its snapshot from the repository
// until one load has succeeded.
func (r *Registry) Get(ctx context.Context, userID string) (*Store, error) {
	store := r.Store(userID)
	if store.Loaded() {
		return store, nil
	}
	if _, err := store.List(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
