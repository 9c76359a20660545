package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ImageCache maps image keywords to a resolved image URL.
type ImageCache struct {
	store *Store
	ttl   time.Duration
}

// NewImageCache creates a new image URL cache with the given Redis client.
func NewImageCache(client *redis.Client, ttl time.Duration) *ImageCache {
	return &ImageCache{
		store: NewStore(client, "image:"),
		ttl:   ttl,
	}
}

// Keywords differing only in case or spacing share an entry.
func normalizeKeywords(keywords string) string {
	return strings.ToLower(strings.Join(strings.Fields(keywords), " "))
}

// Get returns the cached URL for keywords.
func (c *ImageCache) Get(ctx context.Context, keywords string) (string, bool) {
	return c.store.Get(ctx, normalizeKeywords(keywords))
}

// Set caches url for keywords.
func (c *ImageCache) Set(ctx context.Context, keywords, url string) {
	c.store.Set(ctx, normalizeKeywords(keywords), url, c.ttl)
}

// Delete drops the entry for keywords.
func (c *ImageCache) Delete(ctx context.Context, keywords string) {
	c.store.Delete(ctx, normalizeKeywords(keywords))
}
