package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/metrics"
	"github.com/socialchef/leftovers/internal/services/ai"
	"github.com/socialchef/leftovers/internal/services/llm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const fallbackBaseURL = "https://source.unsplash.com/400x250/?"

// FallbackURL returns the stock photo search URL for keywords. Spaces are
// encoded as %20.
func FallbackURL(keywords string) string {
	return fallbackBaseURL + strings.ReplaceAll(url.QueryEscape(keywords), "+", "%20")
}

// DataURI encodes image bytes as an inline data: reference.
func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURI decodes a base64 data: reference.
func ParseDataURI(ref string) (mimeType string, data []byte, ok bool) {
	rest, found := strings.CutPrefix(ref, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	mimeType, found = strings.CutSuffix(meta, ";base64")
	if !found {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, false
	}
	return mimeType, data, true
}

// Uploader stores image bytes and returns a public URL.
type Uploader interface {
	UploadImageWithHash(ctx context.Context, bucket, source string, data []byte, contentType string) (string, error)
}

// Cache maps keywords to resolved image URLs.
type Cache interface {
	Get(ctx context.Context, keywords string) (string, bool)
	Set(ctx context.Context, keywords, url string)
}

// Client resolves recipe image keywords to an image reference.
type Client struct {
	provider llm.ImageProvider
	uploader Uploader
	bucket   string
	cache    Cache
}

// Option configures a Client.
type Option func(*Client)

// WithUploader stores generated images in bucket instead of inlining them.
func WithUploader(u Uploader, bucket string) Option {
	return func(c *Client) {
		c.uploader = u
		c.bucket = bucket
	}
}

// WithCache caches resolved URLs by keywords.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates a new image client. provider may be unconfigured, in
// which case every resolution yields the fallback URL.
func NewClient(provider llm.ImageProvider, opts ...Option) *Client {
	c := &Client{provider: provider}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns an image reference for keywords and never fails: any
// problem yields FallbackURL(keywords).
func (c *Client) Resolve(ctx context.Context, keywords string) string {
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, keywords); ok {
			metrics.ImageCacheHitsTotal.Add(ctx, 1)
			record(ctx, "cache")
			return cached
		}
	}

	ref, err := c.generate(ctx, keywords)
	if err != nil {
		if !errors.IsType(err, errors.ErrorTypeConfiguration) {
			slog.WarnContext(ctx, "Image generation failed, using fallback", "keywords", keywords, "error", err)
		}
		record(ctx, "fallback")
		return FallbackURL(keywords)
	}

	if strings.HasPrefix(ref, "data:") {
		record(ctx, "inline")
		return ref
	}

	if c.cache != nil {
		c.cache.Set(ctx, keywords, ref)
	}
	record(ctx, "generated")
	return ref
}

func (c *Client) generate(ctx context.Context, keywords string) (string, error) {
	if !llm.IsConfigured(c.provider) {
		return "", errors.NewConfigurationError("image generation is not configured", "MISSING_API_KEY")
	}

	img, err := c.provider.GenerateImage(ctx, ai.BuildImagePrompt(keywords))
	if err != nil {
		return "", errors.NewImageError("image generation failed", "IMAGE_GENERATION_FAILED", err)
	}
	if img == nil || len(img.Data) == 0 {
		return "", errors.NewImageError("image backend returned no payload", "IMAGE_EMPTY", nil)
	}
	if img.MimeType == "" {
		img.MimeType = "image/jpeg"
	}

	if c.uploader == nil {
		return DataURI(img.MimeType, img.Data), nil
	}

	publicURL, err := c.uploader.UploadImageWithHash(ctx, c.bucket, c.provider.Name()+":"+keywords, img.Data, img.MimeType)
	if err != nil {
		return "", errors.NewImageError("image upload failed", "IMAGE_UPLOAD_FAILED", err)
	}
	return publicURL, nil
}

// Persist turns an inline data: reference into a stored URL when an uploader
// is configured. Any other reference, or a failed upload, is returned as is.
func (c *Client) Persist(ctx context.Context, ref, source string) string {
	if c.uploader == nil {
		return ref
	}
	mimeType, data, ok := ParseDataURI(ref)
	if !ok {
		return ref
	}
	publicURL, err := c.uploader.UploadImageWithHash(ctx, c.bucket, source, data, mimeType)
	if err != nil {
		slog.WarnContext(ctx, "Failed to persist inline image, keeping data reference", "error", err)
		return ref
	}
	return publicURL
}

func record(ctx context.Context, source string) {
	metrics.ImageResolutionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
