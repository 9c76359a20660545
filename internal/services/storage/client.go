// Package storage uploads recipe images to Supabase Storage. Uploads are
// deduplicated by content hash through the stored_images table.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/socialchef/leftovers/internal/httpclient"
	"github.com/socialchef/leftovers/internal/utils"
)

const (
	storageProvider = "Supabase Storage"
	restProvider    = "Supabase"
)

var ErrUploadFailed = errors.New("upload failed")

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	retry      utils.RetryConfig
}

func NewClient(supabaseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(supabaseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpclient.InstrumentedClient,
		retry:      utils.UploadRetryConfig(),
	}
}

// WithRetryConfig replaces the upload retry policy.
func (c *Client) WithRetryConfig(cfg utils.RetryConfig) *Client {
	c.retry = cfg
	return c
}

func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ExtensionFor maps an image MIME type to a file extension, defaulting to jpeg.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	}
	return "jpeg"
}

func (c *Client) GetPublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + path
}

// send performs one authorized request and returns the response body. Any
// status of 400 or above becomes a *utils.StatusError.
func (c *Client) send(ctx context.Context, provider, method, endpoint string, body []byte, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, provider), method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &utils.StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// UploadImage stores data at bucket/path, overwriting any existing object,
// and returns its public URL. Transient failures are retried.
func (c *Client) UploadImage(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	endpoint := c.baseURL + "/storage/v1/object/" + bucket + "/" + path
	header := http.Header{}
	header.Set("Content-Type", contentType)
	header.Set("x-upsert", "true")

	_, err := utils.WithRetry(ctx, func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, storageProvider, http.MethodPost, endpoint, data, header)
	}, c.retry)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return c.GetPublicURL(bucket, path), nil
}

type StoredImage struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
	StoragePath string `json:"storage_path"`
	SourceURL   string `json:"source_url,omitempty"`
}

// GetImageByHash returns the stored image with the given content hash, or nil.
func (c *Client) GetImageByHash(ctx context.Context, hash string) (*StoredImage, error) {
	query := url.Values{"content_hash": {"eq." + hash}, "select": {"*"}}
	body, err := c.send(ctx, restProvider, http.MethodGet, c.baseURL+"/rest/v1/stored_images?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("image lookup: %w", err)
	}

	var rows []StoredImage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("image lookup: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) recordImage(ctx context.Context, img StoredImage) error {
	payload, err := json.Marshal(img)
	if err != nil {
		return err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Prefer", "return=minimal")

	if _, err := c.send(ctx, restProvider, http.MethodPost, c.baseURL+"/rest/v1/stored_images", payload, header); err != nil {
		return fmt.Errorf("image record: %w", err)
	}
	return nil
}

// UploadImageWithHash uploads data under a fresh UUID file name unless an
// image with identical content was stored before, in which case the existing
// public URL is returned. source describes where the bytes came from.
func (c *Client) UploadImageWithHash(ctx context.Context, bucket, source string, data []byte, contentType string) (string, error) {
	hash := HashContent(data)

	existing, err := c.GetImageByHash(ctx, hash)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return c.GetPublicURL(bucket, existing.StoragePath), nil
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	path := uuid.NewString() + "." + ExtensionFor(contentType)

	publicURL, err := c.UploadImage(ctx, bucket, path, data, contentType)
	if err != nil {
		return "", err
	}

	err = c.recordImage(ctx, StoredImage{
		ID:          uuid.NewString(),
		ContentHash: hash,
		StoragePath: path,
		SourceURL:   source,
	})
	if err != nil {
		return "", err
	}
	return publicURL, nil
}
