package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	DatabaseURL string

	SupabaseURL            string
	SupabaseJWTSecret      string
	SupabaseServiceRoleKey string

	RedisURL string

	GeminiKey   string
	OpenAIKey   string
	GroqKey     string
	CerebrasKey string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port string

	Generation GenerationConfig
	Images     ImageConfig
	Favorites  FavoritesConfig
	RateLimit  RateLimitConfig
}

// GenerationConfig selects the text backend used for recipes and chat.
type GenerationConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	FallbackEnabled  bool   `yaml:"fallback_enabled"`
	FallbackProvider string `yaml:"fallback_provider"`
	FallbackModel    string `yaml:"fallback_model"`
}

// ImageConfig selects the image backend and where generated images are stored.
type ImageConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	Bucket       string `yaml:"bucket"`
	CacheTTLHrs  int    `yaml:"cache_ttl_hours"`
	StoreUploads bool   `yaml:"store_uploads"`
}

// FavoritesConfig selects the favorites backend.
type FavoritesConfig struct {
	Backend string `yaml:"backend"`
}

// RateLimitConfig bounds model-backed requests per user. Zero disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

const (
	FavoritesSupabase = "supabase"
	FavoritesPostgres = "postgres"
	FavoritesRedis    = "redis"
)

func Load() (*Config, error) {
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("API_KEY")
	}

	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		SupabaseURL:              os.Getenv("SUPABASE_URL"),
		SupabaseJWTSecret:        os.Getenv("SUPABASE_JWT_SECRET"),
		SupabaseServiceRoleKey:   os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		GeminiKey:                geminiKey,
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		GroqKey:                  os.Getenv("GROQ_API_KEY"),
		CerebrasKey:              os.Getenv("CEREBRAS_API_KEY"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
	}

	// Load from YAML file if available
	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	// Set defaults
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "leftovers"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.SetGenerationDefaults()
	cfg.SetImageDefaults()
	cfg.SetFavoritesDefaults()
	cfg.SetRateLimitDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Generation GenerationConfig `yaml:"generation"`
		Images     ImageConfig      `yaml:"images"`
		Favorites  FavoritesConfig  `yaml:"favorites"`
		RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if g := yamlConfig.Generation; g.Provider != "" {
		c.Generation.Provider = g.Provider
	}
	if g := yamlConfig.Generation; g.Model != "" {
		c.Generation.Model = g.Model
	}
	if yamlConfig.Generation.FallbackEnabled {
		c.Generation.FallbackEnabled = true
	}
	if g := yamlConfig.Generation; g.FallbackProvider != "" {
		c.Generation.FallbackProvider = g.FallbackProvider
	}
	if g := yamlConfig.Generation; g.FallbackModel != "" {
		c.Generation.FallbackModel = g.FallbackModel
	}

	if i := yamlConfig.Images; i.Provider != "" {
		c.Images.Provider = i.Provider
	}
	if i := yamlConfig.Images; i.Model != "" {
		c.Images.Model = i.Model
	}
	if i := yamlConfig.Images; i.Bucket != "" {
		c.Images.Bucket = i.Bucket
	}
	if i := yamlConfig.Images; i.CacheTTLHrs > 0 {
		c.Images.CacheTTLHrs = i.CacheTTLHrs
	}
	if yamlConfig.Images.StoreUploads {
		c.Images.StoreUploads = true
	}

	if yamlConfig.Favorites.Backend != "" {
		c.Favorites.Backend = yamlConfig.Favorites.Backend
	}

	if r := yamlConfig.RateLimit; r.RequestsPerMinute > 0 {
		c.RateLimit.RequestsPerMinute = r.RequestsPerMinute
	}
	if r := yamlConfig.RateLimit; r.Burst > 0 {
		c.RateLimit.Burst = r.Burst
	}

	return nil
}

func (c *Config) SetGenerationDefaults() {
	if c.Generation.Provider == "" {
		c.Generation.Provider = "gemini"
	}
	if c.Generation.FallbackEnabled && c.Generation.FallbackProvider == "" {
		c.Generation.FallbackProvider = "openai"
	}
}

func (c *Config) SetImageDefaults() {
	if c.Images.Provider == "" {
		c.Images.Provider = "gemini"
	}
	if c.Images.Bucket == "" {
		c.Images.Bucket = "recipe-images"
	}
	if c.Images.CacheTTLHrs == 0 {
		c.Images.CacheTTLHrs = 24
	}
}

func (c *Config) SetRateLimitDefaults() {
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
}

func (c *Config) SetFavoritesDefaults() {
	if c.Favorites.Backend == "" {
		c.Favorites.Backend = FavoritesSupabase
	}
}

// HasGenerationKey reports whether the selected text provider has credentials.
func (c *Config) HasGenerationKey() bool {
	return c.APIKeyFor(c.Generation.Provider) != ""
}

// APIKeyFor returns the credential configured for a provider name.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiKey
	case "openai":
		return c.OpenAIKey
	case "groq":
		return c.GroqKey
	case "cerebras":
		return c.CerebrasKey
	default:
		return ""
	}
}

// SupabaseConfigured reports whether the hosted storage backend can be reached.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceRoleKey != ""
}

func (c *Config) validate() error {
	switch c.Favorites.Backend {
	case FavoritesSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase favorites backend")
		}
		if c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required for the supabase favorites backend")
		}
	case FavoritesPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres favorites backend")
		}
	case FavoritesRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis favorites backend")
		}
	default:
		return fmt.Errorf("unknown favorites backend %q", c.Favorites.Backend)
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}
