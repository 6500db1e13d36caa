// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/external"
)

const (
	EnvFileName = ".env"

	CatalogSourceStatic  = "static"
	CatalogSourceShopify = "shopify"

	DefaultPort                     = "8080"
	DefaultLocation                 = "us-central1"
	DefaultGarmentDescription       = "black plush tracksuit (jacket + pants)"
	DefaultUpstreamTimeout          = 90 * time.Second
	DefaultMaxConcurrentGenerations = 4
	DefaultCatalogCacheTTL          = 5 * time.Minute
)

type Config struct {
	Port string

	GenAI repositories.AIClientConfig
	Model string

	ShopifyDomain      string
	ShopifyAccessToken string
	ShopifyAPIVersion  string

	CatalogSource   string
	CatalogFile     string
	CatalogCacheTTL time.Duration

	PromptTemplatesFile       string
	DefaultGarmentDescription string

	RetryPolicy              *valueobjects.RetryPolicy
	UpstreamTimeout          time.Duration
	MaxConcurrentGenerations int64

	CORSAllowedOrigins []string
	TestPersonImage    string

	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads variables from a .env file in the working directory.
// Errors are ignored since the file may not exist.
func LoadEnvFile() {
	_ = godotenv.Load(EnvFileName)
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the configuration through lookup, which has the
// signature of os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		Port: env.str("PORT", DefaultPort),
		GenAI: repositories.AIClientConfig{
			Backend:   repositories.GenAIBackend(strings.ToLower(env.str("GENAI_BACKEND", string(repositories.BackendGemini)))),
			APIKey:    env.str("GEMINI_API_KEY", ""),
			ProjectID: env.str("PROJECT_ID", env.str("GOOGLE_CLOUD_PROJECT", "")),
			Location:  env.str("LOCATION", DefaultLocation),
			BaseURL:   env.str("GENAI_BASE_URL", ""),
		},
		Model: env.str("GEMINI_MODEL", external.DefaultImageModel),

		ShopifyDomain:      env.str("SHOPIFY_STORE_DOMAIN", external.DefaultShopifyDomain),
		ShopifyAccessToken: env.str("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAPIVersion:  env.str("SHOPIFY_API_VERSION", external.DefaultShopifyAPIVersion),

		CatalogSource: strings.ToLower(env.str("CATALOG_SOURCE", CatalogSourceStatic)),
		CatalogFile:   env.str("CATALOG_FILE", ""),

		PromptTemplatesFile:       env.str("PROMPT_TEMPLATES_FILE", ""),
		DefaultGarmentDescription: env.str("DEFAULT_GARMENT_DESCRIPTION", DefaultGarmentDescription),

		CORSAllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TestPersonImage:    env.str("TEST_PERSON_IMAGE", ""),

		LogLevel:  strings.ToLower(env.str("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env.str("LOG_FORMAT", "console")),
	}

	switch cfg.GenAI.Backend {
	case repositories.BackendGemini, repositories.BackendVertex:
	default:
		return nil, fmt.Errorf("invalid GENAI_BACKEND %q: want gemini or vertex", cfg.GenAI.Backend)
	}

	switch cfg.CatalogSource {
	case CatalogSourceStatic, CatalogSourceShopify:
	default:
		return nil, fmt.Errorf("invalid CATALOG_SOURCE %q: want static or shopify", cfg.CatalogSource)
	}

	var err error
	if cfg.CatalogCacheTTL, err = env.duration("CATALOG_CACHE_TTL", DefaultCatalogCacheTTL); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = env.duration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout); err != nil {
		return nil, err
	}

	maxConcurrent, err := env.integer("MAX_CONCURRENT_GENERATIONS", DefaultMaxConcurrentGenerations)
	if err != nil {
		return nil, err
	}
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_GENERATIONS must be at least 1, got %d", maxConcurrent)
	}
	cfg.MaxConcurrentGenerations = int64(maxConcurrent)

	defaults := valueobjects.DefaultRetryPolicy()
	attempts, err := env.integer("RETRY_MAX_ATTEMPTS", defaults.MaxAttempts())
	if err != nil {
		return nil, err
	}
	delay, err := env.duration("RETRY_DELAY", defaults.Delay())
	if err != nil {
		return nil, err
	}
	if cfg.RetryPolicy, err = valueobjects.NewRetryPolicy(attempts, delay); err != nil {
		return nil, fmt.Errorf("invalid retry settings: %w", err)
	}

	return cfg, nil
}

type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) str(key, defaultValue string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return defaultValue
}

func (e envReader) integer(key string, defaultValue int) (int, error) {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// duration accepts Go durations ("1500ms") and bare seconds ("90").
func (e envReader) duration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func (e envReader) list(key string, defaultValue []string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
