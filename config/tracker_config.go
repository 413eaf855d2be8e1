package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tracker_server/core/service/safety"
)

// defaultUnsafeKeywords are resolved into provider keyword ids at startup.
var defaultUnsafeKeywords = []string{
	"nudity",
	"sex",
	"sex scene",
	"erotic movie",
	"erotica",
	"softcore",
	"pornography",
	"sexual violence",
	"explicit sex",
	"gore",
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Catalog provider (TMDB)
	TMDBAPIKey            string
	TMDBBaseURL           string
	TMDBRequestsPerSecond int
	TMDBBurst             int

	// Content filter
	FilterStrategy        safety.Strategy
	CertificationRegion   string
	AllowedCertifications []string
	UnsafeKeywords        []string
	KeywordFailurePolicy  safety.FailurePolicy
	ClassifyTimeout       time.Duration
	ClassifyMaxConcurrent int
	KeywordCacheTTL       time.Duration
	KeywordCacheSweep     time.Duration
	RegistryRetryInterval time.Duration

	// Storage
	DatabaseURL string
	RedisURL    string

	// JWT
	JWTSecret string

	// CORS
	AllowedOrigins []string

	// Inbound rate limit
	RateLimitPerMinute int
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Catalog provider
		TMDBAPIKey:            getEnv("TMDB_API_KEY", ""),
		TMDBBaseURL:           strings.TrimRight(getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
		TMDBRequestsPerSecond: getEnvInt("TMDB_REQUESTS_PER_SECOND", 40),
		TMDBBurst:             getEnvInt("TMDB_BURST", 40),

		// Content filter
		FilterStrategy:        safety.Strategy(strings.ToLower(getEnv("FILTER_STRATEGY", string(safety.StrategyCertification)))),
		CertificationRegion:   strings.ToUpper(getEnv("CERTIFICATION_REGION", "US")),
		AllowedCertifications: getEnvSlice("ALLOWED_CERTIFICATIONS", []string{"G", "PG", "PG-13"}),
		UnsafeKeywords:        getEnvSlice("UNSAFE_KEYWORDS", defaultUnsafeKeywords),
		KeywordFailurePolicy:  safety.FailurePolicy(strings.ToLower(getEnv("KEYWORD_FAILURE_POLICY", string(safety.FailureDeny)))),
		ClassifyTimeout:       time.Duration(getEnvInt("CLASSIFY_TIMEOUT_SEC", 5)) * time.Second,
		ClassifyMaxConcurrent: getEnvInt("CLASSIFY_MAX_CONCURRENT", 8),
		KeywordCacheTTL:       time.Duration(getEnvInt("KEYWORD_CACHE_TTL_HOUR", 24)) * time.Hour,
		KeywordCacheSweep:     time.Duration(getEnvInt("KEYWORD_CACHE_SWEEP_MIN", 30)) * time.Minute,
		RegistryRetryInterval: time.Duration(getEnvInt("REGISTRY_RETRY_SEC", 30)) * time.Second,

		// Storage
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MIN", 120),
	}, nil
}

// Validate checks the settings the content filter cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if c.TMDBAPIKey == "" {
		errs = append(errs, errors.New("TMDB_API_KEY is required"))
	}

	if !c.FilterStrategy.Valid() {
		errs = append(errs, fmt.Errorf("unknown FILTER_STRATEGY %q", c.FilterStrategy))
	}
	if !c.KeywordFailurePolicy.Valid() {
		errs = append(errs, fmt.Errorf("unknown KEYWORD_FAILURE_POLICY %q", c.KeywordFailurePolicy))
	}

	if c.UsesCertification() && len(c.AllowedCertifications) == 0 {
		errs = append(errs, errors.New("ALLOWED_CERTIFICATIONS must not be empty"))
	}
	if c.UsesKeywords() && len(c.UnsafeKeywords) == 0 {
		errs = append(errs, errors.New("UNSAFE_KEYWORDS must not be empty"))
	}

	return errors.Join(errs...)
}

// UsesCertification reports whether the certification check is enabled.
func (c *Config) UsesCertification() bool {
	return c.FilterStrategy.UsesCertification()
}

// UsesKeywords reports whether the keyword check is enabled.
func (c *Config) UsesKeywords() bool {
	return c.FilterStrategy.UsesKeywords()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
