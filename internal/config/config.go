package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment, after optional .env files.
type Config struct {
	DatabaseURL     string
	RedisURL        string
	OpenAIKey       string
	OpenAIModel     string
	CatalogSource   string
	CatalogVariable string
	MetricsAddr     string
	LockTTL         time.Duration
	FetchTimeout    time.Duration
	DescribeWorkers int
}

// DefaultConfig returns the values used when a variable is unset.
func DefaultConfig() *Config {
	return &Config{
		OpenAIModel:     "gpt-4o-mini",
		CatalogSource:   "../my-app/src/components/ProductPage.jsx",
		CatalogVariable: "products",
		LockTTL:         5 * time.Minute,
		FetchTimeout:    30 * time.Second,
		DescribeWorkers: 4,
	}
}

// Load reads .env from the project root or the working directory, then the
// process environment. Malformed numeric values are reported.
func Load() (*Config, error) {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.CatalogSource = getEnv("CATALOG_SOURCE", cfg.CatalogSource)
	cfg.CatalogVariable = getEnv("CATALOG_VARIABLE", cfg.CatalogVariable)
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	var err error
	if cfg.LockTTL, err = getDuration("IMPORT_LOCK_TTL", cfg.LockTTL); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return nil, err
	}
	if cfg.DescribeWorkers, err = getInt("DESCRIBE_WORKERS", cfg.DescribeWorkers); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values every command needs.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if c.CatalogVariable == "" {
		return fmt.Errorf("catalog variable cannot be empty")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("import lock ttl must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.DescribeWorkers <= 0 {
		return fmt.Errorf("describe workers must be positive")
	}
	return nil
}

// ValidateDescribe checks what description enrichment needs on top of Validate.
func (c *Config) ValidateDescribe() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required to generate descriptions")
	}
	return nil
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return n, nil
}

func getDuration(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return dur, nil
}
