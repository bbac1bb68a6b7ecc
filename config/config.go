package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// UserAgent identifies the scraper to the publisher sites.
const UserAgent = "Mozilla/5.0 (compatible; PhotobookCatalogBot/1.0; +https://github.com/aluiziolira/go-scrape-catalog)"

// Config holds scraper configuration shared by every source run.
type Config struct {
	OutputDir       string
	OutputFormat    string // csv, json, or dual
	Concurrency     int
	Delay           time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	MaxPages        int // overrides per-source pagination bounds when > 0
	UserAgent       string
	Verbose         bool

	PipelineBufferSize int
	BatchSize          int

	DatabaseURL   string
	CreatorsTable string
	CreatorsFile  string
	CreatorCache  int

	MetricsAddr string
}

// DefaultConfig returns polite defaults: one request at a time, no retries.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:          "output",
		OutputFormat:       "csv",
		Concurrency:        1,
		Delay:              250 * time.Millisecond,
		Timeout:            30 * time.Second,
		MaxRetries:         0,
		RetryBackoff:       500 * time.Millisecond,
		RetryBackoffMax:    5 * time.Second,
		MaxPages:           0,
		UserAgent:          UserAgent,
		PipelineBufferSize: 64,
		BatchSize:          16,
		CreatorsTable:      "creators",
		CreatorCache:       1024,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.Concurrency <= 0 || c.Concurrency > 5 {
		return fmt.Errorf("concurrency must be between 1 and 5")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DatabaseURL != "" && c.CreatorsTable == "" {
		return fmt.Errorf("creators table cannot be empty when a database is configured")
	}
	if c.CreatorCache < 0 {
		return fmt.Errorf("creator cache size cannot be negative")
	}
	return nil
}

// OutputPath returns the default output file for a source.
func (c *Config) OutputPath(source string) string {
	ext := ".csv"
	if c.OutputFormat == "json" {
		ext = ".jsonl"
	}
	return strings.TrimSuffix(c.OutputDir, "/") + "/" + source + ext
}

// Load reads an optional .env file and applies CATALOG_* overrides to the defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := EnvString("CATALOG_OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := EnvString("CATALOG_FORMAT"); ok {
		c.OutputFormat = strings.ToLower(v)
	}
	if v, ok := EnvString("CATALOG_USER_AGENT"); ok {
		c.UserAgent = v
	}
	if v, ok := EnvString("CATALOG_DATABASE_URL"); ok {
		c.DatabaseURL = v
	}
	if v, ok := EnvString("CATALOG_CREATORS_TABLE"); ok {
		c.CreatorsTable = v
	}
	if v, ok := EnvString("CATALOG_CREATORS_FILE"); ok {
		c.CreatorsFile = v
	}
	if v, ok := EnvString("CATALOG_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := EnvString("CATALOG_VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CATALOG_VERBOSE: %w", err)
		}
		c.Verbose = b
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CATALOG_CONCURRENCY", &c.Concurrency},
		{"CATALOG_MAX_RETRIES", &c.MaxRetries},
		{"CATALOG_MAX_PAGES", &c.MaxPages},
		{"CATALOG_CREATOR_CACHE", &c.CreatorCache},
	}
	for _, it := range ints {
		v, ok, err := EnvInt(it.key)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", it.key, err)
		}
		if ok {
			*it.dst = v
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CATALOG_DELAY_MS", &c.Delay},
		{"CATALOG_TIMEOUT_MS", &c.Timeout},
		{"CATALOG_RETRY_BACKOFF_MS", &c.RetryBackoff},
		{"CATALOG_RETRY_BACKOFF_MAX_MS", &c.RetryBackoffMax},
	}
	for _, d := range durations {
		v, ok, err := EnvInt(d.key)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if ok {
			*d.dst = time.Duration(v) * time.Millisecond
		}
	}
	return nil
}

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", false
	}
	return v, true
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, true, err
	}
	return n, true, nil
}
