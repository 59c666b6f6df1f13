package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/icpac-igad/cgan-fetch/internal/mirror"
	"github.com/icpac-igad/cgan-fetch/internal/progress"
)

// DefaultBucket holds the IFS ensemble training data for the cGAN model.
const DefaultBucket = "sewaa-ifs-train"

// ConstantsPath is the bucket prefix with elevation, land-sea mask and the
// other static fields.
const ConstantsPath = "constants"

// AvailableYears are the forecast years present in the training bucket.
var AvailableYears = []string{"2018", "2019", "2020", "2021", "2023"}

// Config defines settings for downloading training data.
type Config struct {
	Bucket       string      `yaml:"bucket"`
	Credentials  string      `yaml:"credentials"`
	Dest         string      `yaml:"dest"`
	Years        []string    `yaml:"years"`
	Constants    bool        `yaml:"constants"`
	Paths        []string    `yaml:"paths"` // custom prefixes; overrides years+constants
	Workers      int         `yaml:"workers"`
	ChunkSize    int64       `yaml:"chunk_size"`
	SkipExisting bool        `yaml:"skip_existing"`
	Quiet        bool        `yaml:"quiet"`
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig defines per-object retry behavior.
type RetryConfig struct {
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
	Deadline   time.Duration `yaml:"deadline"`
	Multiplier float64       `yaml:"multiplier"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Bucket:    DefaultBucket,
		Dest:      ".",
		Workers:   mirror.DefaultWorkers(),
		ChunkSize: 8 * 1024 * 1024, // 8MB
		Retry: RetryConfig{
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
			Deadline:   300 * time.Second,
			Multiplier: 2.0,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes/durations.
type yamlConfig struct {
	Bucket       string          `yaml:"bucket"`
	Credentials  string          `yaml:"credentials"`
	Dest         string          `yaml:"dest"`
	Years        []string        `yaml:"years"`
	Constants    bool            `yaml:"constants"`
	Paths        []string        `yaml:"paths"`
	Workers      int             `yaml:"workers"`
	ChunkSize    string          `yaml:"chunk_size"`
	SkipExisting bool            `yaml:"skip_existing"`
	Quiet        bool            `yaml:"quiet"`
	Retry        yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Backoff    string  `yaml:"backoff"`
	MaxBackoff string  `yaml:"max_backoff"`
	Deadline   string  `yaml:"deadline"`
	Multiplier float64 `yaml:"multiplier"`
}

// LoadFromFile loads configuration from a YAML file, filling unset fields
// from Default().
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.Credentials != "" {
		cfg.Credentials = yc.Credentials
	}
	if yc.Dest != "" {
		cfg.Dest = yc.Dest
	}
	if len(yc.Years) > 0 {
		cfg.Years = yc.Years
	}
	cfg.Constants = yc.Constants
	if len(yc.Paths) > 0 {
		cfg.Paths = yc.Paths
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	cfg.SkipExisting = yc.SkipExisting
	cfg.Quiet = yc.Quiet
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}
	if yc.Retry.Deadline != "" {
		d, err := time.ParseDuration(yc.Retry.Deadline)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.deadline: %w", err)
		}
		cfg.Retry.Deadline = d
	}
	if yc.Retry.Multiplier != 0 {
		cfg.Retry.Multiplier = yc.Retry.Multiplier
	}

	return cfg, nil
}

// LoadFromEnv overlays configuration from environment variables.
// Environment variables use the CGANFETCH_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CGANFETCH_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("CGANFETCH_CREDENTIALS"); v != "" {
		c.Credentials = v
	}
	if v := os.Getenv("CGANFETCH_DEST"); v != "" {
		c.Dest = v
	}
	if v := os.Getenv("CGANFETCH_YEARS"); v != "" {
		c.Years = splitList(v)
	}
	if v := os.Getenv("CGANFETCH_CONSTANTS"); v != "" {
		c.Constants = v == "true" || v == "1"
	}
	if v := os.Getenv("CGANFETCH_PATHS"); v != "" {
		c.Paths = splitList(v)
	}
	if v := os.Getenv("CGANFETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CGANFETCH_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("CGANFETCH_CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse CGANFETCH_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = size
	}
	if v := os.Getenv("CGANFETCH_SKIP_EXISTING"); v != "" {
		c.SkipExisting = v == "true" || v == "1"
	}
	if v := os.Getenv("CGANFETCH_QUIET"); v != "" {
		c.Quiet = v == "true" || v == "1"
	}
	if v := os.Getenv("CGANFETCH_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CGANFETCH_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("CGANFETCH_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CGANFETCH_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}
	if v := os.Getenv("CGANFETCH_RETRY_DEADLINE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CGANFETCH_RETRY_DEADLINE: %w", err)
		}
		c.Retry.Deadline = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("config: bucket is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.ChunkSize < 0 {
		return errors.New("config: chunk_size must not be negative")
	}
	for _, y := range c.Years {
		if !slices.Contains(AvailableYears, y) {
			return fmt.Errorf("config: year %s not available (choices: %s)",
				y, strings.Join(AvailableYears, ", "))
		}
	}
	if len(c.SelectedPaths()) == 0 {
		return errors.New("config: nothing selected; set years, constants, or paths")
	}
	return nil
}

// SelectedPaths returns the bucket prefixes to download. Custom paths
// override the year/constants selection.
func (c *Config) SelectedPaths() []string {
	if len(c.Paths) > 0 {
		return c.Paths
	}
	paths := slices.Clone(c.Years)
	if c.Constants {
		paths = append(paths, ConstantsPath)
	}
	return paths
}

// RetryPolicy converts the retry settings for the mirror dispatcher.
func (c *Config) RetryPolicy() mirror.RetryPolicy {
	return mirror.RetryPolicy{
		Initial:    c.Retry.Backoff,
		Max:        c.Retry.MaxBackoff,
		Deadline:   c.Retry.Deadline,
		Multiplier: c.Retry.Multiplier,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
