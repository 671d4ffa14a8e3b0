// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads shopit configuration from YAML.
//
// Values of the form ${VAR} or ${VAR:-default} are replaced from the
// environment before parsing, so secrets and endpoints can stay out of the
// file. Provider API keys are never read here: the file names the secret
// and the relay (or, in direct mode, the environment) supplies its value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/shopit/ai"
	"github.com/poiesic/shopit/catalog"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/fallback"
	"github.com/poiesic/shopit/retry"
	"gopkg.in/yaml.v3"
)

// Config holds the shopit configuration.
type Config struct {
	Relay        RelayConfig          `yaml:"relay"`
	Providers    ProvidersConfig      `yaml:"providers"`
	Localization catalog.Localization `yaml:"localization"`
	User         catalog.User         `yaml:"user"`
	Retry        RetryConfig          `yaml:"retry"`
	Search       SearchConfig         `yaml:"search"`
	Judge        JudgeConfig          `yaml:"judge"`
	Storage      StorageConfig        `yaml:"storage"`
	Logging      LoggingConfig        `yaml:"logging"`
}

// RelayConfig holds outbound relay settings. An empty URL calls providers directly.
type RelayConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProvidersConfig holds the discovery service endpoints.
type ProvidersConfig struct {
	Catalog   EndpointConfig `yaml:"catalog"`
	Editorial EndpointConfig `yaml:"editorial"`
	Visual    EndpointConfig `yaml:"visual"` // optional
}

// EndpointConfig locates one discovery service.
type EndpointConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"` // name of the API key secret, not its value
}

// RetryConfig holds provider and image retry settings.
type RetryConfig struct {
	MaxRetries  *int    `yaml:"max_retries"` // nil means default; 0 disables retries
	BaseDelayMs int     `yaml:"base_delay_ms"`
	Jitter      float64 `yaml:"jitter"`
}

// SearchConfig holds concurrency and result settings.
type SearchConfig struct {
	PoolSize       int `yaml:"pool_size"`        // reusable provider workers; extra tasks still start at once
	FilterPoolSize int `yaml:"filter_pool_size"` // reusable judge batch workers; extra batches still start at once
	BatchSize      int `yaml:"batch_size"`       // candidates per judge call, at most 10
	FallbackCount  int `yaml:"fallback_count"`   // placeholder products per degraded descriptor
}

// JudgeConfig holds model settings for the vision and brand judges.
type JudgeConfig struct {
	VisionHost  string `yaml:"vision_host"`
	BrandHost   string `yaml:"brand_host"`
	VisionModel string `yaml:"vision_model"`
	BrandModel  string `yaml:"brand_model"`
	APIToken    string `yaml:"api_token"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// StorageConfig holds local database settings.
type StorageConfig struct {
	Path             string `yaml:"path"`
	InMemory         bool   `yaml:"in_memory"`
	ImageCacheTTLSec int    `yaml:"image_cache_ttl_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes, expanding ${VAR} references.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Relay.TimeoutSec <= 0 {
		c.Relay.TimeoutSec = 30
	}
	if c.Localization.Language == "" {
		c.Localization.Language = catalog.DefaultLocalization.Language
	}
	if c.Localization.Country == "" {
		c.Localization.Country = catalog.DefaultLocalization.Country
	}
	if c.Localization.Currency == "" {
		c.Localization.Currency = catalog.DefaultLocalization.Currency
	}
	if c.User.Subscription == "" {
		c.User.Subscription = "free"
	}

	defaults := retry.DefaultPolicy()
	if c.Retry.MaxRetries == nil {
		n := defaults.MaxRetries
		c.Retry.MaxRetries = &n
	}
	if c.Retry.BaseDelayMs <= 0 {
		c.Retry.BaseDelayMs = int(defaults.BaseDelay / time.Millisecond)
	}
	if c.Retry.Jitter <= 0 {
		c.Retry.Jitter = defaults.Jitter
	}

	if c.Search.BatchSize <= 0 {
		c.Search.BatchSize = ai.MaxImagesPerCall
	}
	if c.Search.FallbackCount <= 0 {
		c.Search.FallbackCount = fallback.DefaultCount
	}

	judge := ai.DefaultConfig()
	if c.Judge.VisionHost == "" {
		c.Judge.VisionHost = judge.VisionHost
	}
	if c.Judge.BrandHost == "" {
		c.Judge.BrandHost = c.Judge.VisionHost
	}
	if c.Judge.VisionModel == "" {
		c.Judge.VisionModel = judge.VisionModel
	}
	if c.Judge.BrandModel == "" {
		c.Judge.BrandModel = judge.BrandModel
	}
	if c.Judge.MaxTokens <= 0 {
		c.Judge.MaxTokens = judge.MaxTokens
	}

	if c.Storage.Path == "" && !c.Storage.InMemory {
		c.Storage.Path = "./shopit_db"
	}
	if c.Storage.ImageCacheTTLSec <= 0 {
		c.Storage.ImageCacheTTLSec = 24 * 60 * 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Providers.Catalog.URL == "" {
		return errors.New("providers.catalog.url is required")
	}
	if c.Providers.Editorial.URL == "" {
		return errors.New("providers.editorial.url is required")
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", *c.Retry.MaxRetries)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter >= 1 {
		return fmt.Errorf("retry.jitter must be in [0, 1), got %g", c.Retry.Jitter)
	}
	if c.Search.BatchSize > ai.MaxImagesPerCall {
		return fmt.Errorf("search.batch_size must be at most %d, got %d", ai.MaxImagesPerCall, c.Search.BatchSize)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// RetryPolicy returns the configured retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.Retry.MaxRetries != nil {
		p.MaxRetries = *c.Retry.MaxRetries
	}
	if c.Retry.BaseDelayMs > 0 {
		p.BaseDelay = time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
	}
	p.Jitter = c.Retry.Jitter
	return p
}

// AIConfig returns the judge configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithVisionHost(c.Judge.VisionHost),
		ai.WithBrandHost(c.Judge.BrandHost),
		ai.WithVisionModel(c.Judge.VisionModel),
		ai.WithBrandModel(c.Judge.BrandModel),
		ai.WithAPIToken(c.Judge.APIToken),
		ai.WithMaxTokens(c.Judge.MaxTokens),
	)
}

// ImageCacheTTL returns how long materialized images are cached.
func (c *Config) ImageCacheTTL() time.Duration {
	return time.Duration(c.Storage.ImageCacheTTLSec) * time.Second
}

// RelayTimeout returns the per-request HTTP timeout.
func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.Relay.TimeoutSec) * time.Second
}

// DescriptorFile is the YAML layout of a list of item descriptors.
type DescriptorFile struct {
	Items []core.ItemDescriptor `yaml:"items"`
}

// LoadDescriptors reads and validates item descriptors from a YAML file.
func LoadDescriptors(path string) ([]core.ItemDescriptor, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptors %s: %w", path, err)
	}

	var file DescriptorFile
	if err := yaml.Unmarshal(expandEnvVars(data), &file); err != nil {
		return nil, fmt.Errorf("failed to parse descriptors: %w", err)
	}
	for i := range file.Items {
		if err := core.ValidateDescriptor(&file.Items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return file.Items, nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
