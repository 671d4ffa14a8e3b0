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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI judge providers.
type Config struct {
	// VisionHost is the base URL for the vision judge API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	VisionHost string

	// BrandHost is the base URL for the text-only brand judge API.
	BrandHost string

	// VisionModel is the model identifier used for image relevance judging.
	// It must accept image inputs. Example: "gpt-4o-mini", "qwen2.5vl:7b"
	VisionModel string

	// BrandModel is the model identifier used for brand filtering.
	// Example: "gpt-4o-mini", "qwen2.5:3b"
	BrandModel string

	// APIToken authenticates against the hosts.
	// Local OpenAI-compatible services accept any value.
	APIToken string

	// MaxTokens caps the length of a judge reply.
	// Default: 256
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithVisionHost sets the vision judge host URL.
func WithVisionHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
	}
}

// WithBrandHost sets the brand judge host URL.
func WithBrandHost(host string) ConfigOption {
	return func(c *Config) {
		c.BrandHost = host
	}
}

// WithHost sets both judge hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
		c.BrandHost = host
	}
}

// WithVisionModel sets the vision judge model identifier.
func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithBrandModel sets the brand judge model identifier.
func WithBrandModel(model string) ConfigOption {
	return func(c *Config) {
		c.BrandModel = model
	}
}

// WithAPIToken sets the API token.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithMaxTokens sets the reply length cap.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		VisionHost:  defaultHost,
		BrandHost:   defaultHost,
		VisionModel: "qwen2.5vl:7b",
		BrandModel:  "qwen2.5:3b",
		APIToken:    "none",
		MaxTokens:   256,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://api.openai.com/v1"),
//	    WithVisionModel("gpt-4o-mini"),
//	    WithAPIToken(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.VisionHost = withV1(c.VisionHost)
	c.BrandHost = withV1(c.BrandHost)
	if c.APIToken == "" {
		c.APIToken = "none"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 256
	}
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.VisionHost == "" {
		return errors.New("ai config: VisionHost is required")
	}
	if c.BrandHost == "" {
		return errors.New("ai config: BrandHost is required")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if c.BrandModel == "" {
		return errors.New("ai config: BrandModel is required")
	}
	return nil
}
