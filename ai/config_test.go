package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.VisionHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.BrandHost)
	assert.Equal(t, "qwen2.5vl:7b", cfg.VisionModel)
	assert.Equal(t, "qwen2.5:3b", cfg.BrandModel)
	assert.Equal(t, 256, cfg.MaxTokens)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, "http://localhost:11434/v1", cfg.VisionHost)
		assert.Equal(t, "none", cfg.APIToken)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))
		assert.Equal(t, "http://custom:8080/v1", cfg.VisionHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.BrandHost)
	})

	t.Run("with separate hosts and models", func(t *testing.T) {
		cfg := NewConfig(
			WithVisionHost("http://vision:1/v1"),
			WithBrandHost("http://brand:2/v1"),
			WithVisionModel("gpt-4o"),
			WithBrandModel("gpt-4o-mini"),
			WithAPIToken("sk-test"),
			WithMaxTokens(64),
		)
		assert.Equal(t, "http://vision:1/v1", cfg.VisionHost)
		assert.Equal(t, "http://brand:2/v1", cfg.BrandHost)
		assert.Equal(t, "gpt-4o", cfg.VisionModel)
		assert.Equal(t, "gpt-4o-mini", cfg.BrandModel)
		assert.Equal(t, "sk-test", cfg.APIToken)
		assert.Equal(t, 64, cfg.MaxTokens)
	})
}

func TestConfig_Normalize(t *testing.T) {
	cfg := &Config{
		VisionHost: "http://localhost:11434",
		BrandHost:  "http://localhost:9100/",
	}
	cfg.Normalize()

	assert.Equal(t, "http://localhost:11434/v1", cfg.VisionHost)
	assert.Equal(t, "http://localhost:9100/v1", cfg.BrandHost)
	assert.Equal(t, "none", cfg.APIToken)
	assert.Equal(t, 256, cfg.MaxTokens)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing vision host", func(c *Config) { c.VisionHost = "" }},
		{"missing brand host", func(c *Config) { c.BrandHost = "" }},
		{"missing vision model", func(c *Config) { c.VisionModel = "" }},
		{"missing brand model", func(c *Config) { c.BrandModel = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
