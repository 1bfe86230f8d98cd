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
	"fmt"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingKey authenticates against the embedding host.
	// "none" works for local servers that ignore authentication.
	EmbeddingKey string

	// OpenAIHost is the base URL for OpenAI chat completions.
	OpenAIHost string

	// OpenAIKey, AnthropicKey and GoogleKey enable the corresponding chat
	// providers. An empty key leaves that family unregistered.
	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string

	// EmbeddingRPS caps embedding requests per second. Zero disables limiting.
	EmbeddingRPS float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingKey sets the embedding API key.
func WithEmbeddingKey(key string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingKey = key
	}
}

// WithOpenAIHost sets the OpenAI chat host URL.
func WithOpenAIHost(host string) ConfigOption {
	return func(c *Config) {
		c.OpenAIHost = host
	}
}

// WithOpenAIKey sets the OpenAI API key.
func WithOpenAIKey(key string) ConfigOption {
	return func(c *Config) {
		c.OpenAIKey = key
	}
}

// WithAnthropicKey sets the Anthropic API key.
func WithAnthropicKey(key string) ConfigOption {
	return func(c *Config) {
		c.AnthropicKey = key
	}
}

// WithGoogleKey sets the Google AI API key.
func WithGoogleKey(key string) ConfigOption {
	return func(c *Config) {
		c.GoogleKey = key
	}
}

// WithEmbeddingRPS caps embedding requests per second.
func WithEmbeddingRPS(rps float64) ConfigOption {
	return func(c *Config) {
		c.EmbeddingRPS = rps
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible embedding service and the public OpenAI chat API.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
		EmbeddingKey:   "none",
		OpenAIHost:     "https://api.openai.com/v1",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434"),
//	    WithAnthropicKey(os.Getenv("ANTHROPIC_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to OpenAI-compatible hosts if missing.
func (c *Config) Normalize() {
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.OpenAIHost = withV1(c.OpenAIHost)
	if c.EmbeddingKey == "" {
		c.EmbeddingKey = "none"
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

	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	if c.EmbeddingRPS < 0 {
		return fmt.Errorf("%w: EmbeddingRPS cannot be negative", ErrInvalidConfig)
	}
	if c.OpenAIKey != "" && c.OpenAIHost == "" {
		return fmt.Errorf("%w: OpenAIHost is required with an OpenAI key", ErrInvalidConfig)
	}
	return nil
}

// Families lists the chat families this configuration has credentials for.
func (c *Config) Families() []Family {
	var out []Family
	if c.OpenAIKey != "" {
		out = append(out, FamilyOpenAI)
	}
	if c.AnthropicKey != "" {
		out = append(out, FamilyClaude)
	}
	if c.GoogleKey != "" {
		out = append(out, FamilyGemini)
	}
	return out
}
