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

// Package config loads the pitchroom application configuration from YAML,
// with provider API keys taken from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/chat"
	"github.com/poiesic/pitchroom/chunk"
)

// Environment variables holding provider credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
	EnvEmbeddingKey = "EMBEDDING_API_KEY"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// IngestionConfig tunes document processing.
type IngestionConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
	PoolSize      int `yaml:"pool_size"`
}

// RetrievalConfig tunes chunk retrieval for chat.
type RetrievalConfig struct {
	TopK          int      `yaml:"top_k"`
	MinSimilarity *float32 `yaml:"min_similarity,omitempty"`
}

// AIConfig selects embedding and completion endpoints. Keys are never
// read from the file.
type AIConfig struct {
	EmbeddingHost  string  `yaml:"embedding_host"`
	EmbeddingModel string  `yaml:"embedding_model"`
	EmbeddingRPS   float64 `yaml:"embedding_rps"`
	OpenAIHost     string  `yaml:"openai_host"`
	DefaultModel   string  `yaml:"default_model"`
}

// Config is the root application configuration.
type Config struct {
	DataDir      string             `yaml:"data_dir"`
	FileStoreURL string             `yaml:"file_store_url"`
	Ingestion    IngestionConfig    `yaml:"ingestion"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	AI           AIConfig           `yaml:"ai"`
	Rates        map[string]float64 `yaml:"rates,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		DataDir: "pitchroom-data",
		Ingestion: IngestionConfig{
			MaxChunkChars: chunk.DefaultMaxChunkChars,
			PoolSize:      2,
		},
		Retrieval: RetrievalConfig{TopK: chat.DefaultTopK},
		AI: AIConfig{
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			OpenAIHost:     aiDefaults.OpenAIHost,
			DefaultModel:   "gpt-4o-mini",
		},
	}
}

// Load reads a config file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.Ingestion.MaxChunkChars <= 0 {
		c.Ingestion.MaxChunkChars = d.Ingestion.MaxChunkChars
	}
	if c.Ingestion.PoolSize <= 0 {
		c.Ingestion.PoolSize = d.Ingestion.PoolSize
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = d.Retrieval.TopK
	}
	if c.AI.EmbeddingHost == "" {
		c.AI.EmbeddingHost = d.AI.EmbeddingHost
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = d.AI.EmbeddingModel
	}
	if c.AI.OpenAIHost == "" {
		c.AI.OpenAIHost = d.AI.OpenAIHost
	}
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = d.AI.DefaultModel
	}
}

// StorePath returns where the database lives.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "db")
}

// FilesURL returns where uploaded files live. Defaults to a files
// directory inside DataDir.
func (c *Config) FilesURL() string {
	if c.FileStoreURL != "" {
		return c.FileStoreURL
	}
	return filepath.Join(c.DataDir, "files")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Ingestion.MaxChunkChars <= 0 {
		return fmt.Errorf("%w: ingestion.max_chunk_chars must be positive", ErrInvalid)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalid)
	}
	if m := c.Retrieval.MinSimilarity; m != nil && (*m < -1 || *m > 1) {
		return fmt.Errorf("%w: retrieval.min_similarity must be within [-1, 1]", ErrInvalid)
	}
	if c.AI.EmbeddingRPS < 0 {
		return fmt.Errorf("%w: ai.embedding_rps must not be negative", ErrInvalid)
	}
	for model, rate := range c.Rates {
		if rate < 0 {
			return fmt.Errorf("%w: rate for %q is negative", ErrInvalid, model)
		}
	}
	return nil
}

// ProviderConfig builds the AI provider configuration, reading keys from
// the environment.
func (c *Config) ProviderConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithOpenAIHost(c.AI.OpenAIHost),
		ai.WithEmbeddingRPS(c.AI.EmbeddingRPS),
		ai.WithOpenAIKey(os.Getenv(EnvOpenAIKey)),
		ai.WithAnthropicKey(os.Getenv(EnvAnthropicKey)),
		ai.WithGoogleKey(os.Getenv(EnvGoogleKey)),
	}
	if key := os.Getenv(EnvEmbeddingKey); key != "" {
		opts = append(opts, ai.WithEmbeddingKey(key))
	}
	return ai.NewConfig(opts...)
}
