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

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/core"
)

// Platform-wide generation limits.
const (
	Temperature     = 0.7
	MaxOutputTokens = 1024
)

// excerptRunes bounds the length of citation excerpts.
const excerptRunes = 200

// Route binds a platform model ID to a provider family and the vendor's model name.
type Route struct {
	Family        ai.Family
	ProviderModel string
}

// Catalog lists the models the platform offers.
type Catalog map[string]Route

// DefaultCatalog returns the models offered out of the box.
func DefaultCatalog() Catalog {
	return Catalog{
		"gpt-4o":            {Family: ai.FamilyOpenAI, ProviderModel: "gpt-4o"},
		"gpt-4o-mini":       {Family: ai.FamilyOpenAI, ProviderModel: "gpt-4o-mini"},
		"claude-3-5-sonnet": {Family: ai.FamilyClaude, ProviderModel: "claude-3-5-sonnet-20241022"},
		"claude-3-haiku":    {Family: ai.FamilyClaude, ProviderModel: "claude-3-haiku-20240307"},
		"gemini-1.5-pro":    {Family: ai.FamilyGemini, ProviderModel: "gemini-1.5-pro"},
		"gemini-1.5-flash":  {Family: ai.FamilyGemini, ProviderModel: "gemini-1.5-flash"},
	}
}

// Lookup resolves a model ID. Lookup ignores case and surrounding space.
func (c Catalog) Lookup(modelID string) (Route, error) {
	if r, ok := c[modelID]; ok {
		return r, nil
	}
	if r, ok := c[strings.ToLower(strings.TrimSpace(modelID))]; ok {
		return r, nil
	}
	return Route{}, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
}

// RouteRequest is the input to Router.Complete.
type RouteRequest struct {
	ModelID      string
	History      []ai.ChatMessage // prior turns followed by the new user turn
	ContextBlock string
	Sources      []*core.ScoredChunk
}

// Reply is a routed completion with citations.
type Reply struct {
	Content      string
	TokenCount   int
	PromptTokens int
	Citations    []core.Citation
}

// Router sends completions to the provider registered for a model's family.
type Router struct {
	catalog Catalog
	logger  *slog.Logger

	mu        sync.RWMutex
	providers map[ai.Family]ai.CompletionProvider
}

// NewRouter creates a Router over catalog. A nil catalog uses DefaultCatalog.
func NewRouter(catalog Catalog, logger *slog.Logger) *Router {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		catalog:   catalog,
		logger:    logger.With("component", "router"),
		providers: make(map[ai.Family]ai.CompletionProvider),
	}
}

// Register makes p the provider for its family, replacing any earlier one.
func (r *Router) Register(p ai.CompletionProvider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Family()] = p
	r.logger.Debug("registered provider", "family", p.Family())
}

// Families returns the families with a registered provider.
func (r *Router) Families() []ai.Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ai.Family, 0, len(r.providers))
	for _, f := range []ai.Family{ai.FamilyOpenAI, ai.FamilyClaude, ai.FamilyGemini} {
		if _, ok := r.providers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Catalog returns the models known to the router.
func (r *Router) Catalog() Catalog {
	return r.catalog
}

// Complete answers the request with the model it names. Provider failures are
// returned wrapped in ai.ErrCompletionProvider and are not retried.
func (r *Router) Complete(ctx context.Context, req RouteRequest) (*Reply, error) {
	route, err := r.catalog.Lookup(req.ModelID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	provider, ok := r.providers[route.Family]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrProviderNotRegistered, route.Family, req.ModelID)
	}

	creq := ai.CompletionRequest{
		Model:       route.ProviderModel,
		System:      SystemPrompt(req.ContextBlock),
		Messages:    req.History,
		Temperature: Temperature,
		MaxTokens:   MaxOutputTokens,
	}
	completion, err := provider.Complete(ctx, creq)
	if err != nil {
		r.logger.Error("completion failed", "model", req.ModelID, "family", route.Family, "err", err)
		return nil, wrapProviderError(err)
	}
	ai.EstimateUsage(completion, creq)

	return &Reply{
		Content:      completion.Content,
		TokenCount:   completion.CompletionTokens,
		PromptTokens: completion.PromptTokens,
		Citations:    Cite(completion.Content, req.Sources),
	}, nil
}

// Cite returns a citation for each source whose file name, with or without
// its extension, appears in content ignoring case. Sources are cited once
// per file and page, in rank order.
func Cite(content string, sources []*core.ScoredChunk) []core.Citation {
	lower := strings.ToLower(content)
	type key struct {
		source string
		page   int
	}
	seen := make(map[key]bool)

	var citations []core.Citation
	for _, sc := range sources {
		md := sc.Chunk.Metadata
		if md.SourceFilename == "" || !mentions(lower, md.SourceFilename) {
			continue
		}
		k := key{md.SourceFilename, md.Page}
		if seen[k] {
			continue
		}
		seen[k] = true
		citations = append(citations, core.Citation{
			Source:  md.SourceFilename,
			Excerpt: excerpt(sc.Chunk.Content),
			Page:    md.Page,
		})
	}
	return citations
}

// minStemRunes keeps very short stems such as "a" from matching everywhere.
const minStemRunes = 3

func mentions(lowerContent, filename string) bool {
	base := strings.ToLower(path.Base(strings.ReplaceAll(filename, `\`, "/")))
	if strings.Contains(lowerContent, base) {
		return true
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	return len([]rune(stem)) >= minStemRunes && strings.Contains(lowerContent, stem)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptRunes {
		return s
	}
	return string(r[:excerptRunes])
}

// wrapProviderError tags err as a provider failure unless an adapter already did.
func wrapProviderError(err error) error {
	if errors.Is(err, ai.ErrCompletionProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ai.ErrCompletionProvider, err)
}
