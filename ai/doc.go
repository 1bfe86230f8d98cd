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


// Package ai provides abstractions for the AI services used by pitchroom.
//
// This package defines interfaces for text embeddings and chat completion.
// The ingestion and chat pipelines depend on these abstractions rather than on
// any vendor SDK.
//
// # Design
//
//   - Embedder: generates vector embeddings from text
//   - CompletionProvider: answers a chat request for one model Family
//   - Provider: aggregates an embedder and a completer sharing one client
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embeddings and chat
//   - ai/anthropic: Claude chat
//   - ai/googleai: Gemini chat
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors return interface types. Mock constructors return
// concrete types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := provider.Embedder().EmbedText(ctx, "Our ARR is $2.4M.")
package ai
