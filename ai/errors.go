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

import "errors"

var (
	// ErrEmbeddingProvider indicates the embedding service failed.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrCompletionProvider indicates a chat completion service failed.
	ErrCompletionProvider = errors.New("completion provider error")

	// ErrInvalidConfig indicates an incomplete or inconsistent Config.
	ErrInvalidConfig = errors.New("invalid ai config")

	// ErrEmbedderRequired is returned when a constructor is given a nil Embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrUnknownFamily indicates a provider family name that is not recognised.
	ErrUnknownFamily = errors.New("unknown provider family")
)
