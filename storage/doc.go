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

// Package storage provides the storage abstraction layer for pitchroom.
//
// This package defines repository interfaces that decouple persistence from
// the ingestion and chat pipelines. The BadgerDB implementation lives in
// storage/badger.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: uploaded documents and their lifecycle status
//   - ChunkRepository: embedded chunks, keyed by document and chunk index
//   - LinkRepository: shareable links that scope chat to a project
//   - ConversationRepository: investor conversations and their usage totals
//   - MessageRepository: the message log of a conversation, appended to
//     through ConversationRepository.AppendExchange
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. AppendExchange in particular
// must be atomic with respect to concurrent exchanges on the same
// conversation.
package storage
