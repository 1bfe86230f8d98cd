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

// Package search ranks document chunks by semantic similarity to a query.
//
// The Retriever embeds the query, scans the chunks of every completed
// document in a project and orders them by cosine similarity. Ties are
// broken by document ID then chunk index so results are deterministic.
// A project without completed documents yields no results and no error.
package search
