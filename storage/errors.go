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


package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrDocumentNotFound indicates that no document exists with the given ID.
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)

	// ErrConversationNotFound indicates that no conversation exists with the given ID.
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)

	// ErrLinkNotFound indicates that no link exists with the given ID.
	ErrLinkNotFound = fmt.Errorf("link %w", ErrNotFound)

	// ErrInvalidTransition indicates a status change out of a terminal document state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTransactionFailed indicates that a transaction could not be committed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
