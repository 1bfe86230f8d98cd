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
	"fmt"

	"github.com/poiesic/pitchroom/core"
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	return core.EncodeDocument(doc)
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, err := core.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	return core.EncodeChunk(chunk)
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, err := core.DecodeChunk(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalLink serializes a Link to bytes.
func MarshalLink(link *core.Link) []byte {
	return core.EncodeLink(link)
}

// UnmarshalLink deserializes a Link from bytes.
func UnmarshalLink(data []byte) (*core.Link, error) {
	link, err := core.DecodeLink(data)
	if err != nil {
		return nil, fmt.Errorf("%w: link: %w", ErrSerializationFailed, err)
	}
	return &link, nil
}

// MarshalConversation serializes a Conversation to bytes.
func MarshalConversation(conv *core.Conversation) []byte {
	return core.EncodeConversation(conv)
}

// UnmarshalConversation deserializes a Conversation from bytes.
func UnmarshalConversation(data []byte) (*core.Conversation, error) {
	conv, err := core.DecodeConversation(data)
	if err != nil {
		return nil, fmt.Errorf("%w: conversation: %w", ErrSerializationFailed, err)
	}
	return &conv, nil
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(msg *core.Message) []byte {
	return core.EncodeMessage(msg)
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	msg, err := core.DecodeMessage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: message: %w", ErrSerializationFailed, err)
	}
	return &msg, nil
}
