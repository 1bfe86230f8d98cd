package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{OriginalName: "deck.pdf", Status: StatusProcessing},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty name",
			doc:     &Document{Status: StatusProcessing},
			wantErr: ErrEmptyName,
		},
		{
			name:    "invalid status",
			doc:     &Document{OriginalName: "deck.pdf", Status: DocumentStatus(42)},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{Content: "Revenue grew 40%.", ChunkIndex: 0},
			wantErr: nil,
		},
		{
			name:    "tabs and newlines allowed",
			chunk:   &Chunk{Content: "a\tb\nc", ChunkIndex: 1},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "whitespace only",
			chunk:   &Chunk{Content: "   "},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "NUL byte",
			chunk:   &Chunk{Content: "abc\x00def"},
			wantErr: ErrControlCharacters,
		},
		{
			name:    "invalid UTF-8",
			chunk:   &Chunk{Content: "abc\xffdef"},
			wantErr: ErrControlCharacters,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{Content: "text", ChunkIndex: -1},
			wantErr: ErrInvalidChunkIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Minute)

	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{
			name:    "valid user message",
			msg:     &Message{Role: RoleUser, Content: "What is your ARR?", Timestamp: validTime},
			wantErr: nil,
		},
		{
			name:    "nil message",
			msg:     nil,
			wantErr: ErrInvalidMessage,
		},
		{
			name:    "empty content",
			msg:     &Message{Role: RoleUser, Timestamp: validTime},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "invalid role",
			msg:     &Message{Role: Role(0), Content: "hi", Timestamp: validTime},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "future timestamp",
			msg:     &Message{Role: RoleAssistant, Content: "hi", Timestamp: time.Now().Add(time.Hour)},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMessage() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{
			name: "past timestamp",
			ts:   time.Now().Add(-1 * time.Hour),
			want: true,
		},
		{
			name: "future timestamp",
			ts:   time.Now().Add(1 * time.Hour),
			want: false,
		},
		{
			name: "zero time",
			ts:   time.Time{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidTimestamp(tt.ts)
			if got != tt.want {
				t.Errorf("IsValidTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
