package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated from database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from raw content using BLAKE2b hashing.
// Identical uploads produce identical fingerprints.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus tracks where a document is in the ingestion lifecycle.
type DocumentStatus int

const (
	// StatusProcessing is the initial state; extraction, chunking and embedding are pending.
	StatusProcessing DocumentStatus = iota + 1
	// StatusCompleted means every chunk of the document has been embedded and stored.
	StatusCompleted
	// StatusFailed means the pipeline gave up; the document has no chunks.
	StatusFailed
)

// String returns the lowercase status name.
func (s DocumentStatus) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are allowed from s.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleUser is the investor asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant is the model answering them.
	RoleAssistant
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Document is an uploaded file owned by a project.
type Document struct {
	Id           ID
	ProjectId    ID
	StoredName   string // Name under which the file store keeps the bytes
	OriginalName string // Filename as uploaded
	SizeBytes    int64
	MediaType    string
	Checksum     ID // Content fingerprint of the uploaded bytes
	Status       DocumentStatus
	TokenCount   int64 // Sum of chunk token estimates once completed
	PageEstimate int
	Error        string // Failure reason when Status is StatusFailed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChunkMetadata carries source attribution for a chunk.
type ChunkMetadata struct {
	SourceFilename string
	Page           int    // 1-based page number, 0 when not paginated
	Sheet          string // Spreadsheet sheet name, empty otherwise
	ChunkIndex     int
}

// Chunk is a bounded, independently embeddable unit of document text.
type Chunk struct {
	Id         ID
	DocumentId ID
	ProjectId  ID
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
	TokenCount int
	ChunkIndex int
}

// ScoredChunk is a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// Link is a shareable link that grants chat access to a project.
type Link struct {
	Id        ID
	ProjectId ID
	Active    bool
	CreatedAt time.Time
}

// Conversation accumulates messages and usage for one investor session on a link.
type Conversation struct {
	Id            ID
	LinkId        ID
	ProjectId     ID
	InvestorEmail string
	StartedAt     time.Time
	TotalTokens   int64
	CostUSD       float64
	IsActive      bool
}

// Citation attributes part of an answer to a source document.
type Citation struct {
	Source  string
	Excerpt string
	Page    int // 0 when the source is not paginated
}

// Message is a single turn of a conversation.
type Message struct {
	Id             ID
	ConversationId ID
	Role           Role
	Content        string
	TokenCount     int
	Citations      []Citation
	Timestamp      time.Time
}
