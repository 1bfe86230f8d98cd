package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrFileReaderRequired is returned when a file reader is not provided.
	ErrFileReaderRequired = errors.New("file reader required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyExtraction is recorded when a document yields no chunkable text.
	ErrEmptyExtraction = errors.New("document contains no extractable text")

	// ErrAlreadyProcessing is returned when a document is already queued or running.
	ErrAlreadyProcessing = errors.New("document is already being processed")

	// ErrPipelineReleased is returned when work is submitted after Release.
	ErrPipelineReleased = errors.New("pipeline released")
)
