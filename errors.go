package pitchroom

import "errors"

var (
	// ErrPathRequired indicates no database path was given for a persistent platform.
	ErrPathRequired = errors.New("database path is required")

	// ErrNameRequired indicates an upload without a filename.
	ErrNameRequired = errors.New("original filename is required")

	// ErrDocumentProcessing indicates a document cannot be deleted while it is being ingested.
	ErrDocumentProcessing = errors.New("document is still processing")
)
