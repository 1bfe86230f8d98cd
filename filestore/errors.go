package filestore

import "errors"

var (
	// ErrBaseURLRequired is returned when a store is created without a base URL.
	ErrBaseURLRequired = errors.New("base URL is required")
	// ErrInvalidName is returned for stored names that could escape the base URL.
	ErrInvalidName = errors.New("invalid stored name")
	// ErrFileNotFound is returned when a stored file does not exist.
	ErrFileNotFound = errors.New("stored file not found")
)
