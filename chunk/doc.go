// Package chunk sanitizes extracted text and splits it into bounded,
// sentence-aligned chunks suitable for embedding.
package chunk
