// Package ingestion turns uploaded documents into retrievable chunks.
//
// A Pipeline runs each document through extraction, chunking and embedding,
// then finalizes its status:
//   - processing → completed when at least one chunk was indexed
//   - processing → failed on extraction or embedding errors, or empty content
//
// Documents are processed concurrently on a worker pool; the chunks of one
// document are embedded and stored strictly in order. Failures never reach
// the uploader; they are recorded on the document instead.
package ingestion
