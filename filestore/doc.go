// Package filestore keeps uploaded files under a storage URL. Any scheme
// supported by github.com/viant/afs works (file://, mem://, s3://, gs://).
// Files are written under a generated name so original names never touch
// the storage layout.
package filestore
