// Package chunkstore defines the black-box per-chunk byte store a
// ChunkServer sits on top of (spec.md §1 treats on-disk I/O as an external
// collaborator, "described only by the interfaces the core requires").
// Store implementations are swappable backends selected by chunkserver
// config; the default is the local filesystem, with object-storage
// backends under chunkstore/s3store, chunkstore/gcsstore, and
// chunkstore/azstore.
package chunkstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a named blob does not exist.
	ErrNotFound = errors.New("chunkstore: blob not found")
)

// Store creates, appends to, reads from, and deletes named byte blobs. A
// blob's name is the chunkId (spec.md §3); the store is responsible for
// mapping that name to wherever it physically keeps the bytes.
type Store interface {
	// Create truncates (or creates) the blob named name and writes data as
	// its initial contents. Re-uploading an existing chunkId goes through
	// Create again, per spec.md §4.1's "re-uploading... truncates and
	// rewrites" idempotency rule.
	Create(ctx context.Context, name string, data []byte) error

	// Append adds data to the end of the named blob. The blob must already
	// exist (created via Create).
	Append(ctx context.Context, name string, data []byte) error

	// Read returns up to maxBytes bytes from the start of the named blob.
	// Returns ErrNotFound if the blob does not exist.
	Read(ctx context.Context, name string, maxBytes int) ([]byte, error)

	// Delete removes the named blob. Returns ErrNotFound if it does not
	// exist.
	Delete(ctx context.Context, name string) error

	// List returns the names of every blob currently held. Used to seed and
	// reconcile a ChunkServer's held-set.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources (file handles, watchers, clients) held
	// by the store.
	Close() error
}
