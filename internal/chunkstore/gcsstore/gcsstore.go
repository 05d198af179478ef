// Package gcsstore is a chunkstore.Store backend on top of a Google Cloud
// Storage bucket, one of the alternate pluggable chunk stores a
// ChunkServer can be configured to use instead of the local filesystem.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"driftfs/internal/chunkstore"
	"driftfs/internal/logging"
)

// Store stores each chunk as one object under Prefix in a GCS bucket.
type Store struct {
	bucket *storage.BucketHandle
	prefix string
	logger *slog.Logger
}

func New(ctx context.Context, bucketName, prefix string, logger *slog.Logger) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcsstore: new client: %w", err)
	}
	return &Store{
		bucket: client.Bucket(bucketName),
		prefix: prefix,
		logger: logging.Default(logger).With("component", "chunkstore", "backend", "gcs"),
	}, nil
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *Store) Create(ctx context.Context, name string, data []byte) error {
	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcsstore: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcsstore: close %s: %w", name, err)
	}
	return nil
}

// Append has no native GCS equivalent for arbitrary objects; it reads the
// existing object and rewrites it with data tacked on, the same tradeoff
// documented on chunkstore/s3store.
func (s *Store) Append(ctx context.Context, name string, data []byte) error {
	existing, err := s.Read(ctx, name, 1<<31-1)
	if err != nil {
		return err
	}
	return s.Create(ctx, name, append(existing, data...))
}

func (s *Store) Read(ctx context.Context, name string, maxBytes int) ([]byte, error) {
	r, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, chunkstore.ErrNotFound
		}
		return nil, fmt.Errorf("gcsstore: read %s: %w", name, err)
	}
	defer r.Close()

	buf, err := io.ReadAll(io.LimitReader(r, int64(maxBytes)))
	if err != nil {
		return nil, fmt.Errorf("gcsstore: read %s: %w", name, err)
	}
	return buf, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.bucket.Object(s.key(name)).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return chunkstore.ErrNotFound
		}
		return fmt.Errorf("gcsstore: delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	for {
		obj, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcsstore: list: %w", err)
		}
		name := obj.Name
		if s.prefix != "" {
			name = strings.TrimPrefix(name, s.prefix+"/")
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) Close() error { return nil }
