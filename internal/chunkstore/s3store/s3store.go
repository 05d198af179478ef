// Package s3store is a chunkstore.Store backend on top of an S3 bucket, an
// alternate pluggable chunk store a ChunkServer can be configured to use
// instead of the local filesystem.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"driftfs/internal/chunkstore"
	"driftfs/internal/logging"
)

// Store stores each chunk as one object under Prefix in Bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

func New(ctx context.Context, bucket, prefix string, logger *slog.Logger) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3store: load config: %w", err)
	}
	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		logger: logging.Default(logger).With("component", "chunkstore", "backend", "s3"),
	}, nil
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *Store) Create(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3store: put %s: %w", name, err)
	}
	return nil
}

// Append has no native S3 equivalent; objects are immutable, so this reads
// the existing object and rewrites it with data tacked on. Callers on the
// hot append path should prefer a backend with native append support
// (chunkstore/azstore) if S3-sized append traffic is expected.
func (s *Store) Append(ctx context.Context, name string, data []byte) error {
	existing, err := s.Read(ctx, name, 1<<31-1)
	if err != nil {
		return err
	}
	return s.Create(ctx, name, append(existing, data...))
}

func (s *Store) Read(ctx context.Context, name string, maxBytes int) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, chunkstore.ErrNotFound
		}
		return nil, fmt.Errorf("s3store: get %s: %w", name, err)
	}
	defer out.Body.Close()

	limited := io.LimitReader(out.Body, int64(maxBytes))
	buf, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("s3store: read %s: %w", name, err)
	}
	return buf, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.Read(ctx, name, 1); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("s3store: delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3store: list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(key, s.prefix+"/")
			}
			names = append(names, key)
		}
	}
	return names, nil
}

func (s *Store) Close() error { return nil }
