// Package azstore is a chunkstore.Store backend on top of Azure Blob
// Storage, one of the alternate pluggable chunk stores a ChunkServer can
// be configured to use instead of the local filesystem. Chunks are stored
// as Azure append blobs, which natively support the Append operation
// instead of the read-rewrite fallback chunkstore/s3store and
// chunkstore/gcsstore need.
package azstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"driftfs/internal/chunkstore"
	"driftfs/internal/logging"
)

// Store stores each chunk as one append blob in an Azure container.
type Store struct {
	containerClient *container.Client
	logger          *slog.Logger
}

func New(serviceURL, containerName string, cred azcore.TokenCredential, logger *slog.Logger) (*Store, error) {
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azstore: new client: %w", err)
	}
	return &Store{
		containerClient: client.ServiceClient().NewContainerClient(containerName),
		logger:          logging.Default(logger).With("component", "chunkstore", "backend", "azblob"),
	}, nil
}

func (s *Store) blob(name string) *appendblob.Client {
	return s.containerClient.NewAppendBlobClient(name)
}

func (s *Store) Create(ctx context.Context, name string, data []byte) error {
	blob := s.blob(name)
	// Re-upload must truncate, so delete any prior blob before recreating.
	_, _ = blob.Delete(ctx, nil)
	if _, err := blob.Create(ctx, nil); err != nil {
		return fmt.Errorf("azstore: create %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := blob.AppendBlock(ctx, streaming(data), nil); err != nil {
		return fmt.Errorf("azstore: seed %s: %w", name, err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, name string, data []byte) error {
	if _, err := s.blob(name).AppendBlock(ctx, streaming(data), nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return chunkstore.ErrNotFound
		}
		return fmt.Errorf("azstore: append %s: %w", name, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, name string, maxBytes int) ([]byte, error) {
	resp, err := s.blob(name).DownloadStream(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, chunkstore.ErrNotFound
		}
		return nil, fmt.Errorf("azstore: read %s: %w", name, err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)))
	if err != nil {
		return nil, fmt.Errorf("azstore: read %s: %w", name, err)
	}
	return buf, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.blob(name).Delete(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return chunkstore.ErrNotFound
		}
		return fmt.Errorf("azstore: delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	pager := s.containerClient.NewListBlobsFlatPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azstore: list: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (s *Store) Close() error { return nil }

func streaming(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}
