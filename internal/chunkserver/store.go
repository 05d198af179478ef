package chunkserver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"driftfs/internal/chunkserverconfig"
	"driftfs/internal/chunkstore"
	"driftfs/internal/chunkstore/azstore"
	"driftfs/internal/chunkstore/gcsstore"
	"driftfs/internal/chunkstore/localfs"
	"driftfs/internal/chunkstore/s3store"
)

// buildStore constructs the chunkstore.Store named by cfg.Backend. selfAddr
// scopes the local-disk root so multiple chunkservers can share a DataPath
// during local development, per spec.md §6's on-disk layout.
func buildStore(ctx context.Context, selfAddr string, cfg chunkserverconfig.Config, logger *slog.Logger) (chunkstore.Store, error) {
	switch cfg.Backend {
	case "", "localfs":
		dir := filepath.Join(localfs.SanitizeAddress(selfAddr), cfg.DataPath)
		return localfs.New(dir, logger)
	case "s3":
		return s3store.New(ctx, cfg.Bucket, cfg.Prefix, logger)
	case "gcs":
		return gcsstore.New(ctx, cfg.Bucket, cfg.Prefix, logger)
	case "azblob":
		// azblob has no single bucket name: cfg.Bucket carries the account
		// service URL and cfg.Prefix carries the container name.
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("chunkserver: azure default credential: %w", err)
		}
		return azstore.New(cfg.Bucket, cfg.Prefix, cred, logger)
	default:
		return nil, fmt.Errorf("chunkserver: unknown backend %q", cfg.Backend)
	}
}
