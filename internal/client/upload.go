package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"driftfs/internal/gfs"
	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

// Upload stats fileName locally, requests placement for it via AssignChunks,
// then streams each chunkSize slice to every one of its replicas in
// parallel. Per-replica failures are logged but do not abort sibling
// writes or the overall call (spec.md §4.3/§7).
func (c *Client) Upload(ctx context.Context, fileName string) (string, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return "", fmt.Errorf("client: open %s: %w", fileName, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("client: stat %s: %w", fileName, err)
	}

	mcl, err := c.masterClient()
	if err != nil {
		return "", err
	}
	assigned, err := mcl.AssignChunks(ctx, &masterrpc.AssignChunksRequest{FileName: fileName, FileSize: stat.Size()})
	if err != nil {
		return "", fmt.Errorf("client: assign chunks: %w", err)
	}

	for i, info := range assigned.ChunkInfoList {
		buf := make([]byte, c.cfg.ChunkSize)
		n, readErr := io.ReadFull(f, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return "", fmt.Errorf("client: read chunk %d of %s: %w", i, fileName, readErr)
		}
		data := buf[:n]

		if err := c.uploadChunkToAllReplicas(ctx, assigned.FileName, info, data); err != nil {
			c.logger.Warn("chunk upload had no surviving replica", "chunk", info.ChunkID, "error", err)
		}
	}

	return assigned.FileName, nil
}

// uploadChunkToAllReplicas streams data to every server in info.ServerAddresses
// concurrently, returning an error only if every replica failed.
func (c *Client) uploadChunkToAllReplicas(ctx context.Context, fileName string, info gfs.ChunkInfo, data []byte) error {
	g, ctx := errgroup.WithContext(ctx)
	failures := make(chan error, len(info.ServerAddresses))

	for _, addr := range info.ServerAddresses {
		addr := addr
		g.Go(func() error {
			if err := c.uploadChunkTo(ctx, addr, fileName, info.ChunkID, data); err != nil {
				c.logger.Warn("replica upload failed", "chunk", info.ChunkID, "addr", addr, "error", err)
				failures <- err
				return nil
			}
			return nil
		})
	}
	_ = g.Wait()
	close(failures)

	failed := 0
	for range failures {
		failed++
	}
	if failed == len(info.ServerAddresses) {
		return fmt.Errorf("client: all %d replicas failed for chunk %s", failed, info.ChunkID)
	}
	return nil
}

func (c *Client) uploadChunkTo(ctx context.Context, addr, fileName, chunkID string, data []byte) error {
	cl, err := c.chunkClient(addr)
	if err != nil {
		return err
	}
	stream, err := cl.Upload(ctx)
	if err != nil {
		return err
	}
	if err := stream.Send(&chunkrpc.UploadRequest{Info: &chunkrpc.UploadInfo{
		FileName: fileName,
		ChunkID:  chunkID,
		Otp:      c.otp,
	}}); err != nil {
		return err
	}
	if err := stream.Send(&chunkrpc.UploadRequest{Data: data}); err != nil {
		return err
	}
	_, err = stream.CloseAndRecv()
	return err
}
