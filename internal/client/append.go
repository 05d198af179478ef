package client

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

// Append fetches fileName's placement and fans ChunkServer.Append out to
// every replica of every chunk in parallel — the current design appends to
// every chunk, not just the last one (spec.md §4.3, open question in §9).
func (c *Client) Append(ctx context.Context, fileName string, data []byte) error {
	mcl, err := c.masterClient()
	if err != nil {
		return err
	}
	resp, err := mcl.GetFileChunks(ctx, &masterrpc.GetFileChunksRequest{FileName: fileName})
	if err != nil {
		return fmt.Errorf("client: get file chunks: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, info := range resp.Chunks {
		for _, addr := range info.ServerAddresses {
			chunkID, addr := info.ChunkID, addr
			g.Go(func() error {
				cl, err := c.chunkClient(addr)
				if err != nil {
					c.logger.Warn("append: dial failed", "addr", addr, "error", err)
					return nil
				}
				if _, err := cl.Append(ctx, &chunkrpc.AppendRequest{FileName: fileName, ChunkID: chunkID, Otp: c.otp, Data: data}); err != nil {
					c.logger.Warn("append: replica append failed", "chunk", chunkID, "addr", addr, "error", err)
				}
				return nil
			})
		}
	}
	return g.Wait()
}
