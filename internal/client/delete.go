package client

import (
	"context"
	"fmt"

	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

// Delete removes fileName's metadata on the master, then fans out
// ChunkServer.Delete to every (chunkIndex, address) pair the master
// reported held it (spec.md §4.3).
func (c *Client) Delete(ctx context.Context, fileName string) error {
	mcl, err := c.masterClient()
	if err != nil {
		return err
	}

	getResp, err := mcl.GetFileChunks(ctx, &masterrpc.GetFileChunksRequest{FileName: fileName})
	if err != nil {
		return fmt.Errorf("client: get file chunks: %w", err)
	}

	delResp, err := mcl.DeleteFile(ctx, &masterrpc.DeleteFileRequest{FileName: fileName})
	if err != nil {
		return fmt.Errorf("client: delete file: %w", err)
	}
	if !delResp.Success {
		return fmt.Errorf("client: delete %s: %s", fileName, delResp.Message)
	}

	for _, info := range getResp.Chunks {
		for _, addr := range info.ServerAddresses {
			cl, err := c.chunkClient(addr)
			if err != nil {
				c.logger.Warn("delete: dial failed", "addr", addr, "error", err)
				continue
			}
			if _, err := cl.Delete(ctx, &chunkrpc.DeleteRequest{FileName: fileName, ChunkID: info.ChunkID, Otp: c.otp}); err != nil {
				c.logger.Warn("delete: replica delete failed", "chunk", info.ChunkID, "addr", addr, "error", err)
			}
		}
	}
	return nil
}
