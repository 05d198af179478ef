package client

import (
	"bytes"
	"context"
	"fmt"

	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

// Read fetches fileName's chunk placement and reads each chunk from one
// randomly chosen replica, concatenating the results in chunk order
// (spec.md §4.3).
func (c *Client) Read(ctx context.Context, fileName string) ([]byte, error) {
	mcl, err := c.masterClient()
	if err != nil {
		return nil, err
	}
	resp, err := mcl.GetFileChunks(ctx, &masterrpc.GetFileChunksRequest{FileName: fileName})
	if err != nil {
		return nil, fmt.Errorf("client: get file chunks: %w", err)
	}

	var out bytes.Buffer
	for _, info := range resp.Chunks {
		if len(info.ServerAddresses) == 0 {
			return nil, fmt.Errorf("client: chunk %s has no replicas", info.ChunkID)
		}
		addr := randomAddress(info.ServerAddresses)
		cl, err := c.chunkClient(addr)
		if err != nil {
			return nil, fmt.Errorf("client: dial %s: %w", addr, err)
		}
		readResp, err := cl.Read(ctx, &chunkrpc.ReadRequest{FileName: fileName, ChunkID: info.ChunkID, Otp: c.otp})
		if err != nil {
			return nil, fmt.Errorf("client: read chunk %s from %s: %w", info.ChunkID, addr, err)
		}
		out.Write(readResp.Content)
	}
	return out.Bytes(), nil
}
