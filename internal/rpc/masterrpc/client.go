package masterrpc

import (
	"context"

	"google.golang.org/grpc"

	"driftfs/internal/rpc/codec"
)

// Client is a thin wrapper over a grpc.ClientConnInterface, mirroring the
// shape of internal/cluster's Forward*Client helpers.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

var callContentSubtype = grpc.CallContentSubtype(codec.Name)

func (c *Client) RegisterChunkServer(ctx context.Context, req *RegisterChunkServerRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/RegisterChunkServer", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Heartbeat", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AssignChunks(ctx context.Context, req *AssignChunksRequest) (*AssignChunksResponse, error) {
	out := &AssignChunksResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/AssignChunks", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFileChunks(ctx context.Context, req *GetFileChunksRequest) (*GetFileChunksResponse, error) {
	out := &GetFileChunksResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetFileChunks", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, req *DeleteFileRequest) (*DeleteFileResponse, error) {
	out := &DeleteFileResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/DeleteFile", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error) {
	out := &AuthenticateResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Authenticate", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PingMaster(ctx context.Context, req *PingMasterRequest) (*PingMasterResponse, error) {
	out := &PingMasterResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/PingMaster", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateMetadata(ctx context.Context, req *UpdateMetadataRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/UpdateMetadata", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}
