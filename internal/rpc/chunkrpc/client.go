package chunkrpc

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

// UploadClientStream is the caller's view of an in-flight Upload call.
type UploadClientStream interface {
	grpc.ClientStream
	Send(*UploadRequest) error
	CloseAndRecv() (*UploadResponse, error)
}

type uploadClientStream struct {
	grpc.ClientStream
}

func (s *uploadClientStream) Send(req *UploadRequest) error {
	return s.ClientStream.SendMsg(req)
}

func (s *uploadClientStream) CloseAndRecv() (*UploadResponse, error) {
	if err := s.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	resp := &UploadResponse{}
	if err := s.ClientStream.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

var uploadStreamDesc = &grpc.StreamDesc{
	StreamName:    "Upload",
	ClientStreams: true,
}

func (c *Client) Upload(ctx context.Context) (UploadClientStream, error) {
	stream, err := c.cc.NewStream(ctx, uploadStreamDesc, "/"+ServiceName+"/Upload", callContentSubtype)
	if err != nil {
		return nil, err
	}
	return &uploadClientStream{ClientStream: stream}, nil
}

func (c *Client) Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error) {
	out := &ReadResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Read", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Append(ctx context.Context, req *AppendRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Append", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, req *DeleteRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Delete", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TransferChunk(ctx context.Context, req *TransferChunkRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/TransferChunk", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RegisterOtp(ctx context.Context, req *RegisterOtpRequest) (*MessageResponse, error) {
	out := &MessageResponse{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/RegisterOtp", req, out, callContentSubtype); err != nil {
		return nil, err
	}
	return out, nil
}
