package chunkrpc

import (
	"context"

	"google.golang.org/grpc"
)

// UploadStream is the server-side view of an Upload call, mirroring the
// shape protoc-gen-go-grpc would generate for a client-streaming method.
type UploadStream interface {
	grpc.ServerStream
	Recv() (*UploadRequest, error)
	SendAndClose(*UploadResponse) error
}

// Server is implemented by internal/chunkserver.Server.
type Server interface {
	Upload(UploadStream) error
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	Append(context.Context, *AppendRequest) (*MessageResponse, error)
	Delete(context.Context, *DeleteRequest) (*MessageResponse, error)
	TransferChunk(context.Context, *TransferChunkRequest) (*MessageResponse, error)
	RegisterOtp(context.Context, *RegisterOtpRequest) (*MessageResponse, error)
}

func Register(s *grpc.Server, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

type uploadServerStream struct {
	grpc.ServerStream
}

func (s *uploadServerStream) Recv() (*UploadRequest, error) {
	req := &UploadRequest{}
	if err := s.ServerStream.RecvMsg(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *uploadServerStream) SendAndClose(resp *UploadResponse) error {
	return s.ServerStream.SendMsg(resp)
}

func uploadStreamHandler(srv any, stream grpc.ServerStream) error {
	s := srv.(Server)
	return s.Upload(&uploadServerStream{ServerStream: stream})
}

func readHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &ReadRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.Read(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Read"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Read(ctx, req.(*ReadRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func appendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &AppendRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.Append(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Append"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Append(ctx, req.(*AppendRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func deleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &DeleteRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.Delete(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Delete"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Delete(ctx, req.(*DeleteRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func transferChunkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &TransferChunkRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.TransferChunk(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/TransferChunk"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.TransferChunk(ctx, req.(*TransferChunkRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func registerOtpHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &RegisterOtpRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.RegisterOtp(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/RegisterOtp"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.RegisterOtp(ctx, req.(*RegisterOtpRequest))
	}
	return interceptor(ctx, req, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Read", Handler: readHandler},
		{MethodName: "Append", Handler: appendHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "TransferChunk", Handler: transferChunkHandler},
		{MethodName: "RegisterOtp", Handler: registerOtpHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Upload",
			Handler:       uploadStreamHandler,
			ClientStreams: true,
		},
	},
	Metadata: "driftfs/chunkserver.go",
}
