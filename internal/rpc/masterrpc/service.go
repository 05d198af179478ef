package masterrpc

import (
	"context"

	"google.golang.org/grpc"
)

// Server is implemented by internal/master.Master. Registered manually via
// ServiceDesc below rather than generated from a .proto file.
type Server interface {
	RegisterChunkServer(context.Context, *RegisterChunkServerRequest) (*MessageResponse, error)
	Heartbeat(context.Context, *HeartbeatRequest) (*MessageResponse, error)
	AssignChunks(context.Context, *AssignChunksRequest) (*AssignChunksResponse, error)
	GetFileChunks(context.Context, *GetFileChunksRequest) (*GetFileChunksResponse, error)
	DeleteFile(context.Context, *DeleteFileRequest) (*DeleteFileResponse, error)
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	PingMaster(context.Context, *PingMasterRequest) (*PingMasterResponse, error)
	UpdateMetadata(context.Context, *UpdateMetadataRequest) (*MessageResponse, error)
}

// Register attaches srv to s under the hand-written ServiceDesc.
func Register(s *grpc.Server, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

func registerChunkServerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &RegisterChunkServerRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.RegisterChunkServer(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/RegisterChunkServer"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.RegisterChunkServer(ctx, req.(*RegisterChunkServerRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func heartbeatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &HeartbeatRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.Heartbeat(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Heartbeat"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Heartbeat(ctx, req.(*HeartbeatRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func assignChunksHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &AssignChunksRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.AssignChunks(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/AssignChunks"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.AssignChunks(ctx, req.(*AssignChunksRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func getFileChunksHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &GetFileChunksRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.GetFileChunks(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetFileChunks"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.GetFileChunks(ctx, req.(*GetFileChunksRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func deleteFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &DeleteFileRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.DeleteFile(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/DeleteFile"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.DeleteFile(ctx, req.(*DeleteFileRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func authenticateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &AuthenticateRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.Authenticate(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Authenticate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.Authenticate(ctx, req.(*AuthenticateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func pingMasterHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &PingMasterRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.PingMaster(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/PingMaster"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.PingMaster(ctx, req.(*PingMasterRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func updateMetadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &UpdateMetadataRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(Server)
	if interceptor == nil {
		return s.UpdateMetadata(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/UpdateMetadata"}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.UpdateMetadata(ctx, req.(*UpdateMetadataRequest))
	}
	return interceptor(ctx, req, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterChunkServer", Handler: registerChunkServerHandler},
		{MethodName: "Heartbeat", Handler: heartbeatHandler},
		{MethodName: "AssignChunks", Handler: assignChunksHandler},
		{MethodName: "GetFileChunks", Handler: getFileChunksHandler},
		{MethodName: "DeleteFile", Handler: deleteFileHandler},
		{MethodName: "Authenticate", Handler: authenticateHandler},
		{MethodName: "PingMaster", Handler: pingMasterHandler},
		{MethodName: "UpdateMetadata", Handler: updateMetadataHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "driftfs/master.go",
}
