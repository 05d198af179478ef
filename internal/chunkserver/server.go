package chunkserver

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"driftfs/internal/rpc/chunkrpc"
)

// RPCServer wraps the grpc.Server that exposes a ChunkServer over the
// network.
type RPCServer struct {
	s          *Server
	grpcServer *grpc.Server
}

// NewRPCServer builds the gRPC server for s, chaining the same
// sentinel-to-status error mapping internal/master/server.go wires for the
// Master (errorMappingInterceptor for unary calls, streamErrorMappingInterceptor
// for the client-streaming Upload method).
func NewRPCServer(s *Server) *RPCServer {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(errorMappingInterceptor()),
		grpc.ChainStreamInterceptor(streamErrorMappingInterceptor()),
	)
	chunkrpc.Register(gs, s)
	return &RPCServer{s: s, grpcServer: gs}
}

// ServeTCP binds addr and blocks serving gRPC until Stop is called.
func (rs *RPCServer) ServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	rs.s.logger.Info("chunkserver rpc server listening", "addr", addr)
	return rs.grpcServer.Serve(ln)
}

// Stop gracefully stops the gRPC server.
func (rs *RPCServer) Stop(ctx context.Context) error {
	rs.grpcServer.GracefulStop()
	return nil
}
