package chunkserver

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"driftfs/internal/rpc"
	"driftfs/internal/rpc/chunkrpc"
)

// startTestRPCServer boots a real gRPC server over loopback so tests can
// assert on the status codes actually seen by a network client, not just the
// Go sentinels handlers.go returns in-process.
func startTestRPCServer(t *testing.T, s *Server) *chunkrpc.Client {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	rs := NewRPCServer(s)
	go func() { _ = rs.grpcServer.Serve(ln) }()
	t.Cleanup(func() { rs.grpcServer.Stop() })

	cc, err := rpc.Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return chunkrpc.NewClient(cc)
}

func TestReadOverGRPCWithMissingOtpReturnsUnauthenticated(t *testing.T) {
	s := newTestServer(t, true)
	cl := startTestRPCServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := cl.Read(ctx, &chunkrpc.ReadRequest{FileName: "f", ChunkID: "f-0"})
	if err == nil {
		t.Fatal("expected an error")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected a gRPC status error, got %v", err)
	}
	if st.Code() != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", st.Code())
	}
}

func TestReadOverGRPCOfMissingChunkReturnsNotFound(t *testing.T) {
	s := newTestServer(t, false)
	cl := startTestRPCServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := cl.Read(ctx, &chunkrpc.ReadRequest{FileName: "f", ChunkID: "missing"})
	if err == nil {
		t.Fatal("expected an error")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected a gRPC status error, got %v", err)
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", st.Code())
	}
}

func TestUploadOverGRPCWithEmptyStreamReturnsInvalidArgument(t *testing.T) {
	s := newTestServer(t, false)
	cl := startTestRPCServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := cl.Upload(ctx)
	if err != nil {
		t.Fatalf("open upload stream: %v", err)
	}
	_, err = stream.CloseAndRecv()
	if err == nil {
		t.Fatal("expected an error")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected a gRPC status error, got %v", err)
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}
}

func TestUploadOverGRPCWithDataBeforeInfoReturnsInvalidArgument(t *testing.T) {
	s := newTestServer(t, false)
	cl := startTestRPCServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := cl.Upload(ctx)
	if err != nil {
		t.Fatalf("open upload stream: %v", err)
	}
	if err := stream.Send(&chunkrpc.UploadRequest{Data: []byte("oops")}); err != nil {
		t.Fatalf("send: %v", err)
	}
	_, err = stream.CloseAndRecv()
	if err == nil {
		t.Fatal("expected an error")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected a gRPC status error, got %v", err)
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}
}
