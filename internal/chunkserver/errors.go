package chunkserver

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"driftfs/internal/chunkstore"
)

// errorMappingInterceptor translates the sentinel errors returned by
// ChunkServer's unary handlers into the gRPC status taxonomy described in
// spec.md §7, mirroring internal/master/errors.go's interceptor.
func errorMappingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, status.Error(mapErrorCode(err), err.Error())
	}
}

// streamErrorMappingInterceptor does the same mapping for the Upload
// client-streaming method, whose error travels back through
// grpc.StreamHandler rather than grpc.UnaryHandler.
func streamErrorMappingInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		if err == nil {
			return nil
		}
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Error(mapErrorCode(err), err.Error())
	}
}

func mapErrorCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, ErrUploadInfoFirst), errors.Is(err, ErrEmptyUploadStream):
		return codes.InvalidArgument
	case errors.Is(err, chunkstore.ErrNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}
