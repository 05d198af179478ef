package master

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"driftfs/internal/auth"
)

// errTooManyRequests builds the status error returned when a caller exceeds
// its rate limit for method.
func errTooManyRequests(method string) error {
	return status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", method)
}

// errorMappingInterceptor translates the sentinel errors returned by Master's
// handlers into the gRPC status taxonomy described in spec.md §9, so clients
// get NotFound/InvalidArgument/Unauthenticated instead of a bare Internal.
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

func mapErrorCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrUnknownFile):
		return codes.NotFound
	case errors.Is(err, ErrNoChunkServer):
		return codes.Internal
	case errors.Is(err, ErrAuthenticationDisabled):
		return codes.FailedPrecondition
	case errors.Is(err, auth.ErrUnauthenticated):
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}
