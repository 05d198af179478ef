package chunkserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"driftfs/internal/chunkstore"
	"driftfs/internal/rpc/chunkrpc"
)

var _ chunkrpc.Server = (*Server)(nil)

// ErrUnauthenticated is returned when a client-facing call arrives without
// a valid OTP while authentication is enabled (spec.md §4.1/§9).
var ErrUnauthenticated = errors.New("chunkserver: missing or invalid otp")

// ErrUploadInfoFirst is returned when an Upload stream's first frame is not
// an UploadInfo.
var ErrUploadInfoFirst = errors.New("chunkserver: upload stream must start with an info frame")

// ErrEmptyUploadStream is returned when an Upload stream closes before
// sending any frame at all (spec.md §4.1).
var ErrEmptyUploadStream = errors.New("chunkserver: upload stream closed before sending an info frame")

// checkOtp enforces spec.md §9's OTP gate: every client-facing call is
// rejected with Unauthenticated when otp is missing or invalid while
// authentication is enabled, except calls originating internally (repair
// transfers) which set isInternal.
func (s *Server) checkOtp(otp string, isInternal bool) error {
	if !s.cfg.UseAuthentication || isInternal {
		return nil
	}
	if otp == "" || !s.otpTable.Valid(otp) {
		return ErrUnauthenticated
	}
	return nil
}

// Upload receives a client-streaming chunk upload: one UploadInfo frame
// followed by one or more Data frames. Re-uploading an existing chunkId
// truncates and rewrites it (spec.md §4.1).
func (s *Server) Upload(stream chunkrpc.UploadStream) error {
	first, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyUploadStream
		}
		return err
	}
	if first.Info == nil {
		return ErrUploadInfoFirst
	}
	info := first.Info

	if err := s.checkOtp(info.Otp, info.IsInternal); err != nil {
		return err
	}

	var buf bytes.Buffer
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		buf.Write(req.Data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := s.store.Create(ctx, info.ChunkID, buf.Bytes()); err != nil {
		return fmt.Errorf("chunkserver: upload %s: %w", info.ChunkID, err)
	}

	s.logger.Info("chunk uploaded", "chunk", info.ChunkID, "file", info.FileName, "bytes", buf.Len())
	return stream.SendAndClose(&chunkrpc.UploadResponse{Message: "ok"})
}

// Read returns up to the full contents of a chunk.
func (s *Server) Read(ctx context.Context, req *chunkrpc.ReadRequest) (*chunkrpc.ReadResponse, error) {
	if err := s.checkOtp(req.Otp, false); err != nil {
		return nil, err
	}
	data, err := s.store.Read(ctx, req.ChunkID, int(s.cfg.ChunkSize))
	if err != nil {
		if errors.Is(err, chunkstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("chunkserver: read %s: %w", req.ChunkID, err)
	}
	return &chunkrpc.ReadResponse{Content: data}, nil
}

// Append adds data to the end of an existing chunk.
func (s *Server) Append(ctx context.Context, req *chunkrpc.AppendRequest) (*chunkrpc.MessageResponse, error) {
	if err := s.checkOtp(req.Otp, false); err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, req.ChunkID, req.Data); err != nil {
		if errors.Is(err, chunkstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("chunkserver: append %s: %w", req.ChunkID, err)
	}
	return &chunkrpc.MessageResponse{Message: "ok"}, nil
}

// Delete removes a chunk from local storage.
func (s *Server) Delete(ctx context.Context, req *chunkrpc.DeleteRequest) (*chunkrpc.MessageResponse, error) {
	if err := s.checkOtp(req.Otp, false); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, req.ChunkID); err != nil {
		if errors.Is(err, chunkstore.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("chunkserver: delete %s: %w", req.ChunkID, err)
	}
	return &chunkrpc.MessageResponse{Message: "ok"}, nil
}

// TransferChunk reads a chunk fully into memory and re-uploads it to
// targetAddress, used by the master's repair loop to re-replicate a chunk
// lost with a dead chunkserver (spec.md §4.2 step 3d).
func (s *Server) TransferChunk(ctx context.Context, req *chunkrpc.TransferChunkRequest) (*chunkrpc.MessageResponse, error) {
	data, err := s.store.Read(ctx, req.ChunkName, int(s.cfg.ChunkSize))
	if err != nil {
		return nil, fmt.Errorf("chunkserver: transfer read %s: %w", req.ChunkName, err)
	}

	cl, err := dialChunkClient(req.TargetAddress)
	if err != nil {
		return nil, fmt.Errorf("chunkserver: dial transfer target %s: %w", req.TargetAddress, err)
	}

	stream, err := cl.Upload(ctx)
	if err != nil {
		return nil, fmt.Errorf("chunkserver: open transfer stream to %s: %w", req.TargetAddress, err)
	}
	if err := stream.Send(&chunkrpc.UploadRequest{Info: &chunkrpc.UploadInfo{ChunkID: req.ChunkName, IsInternal: true}}); err != nil {
		return nil, fmt.Errorf("chunkserver: send transfer info: %w", err)
	}
	if err := stream.Send(&chunkrpc.UploadRequest{Data: data}); err != nil {
		return nil, fmt.Errorf("chunkserver: send transfer data: %w", err)
	}
	if _, err := stream.CloseAndRecv(); err != nil {
		return nil, fmt.Errorf("chunkserver: close transfer stream: %w", err)
	}

	s.logger.Info("chunk transferred", "chunk", req.ChunkName, "target", req.TargetAddress)
	return &chunkrpc.MessageResponse{Message: "transferred"}, nil
}

// RegisterOtp is the internal push from Master.Authenticate that seeds this
// node's OtpTable (spec.md §4.1).
func (s *Server) RegisterOtp(ctx context.Context, req *chunkrpc.RegisterOtpRequest) (*chunkrpc.MessageResponse, error) {
	s.otpTable.Register(req.Otp, time.Unix(req.Expiry, 0))
	return &chunkrpc.MessageResponse{Message: "ok"}, nil
}
