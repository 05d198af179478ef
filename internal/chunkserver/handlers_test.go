package chunkserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"driftfs/internal/auth"
	"driftfs/internal/chunkserverconfig"
	"driftfs/internal/chunkstore"
	"driftfs/internal/chunkstore/localfs"
	"driftfs/internal/rpc/chunkrpc"
)

func newTestServer(t *testing.T, useAuth bool) *Server {
	t.Helper()
	store, err := localfs.New(t.TempDir(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	return &Server{
		cfg:      chunkserverconfig.Config{UseAuthentication: useAuth, ChunkSize: 1 << 20}.WithDefaults(),
		selfAddr: "127.0.0.1:0",
		logger:   slog.New(slog.DiscardHandler),
		store:    store,
		otpTable: auth.NewOtpTable(),
	}
}

// fakeUploadStream feeds a fixed sequence of frames to Server.Upload and
// records the response, standing in for the real grpc.ServerStream the
// gRPC runtime would otherwise supply.
type fakeUploadStream struct {
	grpc.ServerStream
	frames []*chunkrpc.UploadRequest
	pos    int
	resp   *chunkrpc.UploadResponse
}

func (f *fakeUploadStream) Context() context.Context { return context.Background() }

func (f *fakeUploadStream) Recv() (*chunkrpc.UploadRequest, error) {
	if f.pos >= len(f.frames) {
		return nil, io.EOF
	}
	req := f.frames[f.pos]
	f.pos++
	return req, nil
}

func (f *fakeUploadStream) SendAndClose(resp *chunkrpc.UploadResponse) error {
	f.resp = resp
	return nil
}

func (f *fakeUploadStream) SetHeader(metadata.MD) error  { return nil }
func (f *fakeUploadStream) SendHeader(metadata.MD) error { return nil }
func (f *fakeUploadStream) SetTrailer(metadata.MD)       {}

func TestUploadThenReadRoundTrip(t *testing.T) {
	s := newTestServer(t, false)

	stream := &fakeUploadStream{frames: []*chunkrpc.UploadRequest{
		{Info: &chunkrpc.UploadInfo{FileName: "f", ChunkID: "f_chunk_0"}},
		{Data: []byte("hello ")},
		{Data: []byte("world")},
	}}

	if err := s.Upload(stream); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if stream.resp == nil || stream.resp.Message != "ok" {
		t.Fatalf("expected an ok response, got %+v", stream.resp)
	}

	resp, err := s.Read(context.Background(), &chunkrpc.ReadRequest{ChunkID: "f_chunk_0"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(resp.Content) != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", resp.Content)
	}
}

func TestUploadRequiresInfoFirst(t *testing.T) {
	s := newTestServer(t, false)

	stream := &fakeUploadStream{frames: []*chunkrpc.UploadRequest{
		{Data: []byte("oops")},
	}}

	if err := s.Upload(stream); !errors.Is(err, ErrUploadInfoFirst) {
		t.Fatalf("expected ErrUploadInfoFirst, got %v", err)
	}
}

func TestUploadRejectsMissingOtpWhenAuthEnabled(t *testing.T) {
	s := newTestServer(t, true)

	stream := &fakeUploadStream{frames: []*chunkrpc.UploadRequest{
		{Info: &chunkrpc.UploadInfo{FileName: "f", ChunkID: "f_chunk_0"}},
		{Data: []byte("x")},
	}}

	if err := s.Upload(stream); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestReadMissingChunkReturnsNotFound(t *testing.T) {
	s := newTestServer(t, false)

	_, err := s.Read(context.Background(), &chunkrpc.ReadRequest{ChunkID: "ghost"})
	if !errors.Is(err, chunkstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendRequiresExistingChunk(t *testing.T) {
	s := newTestServer(t, false)

	_, err := s.Append(context.Background(), &chunkrpc.AppendRequest{ChunkID: "ghost", Data: []byte("x")})
	if !errors.Is(err, chunkstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteThenReadIsNotFound(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	if err := s.store.Create(ctx, "c1", []byte("data")); err != nil {
		t.Fatalf("seed Create: %v", err)
	}
	if _, err := s.Delete(ctx, &chunkrpc.DeleteRequest{ChunkID: "c1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read(ctx, &chunkrpc.ReadRequest{ChunkID: "c1"}); !errors.Is(err, chunkstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCheckOtpRejectsMissingOtpWhenAuthEnabled(t *testing.T) {
	s := newTestServer(t, true)

	if err := s.checkOtp("", false); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty otp, got %v", err)
	}

	s.otpTable.Register("good-otp", time.Now().Add(time.Minute))
	if err := s.checkOtp("good-otp", false); err != nil {
		t.Fatalf("expected a registered otp to pass, got %v", err)
	}
}

func TestCheckOtpBypassedForInternalCalls(t *testing.T) {
	s := newTestServer(t, true)

	if err := s.checkOtp("", true); err != nil {
		t.Fatalf("internal calls must bypass the otp gate, got %v", err)
	}
}

func TestCheckOtpDisabledWhenAuthenticationOff(t *testing.T) {
	s := newTestServer(t, false)

	if err := s.checkOtp("", false); err != nil {
		t.Fatalf("expected no error when authentication is disabled, got %v", err)
	}
}

func TestRegisterOtpThenValid(t *testing.T) {
	s := newTestServer(t, true)

	_, err := s.RegisterOtp(context.Background(), &chunkrpc.RegisterOtpRequest{
		Otp:    "abc",
		Expiry: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("RegisterOtp: %v", err)
	}
	if err := s.checkOtp("abc", false); err != nil {
		t.Fatalf("expected registered otp to be valid, got %v", err)
	}
}
