// Package masterrpc defines the wire messages and gRPC service description
// for the Master's RPC surface (spec.md §6). There is no .proto file: the
// ServiceDesc below is hand-written, the same way internal/cluster/forward.go
// registers its cluster service without protoc-gen-go-grpc. Messages are
// plain structs encoded by the gob codec in internal/rpc/codec.
package masterrpc

import "driftfs/internal/gfs"

const ServiceName = "driftfs.master.v1.MasterService"

type RegisterChunkServerRequest struct {
	Address string
}

type HeartbeatRequest struct {
	Address string
	Chunks  []string
}

type AssignChunksRequest struct {
	FileName string
	FileSize int64
}

type AssignChunksResponse struct {
	FileName      string
	ChunkInfoList []gfs.ChunkInfo
}

type GetFileChunksRequest struct {
	FileName string
}

type GetFileChunksResponse struct {
	FileName string
	Chunks   []gfs.ChunkInfo
}

type DeleteFileRequest struct {
	FileName string
}

type DeleteFileResponse struct {
	Success bool
	Message string
}

type AuthenticateRequest struct {
	Username string
	Password string
}

type AuthenticateResponse struct {
	Otp string
}

type PingMasterRequest struct {
	SenderAddress string
}

type PingMasterResponse struct {
	IsLeader bool
}

type UpdateMetadataRequest struct {
	Metadata gfs.Metadata
}

// MessageResponse is the generic {message} reply spec.md §6 uses for calls
// that don't return a richer payload.
type MessageResponse struct {
	Message string
}
