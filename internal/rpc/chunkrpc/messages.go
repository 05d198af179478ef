// Package chunkrpc defines the wire messages and gRPC service description
// for the ChunkServer's RPC surface (spec.md §6), hand-written the same way
// internal/cluster/forward.go hand-writes its ServiceDesc instead of
// depending on protoc-gen-go-grpc.
package chunkrpc

const ServiceName = "driftfs.chunkserver.v1.ChunkService"

// UploadInfo is the first message of an Upload stream.
type UploadInfo struct {
	FileName   string
	ChunkID    string
	Otp        string
	IsInternal bool
}

// UploadRequest is one frame of an Upload stream. Exactly one of Info (the
// first frame) or Data (every subsequent frame) is set.
type UploadRequest struct {
	Info *UploadInfo
	Data []byte
}

type UploadResponse struct {
	Message string
}

type ReadRequest struct {
	FileName string
	ChunkID  string
	Otp      string
}

type ReadResponse struct {
	Content []byte
}

type AppendRequest struct {
	FileName string
	ChunkID  string
	Otp      string
	Data     []byte
}

type DeleteRequest struct {
	FileName string
	ChunkID  string
	Otp      string
}

type TransferChunkRequest struct {
	ChunkName     string
	TargetAddress string
}

type RegisterOtpRequest struct {
	Otp    string
	Expiry int64 // unix seconds
}

type MessageResponse struct {
	Message string
}
