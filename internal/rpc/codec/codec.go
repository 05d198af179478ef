// Package codec provides the wire codec driftfs registers with gRPC in
// place of protobuf. Messages are plain Go structs encoded with
// encoding/gob; the codec is wired in through grpc's own pluggable-codec
// extension point (encoding.RegisterCodec / grpc.CallContentSubtype), the
// same seam protobuf codecs use.
package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype under which this codec is registered.
const Name = "gob"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec implements google.golang.org/grpc/encoding.Codec using gob.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob codec: marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("gob codec: unmarshal: %w", err)
	}
	return nil
}

func (Codec) Name() string { return Name }
