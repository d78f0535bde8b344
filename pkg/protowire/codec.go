package protowire

import (
	"fmt"

	"google.golang.org/grpc"
)

// MessageStreamMethod is the full method name of the node's bidirectional
// message stream.
const MessageStreamMethod = "/protowire.RPC/MessageStream"

// MessageStreamDesc describes the node's bidirectional message stream for
// grpc.ClientConn.NewStream.
var MessageStreamDesc = grpc.StreamDesc{
	StreamName:    "MessageStream",
	ServerStreams: true,
	ClientStreams: true,
}

// Codec encodes KaspadRequest envelopes and decodes KaspadResponse
// envelopes for gRPC transport. It satisfies the grpc encoding.Codec
// interface and is installed per call with grpc.ForceCodec.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *KaspadRequest:
		return m.Marshal()
	case *KaspadResponse:
		return m.Marshal()
	default:
		return nil, fmt.Errorf("protowire codec cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *KaspadResponse:
		return m.Unmarshal(data)
	case *KaspadRequest:
		return m.Unmarshal(data)
	default:
		return fmt.Errorf("protowire codec cannot unmarshal into %T", v)
	}
}

func (Codec) Name() string { return "proto" }
