package kaspa

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

// Stream is one bidirectional message exchange with the node. A stream is
// not safe for concurrent use; unary calls open a dedicated stream per
// call.
type Stream interface {
	// Send writes one request envelope to the node.
	Send(req *protowire.KaspadRequest) error

	// Recv blocks until the node delivers the next response envelope.
	// It returns io.EOF when the node ends the stream cleanly.
	Recv() (*protowire.KaspadResponse, error)

	// Close tears the stream down. Any blocked Recv unblocks with an
	// error. Close is idempotent.
	Close() error
}

// Channel is a live connection to a node from which streams are opened.
type Channel interface {
	// OpenStream starts a new message stream. The stream inherits the
	// context: cancelling it tears the stream down.
	OpenStream(ctx context.Context) (Stream, error)

	// Close releases the underlying connection. Streams opened from the
	// channel fail after Close.
	Close() error
}

// GRPCChannelConfig configures the connection to the node.
type GRPCChannelConfig struct {
	// ConnectTimeout bounds how long Connect waits for the node to become
	// reachable.
	ConnectTimeout time.Duration
}

// DefaultGRPCChannelConfig provides sensible defaults for node connections.
var DefaultGRPCChannelConfig = GRPCChannelConfig{
	ConnectTimeout: 10 * time.Second,
}

// GRPCChannel is a Channel over a single gRPC connection to a kaspad node.
type GRPCChannel struct {
	conn *grpc.ClientConn
}

var _ Channel = (*GRPCChannel)(nil)

// Connect dials the node and blocks until the connection is ready. It
// fails rather than returning a lazily-connecting channel, so a gateway
// pointed at a dead node refuses to start.
func Connect(ctx context.Context, target string, cfg GRPCChannelConfig) (*GRPCChannel, error) {
	lg := log.FromContext(ctx).WithName("kaspa-channel")
	lg.Debug("Dialing node", "target", target)

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			break
		}
		if !conn.WaitForStateChange(ctx, state) {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %s not reachable: %w", ErrConnection, target, ctx.Err())
		}
	}

	lg.Debug("Node connection ready", "target", target)
	return &GRPCChannel{conn: conn}, nil
}

// OpenStream starts a new message stream on the connection.
func (c *GRPCChannel) OpenStream(ctx context.Context) (Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	cs, err := c.conn.NewStream(streamCtx, &protowire.MessageStreamDesc,
		protowire.MessageStreamMethod, grpc.ForceCodec(protowire.Codec{}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return &grpcStream{cs: cs, cancel: cancel}, nil
}

// Close releases the underlying gRPC connection.
func (c *GRPCChannel) Close() error {
	return c.conn.Close()
}

type grpcStream struct {
	cs        grpc.ClientStream
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *grpcStream) Send(req *protowire.KaspadRequest) error {
	return s.cs.SendMsg(req)
}

func (s *grpcStream) Recv() (*protowire.KaspadResponse, error) {
	resp := &protowire.KaspadResponse{}
	if err := s.cs.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *grpcStream) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}
