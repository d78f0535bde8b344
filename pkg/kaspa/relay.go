package kaspa

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

// Subscription is a live UTXO change subscription. Notifications are
// pulled with Recv; nothing is read from the node between calls, so a slow
// consumer applies backpressure instead of buffering unboundedly.
type Subscription struct {
	stream Stream
	lg     log.Logger
	acked  bool
}

// SubscribeUtxoChanges opens a dedicated stream and registers for UTXO
// change notifications on the given addresses. The subscription lives until
// Close is called or the stream breaks.
func (c *Client) SubscribeUtxoChanges(ctx context.Context, addresses []string) (*Subscription, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: at least one address is required", ErrInvalidArgument)
	}

	stream, err := c.ch.OpenStream(ctx)
	if err != nil {
		return nil, err
	}

	req := &protowire.KaspadRequest{
		ID: c.ids.Next(),
		Payload: &protowire.NotifyUtxosChangedRequestMessage{
			Command:   protowire.NotifyCommandStart,
			Addresses: addresses,
		},
	}
	if err := stream.Send(req); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: sending subscription: %w", ErrConnection, err)
	}

	lg := c.lg.WithName("utxo-subscription")
	lg.Debug("Subscription requested", "requestID", req.ID, "addresses", len(addresses))

	return &Subscription{stream: stream, lg: lg}, nil
}

// Recv blocks until the node pushes the next UTXO change notification.
// Envelopes that are not UTXO change notifications are skipped; the
// subscription acknowledgment is consumed transparently, surfacing
// ErrRemote if the node refused the registration. Recv returns io.EOF when
// the node ends the stream cleanly.
func (s *Subscription) Recv() (*protowire.UtxosChangedNotificationMessage, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: receiving notification: %w", ErrConnection, err)
		}

		switch payload := resp.Payload.(type) {
		case *protowire.UtxosChangedNotificationMessage:
			return payload, nil
		case *protowire.NotifyUtxosChangedResponseMessage:
			if rpcErr := payload.RPCError(); rpcErr != nil {
				return nil, fmt.Errorf("%w: subscription refused: %s", ErrRemote, rpcErr.Message)
			}
			if !s.acked {
				s.acked = true
				s.lg.Debug("Subscription acknowledged")
			}
		case nil:
			s.lg.Debug("Skipping unknown payload variant", "requestID", resp.ID)
		default:
			s.lg.Debug("Skipping unrelated payload", "kind", payload.Kind())
		}
	}
}

// Close tears the subscription down. Any blocked Recv unblocks promptly.
func (s *Subscription) Close() error {
	return s.stream.Close()
}
