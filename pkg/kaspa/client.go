package kaspa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/log"
	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

// LatencyFunc receives the elapsed wall time of each completed call,
// including failed ones. It must not block.
type LatencyFunc func(op string, elapsed time.Duration)

// ClientConfig configures a Client. Channel is the only required field.
type ClientConfig struct {
	// Channel is the connection calls are issued over.
	Channel Channel

	// IDs stamps outbound request envelopes. Defaults to a fresh
	// SequentialIDs.
	IDs RequestIDs

	// Logger receives per-call debug logging. Defaults to a no-op logger.
	Logger log.Logger

	// RecordLatency, if set, is invoked after every call.
	RecordLatency LatencyFunc
}

// Client issues unary calls to a kaspad node. Every call opens a dedicated
// stream, sends exactly one request, awaits exactly one response, and tears
// the stream down, so concurrent calls never share state.
type Client struct {
	ch            Channel
	ids           RequestIDs
	lg            log.Logger
	recordLatency LatencyFunc
}

// NewClient creates a client over the given channel.
func NewClient(cfg ClientConfig) *Client {
	if cfg.IDs == nil {
		cfg.IDs = NewSequentialIDs()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNoopLogger()
	}
	return &Client{
		ch:            cfg.Channel,
		ids:           cfg.IDs,
		lg:            cfg.Logger.WithName("kaspa-client"),
		recordLatency: cfg.RecordLatency,
	}
}

// GetBlock fetches a single block by hash.
func (c *Client) GetBlock(ctx context.Context, hash string, includeTransactions bool) (*protowire.GetBlockResponseMessage, error) {
	return call[*protowire.GetBlockResponseMessage](ctx, c, &protowire.GetBlockRequestMessage{
		Hash:                hash,
		IncludeTransactions: includeTransactions,
	})
}

// SubmitTransaction submits a transaction to the network and returns the
// accepted transaction ID.
func (c *Client) SubmitTransaction(ctx context.Context, tx *protowire.RpcTransaction, allowOrphan bool) (*protowire.SubmitTransactionResponseMessage, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction is required", ErrInvalidArgument)
	}
	return call[*protowire.SubmitTransactionResponseMessage](ctx, c, &protowire.SubmitTransactionRequestMessage{
		Transaction: tx,
		AllowOrphan: allowOrphan,
	})
}

// GetBlockDagInfo queries the node's current DAG state.
func (c *Client) GetBlockDagInfo(ctx context.Context) (*protowire.GetBlockDagInfoResponseMessage, error) {
	return call[*protowire.GetBlockDagInfoResponseMessage](ctx, c, &protowire.GetBlockDagInfoRequestMessage{})
}

// GetUtxosByAddresses lists the UTXOs held by the given addresses.
func (c *Client) GetUtxosByAddresses(ctx context.Context, addresses []string) (*protowire.GetUtxosByAddressesResponseMessage, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: at least one address is required", ErrInvalidArgument)
	}
	return call[*protowire.GetUtxosByAddressesResponseMessage](ctx, c, &protowire.GetUtxosByAddressesRequestMessage{
		Addresses: addresses,
	})
}

// call runs the one-stream one-send one-recv exchange shared by every
// unary operation and classifies the outcome.
func call[T protowire.ResponsePayload](ctx context.Context, c *Client, reqPayload protowire.RequestPayload) (T, error) {
	var zero T
	op := reqPayload.Kind().String()
	start := time.Now()
	defer func() {
		if c.recordLatency != nil {
			c.recordLatency(op, time.Since(start))
		}
	}()

	stream, err := c.ch.OpenStream(ctx)
	if err != nil {
		return zero, err
	}
	defer stream.Close()

	req := &protowire.KaspadRequest{
		ID:      c.ids.Next(),
		Payload: reqPayload,
	}
	c.lg.Debug("Sending request", "op", op, "requestID", req.ID)

	if err := stream.Send(req); err != nil {
		return zero, fmt.Errorf("%w: sending %s: %w", ErrConnection, op, err)
	}

	resp, err := stream.Recv()
	if errors.Is(err, io.EOF) {
		return zero, fmt.Errorf("%w: awaiting %s", ErrEmptyResponse, op)
	}
	if err != nil {
		return zero, fmt.Errorf("%w: receiving %s: %w", ErrConnection, op, err)
	}

	payload, ok := resp.Payload.(T)
	if !ok {
		got := protowire.KindUnknown
		if resp.Payload != nil {
			got = resp.Payload.Kind()
		}
		return zero, fmt.Errorf("%w: sent %s, received %s", ErrProtocolMismatch, op, got)
	}

	if rpcErr := payload.RPCError(); rpcErr != nil {
		return zero, fmt.Errorf("%w: %s: %s", ErrRemote, op, rpcErr.Message)
	}

	c.lg.Debug("Received response", "op", op, "requestID", req.ID, "elapsed", time.Since(start))
	return payload, nil
}
