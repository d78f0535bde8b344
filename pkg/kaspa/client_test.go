package kaspa

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kasmetheus/kaspa-rpc-proxy/pkg/protowire"
)

// fakeStream is a scripted node-side stream. Responses are served in
// order; once the script runs out, Recv blocks until the stream is closed.
// With echo set, each Send appends a matching response to the script.
type fakeStream struct {
	mu        sync.Mutex
	sent      []*protowire.KaspadRequest
	responses []*protowire.KaspadResponse
	sendErr   error
	recvErr   error
	echo      bool
	available chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		available: make(chan struct{}, 16),
		closed:    make(chan struct{}),
	}
}

func (s *fakeStream) queue(resp *protowire.KaspadResponse) {
	s.mu.Lock()
	s.responses = append(s.responses, resp)
	s.mu.Unlock()
	s.available <- struct{}{}
}

func (s *fakeStream) Send(req *protowire.KaspadRequest) error {
	s.mu.Lock()
	s.sent = append(s.sent, req)
	echo := s.echo
	s.mu.Unlock()

	if s.sendErr != nil {
		return s.sendErr
	}
	if echo {
		s.queue(&protowire.KaspadResponse{ID: req.ID, Payload: echoPayload(req.Payload)})
	}
	return nil
}

func (s *fakeStream) Recv() (*protowire.KaspadResponse, error) {
	select {
	case <-s.available:
	case <-s.closed:
		if s.recvErr != nil {
			return nil, s.recvErr
		}
		return nil, io.EOF
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// echoPayload builds the response a well-behaved node would send for a
// request, tagging it with content derived from the request so crosstalk
// is detectable.
func echoPayload(req protowire.RequestPayload) protowire.ResponsePayload {
	switch p := req.(type) {
	case *protowire.GetBlockRequestMessage:
		return &protowire.GetBlockResponseMessage{
			Block: &protowire.RpcBlock{Header: &protowire.RpcBlockHeader{Hash: p.Hash}},
		}
	case *protowire.SubmitTransactionRequestMessage:
		return &protowire.SubmitTransactionResponseMessage{TransactionID: "accepted"}
	case *protowire.GetBlockDagInfoRequestMessage:
		return &protowire.GetBlockDagInfoResponseMessage{BlockCount: 1}
	case *protowire.GetUtxosByAddressesRequestMessage:
		return &protowire.GetUtxosByAddressesResponseMessage{}
	case *protowire.NotifyUtxosChangedRequestMessage:
		return &protowire.NotifyUtxosChangedResponseMessage{}
	default:
		return nil
	}
}

// fakeChannel hands out fake streams and records every open.
type fakeChannel struct {
	mu      sync.Mutex
	streams []*fakeStream
	openErr error
	prepare func(*fakeStream)
}

func (c *fakeChannel) OpenStream(ctx context.Context) (Stream, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	s := newFakeStream()
	if c.prepare != nil {
		c.prepare(s)
	}
	c.mu.Lock()
	c.streams = append(c.streams, s)
	c.mu.Unlock()
	return s, nil
}

func (c *fakeChannel) Close() error { return nil }

func (c *fakeChannel) opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

func newTestClient(ch Channel) *Client {
	return NewClient(ClientConfig{Channel: ch})
}

func TestGetBlockHappyPath(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) { s.echo = true }}
	client := newTestClient(ch)

	resp, err := client.GetBlock(context.Background(), "abc123", true)
	require.NoError(t, err)
	require.NotNil(t, resp.Block)
	assert.Equal(t, "abc123", resp.Block.Header.Hash)

	require.Equal(t, 1, ch.opened())
	stream := ch.streams[0]
	require.Len(t, stream.sent, 1)
	assert.Equal(t, uint64(1), stream.sent[0].ID)
	assert.True(t, stream.isClosed(), "stream must be torn down after the call")
}

func TestEachCallOpensOwnStream(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) { s.echo = true }}
	client := newTestClient(ch)

	_, err := client.GetBlockDagInfo(context.Background())
	require.NoError(t, err)
	_, err = client.GetBlockDagInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, ch.opened())
	assert.Equal(t, uint64(1), ch.streams[0].sent[0].ID)
	assert.Equal(t, uint64(2), ch.streams[1].sent[0].ID)
}

func TestConcurrentCallsDoNotInterleave(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) { s.echo = true }}
	client := newTestClient(ch)

	const calls = 32
	var wg sync.WaitGroup
	errs := make([]error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash := fmt.Sprintf("hash-%02d", i)
			resp, err := client.GetBlock(context.Background(), hash, false)
			if err != nil {
				errs[i] = err
				return
			}
			if resp.Block.Header.Hash != hash {
				errs[i] = fmt.Errorf("crosstalk: asked %s, got %s", hash, resp.Block.Header.Hash)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, calls, ch.opened())
}

func TestRequestIDsAreUniqueUnderConcurrency(t *testing.T) {
	ids := NewSequentialIDs()
	const n = 1000

	out := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- ids.Next()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint64]bool, n)
	for id := range out {
		assert.NotZero(t, id)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestMismatchedResponseVariant(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) {
		s.queue(&protowire.KaspadResponse{Payload: &protowire.GetBlockDagInfoResponseMessage{}})
	}}
	client := newTestClient(ch)

	_, err := client.GetBlock(context.Background(), "abc", false)
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.Contains(t, err.Error(), "getBlock")
	assert.Contains(t, err.Error(), "getBlockDagInfo")
}

func TestUnknownResponseVariantIsMismatch(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) {
		s.queue(&protowire.KaspadResponse{Payload: nil})
	}}
	client := newTestClient(ch)

	_, err := client.GetBlockDagInfo(context.Background())
	assert.ErrorIs(t, err, ErrProtocolMismatch)
}

func TestStreamEndsBeforeResponse(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) { s.Close() }}
	client := newTestClient(ch)

	_, err := client.GetBlockDagInfo(context.Background())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSendFailureIsConnectionError(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) {
		s.sendErr = fmt.Errorf("broken pipe")
	}}
	client := newTestClient(ch)

	_, err := client.GetBlock(context.Background(), "abc", false)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestOpenStreamFailureIsSurfaced(t *testing.T) {
	ch := &fakeChannel{openErr: fmt.Errorf("%w: refused", ErrConnection)}
	client := newTestClient(ch)

	_, err := client.GetBlockDagInfo(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
}

func TestNodeErrorIsRemote(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) {
		s.queue(&protowire.KaspadResponse{Payload: &protowire.GetBlockResponseMessage{
			Error: &protowire.RPCError{Message: "block not found"},
		}})
	}}
	client := newTestClient(ch)

	_, err := client.GetBlock(context.Background(), "missing", false)
	require.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "block not found")
}

func TestLocalValidationOpensNoStream(t *testing.T) {
	ch := &fakeChannel{}
	client := newTestClient(ch)

	_, err := client.GetUtxosByAddresses(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.SubmitTransaction(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, ch.opened())
}

func TestLatencyIsRecordedForFailedCalls(t *testing.T) {
	ch := &fakeChannel{prepare: func(s *fakeStream) {
		s.sendErr = fmt.Errorf("broken pipe")
	}}

	var mu sync.Mutex
	recorded := map[string]time.Duration{}
	client := NewClient(ClientConfig{
		Channel: ch,
		RecordLatency: func(op string, elapsed time.Duration) {
			mu.Lock()
			recorded[op] = elapsed
			mu.Unlock()
		},
	})

	_, err := client.GetBlockDagInfo(context.Background())
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, recorded, "getBlockDagInfo")
}
